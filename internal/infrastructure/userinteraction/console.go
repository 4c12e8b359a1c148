package userinteraction

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var _ output.ProgressPort = (*ConsoleProgress)(nil)

type ConsoleProgress struct {
	out io.Writer
}

func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleProgress{out: out}
}

func (u *ConsoleProgress) ShowStep(ctx context.Context, step, maxSteps int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Step %d/%d ━━━\n", step, maxSteps)
}

func (u *ConsoleProgress) ShowReply(ctx context.Context, content string) {
	if content == "" {
		return
	}

	blue := color.New(color.FgBlue)
	blue.Fprint(u.out, "💭 Model: ")

	dim := color.New(color.Faint)
	dim.Fprintln(u.out, truncate(strings.TrimSpace(content), 300))
}

func (u *ConsoleProgress) ShowAction(ctx context.Context, action entity.Action) {
	icon := actionIcon(action.Kind)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "%s %s\n", icon, action)
}

func (u *ConsoleProgress) ShowParseFailure(ctx context.Context, err error) {
	red := color.New(color.FgRed)
	red.Fprint(u.out, "❌ Unparseable reply: ")

	dim := color.New(color.Faint)
	dim.Fprintln(u.out, truncate(err.Error(), 300))
}

func (u *ConsoleProgress) ShowResult(ctx context.Context, result *entity.RunResult, err error) {
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(u.out, "\n✗ Run failed: %v\n", err)
		return
	}

	if result.Reason == entity.ReasonFinished {
		green := color.New(color.FgGreen, color.Bold)
		green.Fprintf(u.out, "\n✓ Finished in %d steps", result.Steps)
	} else {
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintf(u.out, "\n⚠ Step budget exhausted after %d steps", result.Steps)
	}

	dim := color.New(color.Faint)
	dim.Fprintf(u.out, " (submitted=%t, parse failures=%d, %s)\n",
		result.Submitted, result.ParseFailures, result.Duration.Round(time.Millisecond))
	if result.FinalURL != "" {
		dim.Fprintf(u.out, "   URL: %s\n", result.FinalURL)
	}
}

func actionIcon(kind entity.ActionKind) string {
	icons := map[entity.ActionKind]string{
		entity.ActionFill:   "✏️",
		entity.ActionSelect: "📋",
		entity.ActionClick:  "🖱️",
		entity.ActionFinish: "🏁",
	}
	if icon, ok := icons[kind]; ok {
		return icon
	}
	return "❔"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
