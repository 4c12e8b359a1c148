// Package workflow runs the perceive-think-act loop for one objective.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/usecase/conversation"
	"form-agent/internal/usecase/dispatcher"
	"form-agent/internal/usecase/parser"
	"form-agent/internal/usecase/snapshot"
)

var _ input.WorkflowRunner = (*UseCase)(nil)

const (
	DefaultMaxSteps   = 20
	DefaultSubmitName = "Submit"
)

type Config struct {
	FormURL            string
	MaxSteps           int
	SubmitName         string
	FinishPolicy       dispatcher.FinishPolicy
	SettleDelay        time.Duration
	Temperature        float32
	SystemPrompt       string
	ScreenshotOnFinish bool
}

type UseCase struct {
	llm      output.LLMPort
	launcher output.BrowserLauncher
	registry output.ActionRegistry
	logger   output.LoggerPort
	metrics  output.MetricsPort
	progress output.ProgressPort
	cfg      Config
}

type Option func(*UseCase)

func WithMetrics(m output.MetricsPort) Option {
	return func(uc *UseCase) { uc.metrics = m }
}

func WithProgress(p output.ProgressPort) Option {
	return func(uc *UseCase) { uc.progress = p }
}

func New(
	llm output.LLMPort,
	launcher output.BrowserLauncher,
	registry output.ActionRegistry,
	logger output.LoggerPort,
	cfg Config,
	opts ...Option,
) *UseCase {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.SubmitName == "" {
		cfg.SubmitName = DefaultSubmitName
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}

	uc := &UseCase{
		llm:      llm,
		launcher: launcher,
		registry: registry,
		logger:   logger,
		metrics:  nopMetrics{},
		progress: nopProgress{},
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run executes one workflow. It fails only when the run aborts; finishing
// and exhausting the step budget both succeed and are told apart by
// RunResult.Reason. The browser session is closed before Run returns on
// every path.
func (uc *UseCase) Run(ctx context.Context, objective entity.Objective) (*entity.RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := uc.logger.WithField("run_id", runID)

	log.Info("Run started", "max_steps", uc.cfg.MaxSteps, "form_url", uc.cfg.FormURL)

	result, err := uc.run(ctx, runID, log, objective)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("Run aborted", "error", err, "duration", elapsed)
		uc.metrics.RunFailed(err, elapsed)
		uc.progress.ShowResult(ctx, nil, err)
		return nil, err
	}

	result.Duration = elapsed
	log.Info("Run completed",
		"reason", result.Reason,
		"steps", result.Steps,
		"parse_failures", result.ParseFailures,
		"submitted", result.Submitted,
		"duration", elapsed,
	)
	uc.metrics.RunCompleted(result.Reason, elapsed)
	uc.progress.ShowResult(ctx, result, nil)
	return result, nil
}

func (uc *UseCase) run(ctx context.Context, runID string, log output.LoggerPort, objective entity.Objective) (*entity.RunResult, error) {
	conv, err := conversation.New(objective, uc.cfg.SubmitName, uc.cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}

	page, err := uc.launcher.Open(ctx)
	if err != nil {
		return nil, &entity.UpstreamError{Op: "open browser", Err: err}
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("Closing browser session failed", "error", cerr)
		}
	}()

	if uc.cfg.FormURL != "" {
		if err := page.Navigate(ctx, uc.cfg.FormURL); err != nil {
			return nil, &entity.UpstreamError{Op: "navigate", Err: err}
		}
	}

	disp := dispatcher.New(uc.registry, log, dispatcher.Options{
		SubmitName: uc.cfg.SubmitName,
		Policy:     uc.cfg.FinishPolicy,
	})

	result := &entity.RunResult{RunID: runID, Reason: entity.ReasonExhausted}

	for step := 1; step <= uc.cfg.MaxSteps; step++ {
		result.Steps = step
		log.Debug("Starting step", "step", step)
		uc.metrics.StepStarted()
		uc.progress.ShowStep(ctx, step, uc.cfg.MaxSteps)

		view, err := snapshot.Capture(ctx, page)
		if err != nil {
			return nil, err
		}
		if err := conv.AddPerception(view); err != nil {
			return nil, err
		}

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    conv.Messages(),
			Temperature: uc.cfg.Temperature,
		})
		if err != nil {
			return nil, &entity.UpstreamError{Op: "llm chat", Err: err}
		}
		reply := resp.Message.Content
		conv.AddReply(reply)
		uc.progress.ShowReply(ctx, reply)

		action, err := parser.Parse(reply)
		if err != nil {
			result.ParseFailures++
			log.Warn("Model reply could not be parsed", "step", step, "error", err)
			uc.metrics.ParseFailed()
			uc.progress.ShowParseFailure(ctx, err)
			if err := conv.AddCorrection(correctionReason(err)); err != nil {
				return nil, err
			}
			continue
		}

		log.Info("Dispatching action", "step", step, "action", action.String())
		uc.metrics.ActionDispatched(action.Kind)
		uc.progress.ShowAction(ctx, action)

		signal, err := disp.Dispatch(ctx, page, action)
		if errors.Is(err, entity.ErrFinishBeforeSubmit) {
			if err := conv.AddPrematureFinish(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if signal == entity.SignalFinish {
			uc.settle(ctx)
			result.Reason = entity.ReasonFinished
			break
		}
	}

	if result.Reason == entity.ReasonExhausted {
		log.Warn("Step budget exhausted without finish", "max_steps", uc.cfg.MaxSteps)
	}

	result.Submitted = disp.Submitted()
	result.FinalURL = page.CurrentURL()

	if uc.cfg.ScreenshotOnFinish {
		shot, err := page.Screenshot(ctx)
		if err != nil {
			log.Warn("Final screenshot failed", "error", err)
		} else {
			result.Screenshot = shot
		}
	}

	return result, nil
}

// settle waits for the page to finish any transition triggered by submit.
// A cancelled context cuts the wait short.
func (uc *UseCase) settle(ctx context.Context) {
	if uc.cfg.SettleDelay == 0 {
		return
	}
	timer := time.NewTimer(uc.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func correctionReason(err error) string {
	var pe *entity.ParseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return fmt.Sprint(err)
}
