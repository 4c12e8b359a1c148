// Package playwright drives Chromium through Playwright. Targets are
// resolved with the shared domscript rules, like the rod driver.
package playwright

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/browser/domscript"
	"form-agent/internal/infrastructure/browser/imageutil"
)

var (
	_ output.BrowserLauncher = (*Launcher)(nil)
	_ output.BrowserPort     = (*Adapter)(nil)
)

type Config struct {
	Headless bool
	// Install downloads the driver and browsers before the first launch.
	Install   bool
	TimeoutMs float64
}

// Launcher starts one Playwright driver and browser per session.
type Launcher struct {
	cfg         Config
	installOnce sync.Once
	installErr  error
}

func NewLauncher(cfg Config) *Launcher {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 10000
	}
	return &Launcher{cfg: cfg}
}

func (l *Launcher) Open(ctx context.Context) (output.BrowserPort, error) {
	if l.cfg.Install {
		l.installOnce.Do(func() {
			l.installErr = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
		})
		if l.installErr != nil {
			return nil, fmt.Errorf("install pw failed: %w", l.installErr)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(l.cfg.TimeoutMs)
	page.SetDefaultNavigationTimeout(l.cfg.TimeoutMs)

	return &Adapter{pw: pw, browser: browser, page: page}, nil
}

type Adapter struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	closeOnce sync.Once
	closeErr  error
}

func (a *Adapter) Navigate(_ context.Context, url string) error {
	if _, err := a.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (a *Adapter) Elements(_ context.Context) ([]entity.ElementDescriptor, error) {
	result, err := a.page.Evaluate(domscript.Describe, entity.ElementSelector)
	if err != nil {
		return nil, fmt.Errorf("js evaluation failed: %w", err)
	}
	raw, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("expected string from js, got %T", result)
	}

	var elements []entity.ElementDescriptor
	if err := json.UnmarshalFromString(raw, &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return elements, nil
}

const targetAttr = "data-form-agent-target"

// The shared scripts take positional arguments and a bound element; Playwright
// passes a single argument and the element first, so they are adapted here.
// Matches are tagged with a per-lookup token and then addressed by locator.
var (
	markScript = "([kind, key, role, token]) => {" +
		" document.querySelectorAll('[" + targetAttr + "]').forEach((el) => el.removeAttribute('" + targetAttr + "'));" +
		" const found = (" + domscript.Locate + ")(kind, key, role);" +
		" found.forEach((el) => el.setAttribute('" + targetAttr + "', token));" +
		" return found.length; }"
	selectScript = "(el, option) => (" + domscript.SelectOption + ").call(el, option)"
)

// locate resolves targets with the same label and name rules the snapshot
// uses, so a label the model read is the label that gets matched.
func (a *Adapter) locate(kind entity.ActionKind, key, role string) (playwright.Locator, error) {
	token := uuid.NewString()
	if _, err := a.page.Evaluate(markScript, []string{string(kind), key, role, token}); err != nil {
		return nil, fmt.Errorf("locate %s %q: %w", kind, key, err)
	}

	loc := a.page.Locator(fmt.Sprintf(`[%s="%s"]`, targetAttr, token))
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("count %s targets: %w", kind, err)
	}
	if n != 1 {
		return nil, &entity.ElementNotFoundError{Kind: kind, Target: key, Matches: n}
	}
	return loc, nil
}

func (a *Adapter) Fill(_ context.Context, label, value string) error {
	loc, err := a.locate(entity.ActionFill, label, "")
	if err != nil {
		return err
	}
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (a *Adapter) Select(_ context.Context, label, option string) error {
	loc, err := a.locate(entity.ActionSelect, label, "")
	if err != nil {
		return err
	}
	res, err := loc.Evaluate(selectScript, option)
	if err != nil {
		return fmt.Errorf("select failed: %w", err)
	}
	if ok, _ := res.(bool); !ok {
		return &entity.ElementNotFoundError{Kind: entity.ActionSelect, Target: label + " / " + option}
	}
	return nil
}

func (a *Adapter) Click(_ context.Context, role, name string) error {
	loc, err := a.locate(entity.ActionClick, name, role)
	if err != nil {
		return err
	}
	if err := loc.Click(); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	state := playwright.LoadState("load")
	_ = a.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: &state})
	return nil
}

func (a *Adapter) Screenshot(_ context.Context) (*entity.Screenshot, error) {
	buf, err := a.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return imageutil.Downscale(buf)
}

func (a *Adapter) CurrentURL() string {
	return a.page.URL()
}

func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		if a.browser != nil {
			a.closeErr = a.browser.Close()
		}
		if a.pw != nil {
			if err := a.pw.Stop(); err != nil && a.closeErr == nil {
				a.closeErr = err
			}
		}
	})
	return a.closeErr
}
