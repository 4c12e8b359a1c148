package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	json "github.com/json-iterator/go"
	"github.com/ysmood/gson"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/browser/domscript"
	"form-agent/internal/infrastructure/browser/imageutil"
)

var (
	_ output.BrowserLauncher = (*Launcher)(nil)
	_ output.BrowserPort     = (*BrowserAdapter)(nil)
)

var ErrInvalidURL = errors.New("invalid url")

const (
	defaultTimeout    time.Duration = 10 * time.Second
	defaultSlowMotion time.Duration = 0
)

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
	Bin        string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   true,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
	}
}

// Launcher starts a dedicated Chrome process for every session.
type Launcher struct {
	cfg BrowserConfig
}

func NewLauncher(cfg BrowserConfig) *Launcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Launcher{cfg: cfg}
}

func (l *Launcher) Open(ctx context.Context) (output.BrowserPort, error) {
	return NewBrowserAdapter(ctx, l.cfg)
}

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) p(ctx context.Context) *rod.Page {
	return b.page.Context(ctx).Timeout(b.timeout)
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	page := b.p(ctx)
	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	_ = page.WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Elements(ctx context.Context) ([]entity.ElementDescriptor, error) {
	res, err := b.p(ctx).Eval(domscript.Describe, entity.ElementSelector)
	if err != nil {
		return nil, fmt.Errorf("describe elements: %w", err)
	}

	var elements []entity.ElementDescriptor
	if err := json.UnmarshalFromString(res.Value.Str(), &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return elements, nil
}

func (b *BrowserAdapter) locate(ctx context.Context, kind entity.ActionKind, key, role string) (*rod.Element, error) {
	els, err := b.p(ctx).ElementsByJS(rod.Eval(domscript.Locate, string(kind), key, role))
	if err != nil {
		return nil, fmt.Errorf("locate %s %q: %w", kind, key, err)
	}
	if len(els) != 1 {
		return nil, &entity.ElementNotFoundError{Kind: kind, Target: key, Matches: len(els)}
	}
	return els[0], nil
}

func (b *BrowserAdapter) Fill(ctx context.Context, label, value string) error {
	el, err := b.locate(ctx, entity.ActionFill, label, "")
	if err != nil {
		return err
	}

	if _, err := el.Eval(`function () { this.value = '' }`); err != nil {
		return fmt.Errorf("clear field: %w", err)
	}
	if value == "" {
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) Select(ctx context.Context, label, option string) error {
	el, err := b.locate(ctx, entity.ActionSelect, label, "")
	if err != nil {
		return err
	}

	res, err := el.Eval(domscript.SelectOption, option)
	if err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	if !res.Value.Bool() {
		return &entity.ElementNotFoundError{Kind: entity.ActionSelect, Target: label + " / " + option}
	}
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, role, name string) error {
	el, err := b.locate(ctx, entity.ActionClick, name, role)
	if err != nil {
		return err
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	_ = b.p(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.p(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return imageutil.Downscale(imgBytes)
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close shuts the browser and kills the Chrome process. Repeated calls
// return the first result.
func (b *BrowserAdapter) Close() error {
	b.closeOnce.Do(func() {
		if b.browser != nil {
			b.closeErr = b.browser.Close()
		}
		if b.launcher != nil {
			b.launcher.Kill()
			b.launcher.Cleanup()
		}
	})
	return b.closeErr
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
}
