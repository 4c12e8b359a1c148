package di

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/application/service"
	"form-agent/internal/config"
	"form-agent/internal/infrastructure/browser/playwright"
	"form-agent/internal/infrastructure/browser/rod"
	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/llm/langchain"
	"form-agent/internal/infrastructure/llm/openrouter"
	"form-agent/internal/infrastructure/logger"
	"form-agent/internal/infrastructure/metrics"
	"form-agent/internal/infrastructure/transport"
	"form-agent/internal/usecase/dispatcher"
	"form-agent/internal/usecase/workflow"
)

type Container struct {
	Config   *config.Config
	Logger   output.LoggerPort
	LLM      output.LLMPort
	Launcher output.BrowserLauncher
	Registry output.ActionRegistry
	Metrics  *metrics.Prometheus
	Workflow input.WorkflowRunner
}

type Options struct {
	// Progress receives per-step updates; nil leaves the run silent.
	Progress output.ProgressPort
	// Console overrides the logger's console sink (stderr by default).
	Console zapcore.WriteSyncer
	// LogName tags log entries and names the log file.
	LogName string
}

func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	if opts.LogName == "" {
		opts.LogName = "form-agent"
	}
	log, err := logger.New(opts.LogName, logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Dir:        cfg.Logger.Dir,
		MaxSizeMB:  cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
	}, opts.Console)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := build(cfg, log, opts)
	if err != nil {
		log.Close()
		return nil, err
	}
	return c, nil
}

func build(cfg *config.Config, log output.LoggerPort, opts Options) (*Container, error) {
	policy, err := dispatcher.ParseFinishPolicy(cfg.Agent.FinishPolicy)
	if err != nil {
		return nil, err
	}

	systemPrompt := ""
	if cfg.Agent.SystemPromptFile != "" {
		raw, err := os.ReadFile(cfg.Agent.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		systemPrompt = string(raw)
	}

	llmClient, err := transport.NewClient(transport.Config{ProxyURL: cfg.Network.ProxyURL, Timeout: cfg.LLM.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to build llm transport: %w", err)
	}
	llm, err := newLLM(cfg.LLM, llmClient, log)
	if err != nil {
		return nil, err
	}

	pageClient, err := transport.NewClient(transport.Config{ProxyURL: cfg.Network.ProxyURL, Timeout: cfg.Browser.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to build browser transport: %w", err)
	}
	launcher, err := newLauncher(cfg.Browser, pageClient)
	if err != nil {
		return nil, err
	}

	registry := service.NewActionRegistry(dispatcher.DefaultHandlers()...)
	prom := metrics.New()

	wfOpts := []workflow.Option{workflow.WithMetrics(prom)}
	if opts.Progress != nil {
		wfOpts = append(wfOpts, workflow.WithProgress(opts.Progress))
	}

	uc := workflow.New(llm, launcher, registry, log, workflow.Config{
		FormURL:            cfg.Form.URL,
		MaxSteps:           cfg.Agent.MaxSteps,
		SubmitName:         cfg.Form.SubmitName,
		FinishPolicy:       policy,
		SettleDelay:        cfg.Agent.SettleDelay,
		Temperature:        cfg.Agent.Temperature,
		SystemPrompt:       systemPrompt,
		ScreenshotOnFinish: cfg.Browser.ScreenshotOnFinish,
	}, wfOpts...)

	log.Info("Container ready",
		"driver", cfg.Browser.Driver,
		"llm_provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"finish_policy", policy,
		"max_steps", cfg.Agent.MaxSteps,
	)

	return &Container{
		Config:   cfg,
		Logger:   log,
		LLM:      llm,
		Launcher: launcher,
		Registry: registry,
		Metrics:  prom,
		Workflow: uc,
	}, nil
}

func newLLM(cfg config.LLMConfig, client *http.Client, log output.LoggerPort) (output.LLMPort, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openrouter":
		return openrouter.NewOpenRouterAdapter(openrouter.Config{
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			BaseURL:           cfg.BaseURL,
			Logger:            log,
			HTTPClient:        client,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
			RetryDelay:        cfg.RetryDelay,
		}), nil
	case "langchain":
		a, err := langchain.NewOpenAI(langchain.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: client,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newLauncher(cfg config.BrowserConfig, client *http.Client) (output.BrowserLauncher, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "rod":
		bc := rod.DefaultConfig()
		bc.Headless = cfg.Headless
		bc.NoSandbox = cfg.NoSandbox
		bc.Bin = cfg.Bin
		bc.SlowMotion = cfg.SlowMotion
		bc.Timeout = cfg.Timeout
		return rod.NewLauncher(bc), nil
	case "playwright":
		return playwright.NewLauncher(playwright.Config{
			Headless:  cfg.Headless,
			Install:   cfg.InstallPlaywright,
			TimeoutMs: float64(cfg.Timeout.Milliseconds()),
		}), nil
	case "static":
		return static.NewLauncher(client), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
