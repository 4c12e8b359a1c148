package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"form-agent/internal/config"
	"form-agent/internal/infrastructure/browser/playwright"
	"form-agent/internal/infrastructure/browser/rod"
	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/llm/langchain"
	"form-agent/internal/infrastructure/llm/openrouter"
)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Form.URL = "http://form.local"
	cfg.LLM.APIKey = "key"
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) (*Container, error) {
	t.Helper()
	c, err := NewContainer(cfg, Options{Console: zapcore.AddSync(os.Stderr)})
	if c != nil {
		t.Cleanup(c.Close)
	}
	return c, err
}

func TestNewContainer_Drivers(t *testing.T) {
	tests := []struct {
		driver string
		check  func(t *testing.T, c *Container)
	}{
		{"rod", func(t *testing.T, c *Container) { assert.IsType(t, &rod.Launcher{}, c.Launcher) }},
		{"playwright", func(t *testing.T, c *Container) { assert.IsType(t, &playwright.Launcher{}, c.Launcher) }},
		{"static", func(t *testing.T, c *Container) { assert.IsType(t, &static.Launcher{}, c.Launcher) }},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := testConfig()
			cfg.Browser.Driver = tt.driver

			c, err := newTestContainer(t, cfg)
			require.NoError(t, err)
			tt.check(t, c)
			assert.NotNil(t, c.Workflow)
			assert.NotNil(t, c.Metrics)
			assert.ElementsMatch(t, []string{"click", "fill", "finish", "select"}, kindNames(c))
		})
	}
}

func kindNames(c *Container) []string {
	var names []string
	for _, k := range c.Registry.Kinds() {
		names = append(names, string(k))
	}
	return names
}

func TestNewContainer_Providers(t *testing.T) {
	cfg := testConfig()
	c, err := newTestContainer(t, cfg)
	require.NoError(t, err)
	assert.IsType(t, &openrouter.OpenRouterAdapter{}, c.LLM)

	cfg = testConfig()
	cfg.LLM.Provider = "langchain"
	c, err = newTestContainer(t, cfg)
	require.NoError(t, err)
	assert.IsType(t, &langchain.Adapter{}, c.LLM)
}

func TestNewContainer_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Browser.Driver = "selenium"
	_, err := newTestContainer(t, cfg)
	assert.ErrorContains(t, err, "unknown browser driver")

	cfg = testConfig()
	cfg.Agent.FinishPolicy = "sometimes"
	_, err = newTestContainer(t, cfg)
	assert.ErrorContains(t, err, "unknown finish policy")

	cfg = testConfig()
	cfg.Network.ProxyURL = "ftp://proxy"
	_, err = newTestContainer(t, cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Agent.SystemPromptFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = newTestContainer(t, cfg)
	assert.ErrorContains(t, err, "system prompt")
}
