package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "Submit", cfg.Form.SubmitName)
	assert.Equal(t, 20, cfg.Agent.MaxSteps)
	assert.Equal(t, "warn", cfg.Agent.FinishPolicy)
	assert.Equal(t, 2*time.Second, cfg.Agent.SettleDelay)
	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(2), cfg.Server.MaxConcurrentRuns)
	assert.Zero(t, cfg.Schedule.Interval)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
form:
  url: http://localhost:3000/intake
agent:
  max_steps: 12
  finish_policy: reject
  settle_delay: 500ms
browser:
  driver: static
schedule:
  interval: 1h
  objective_file: objective.yaml
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/intake", cfg.Form.URL)
	assert.Equal(t, 12, cfg.Agent.MaxSteps)
	assert.Equal(t, "reject", cfg.Agent.FinishPolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.SettleDelay)
	assert.Equal(t, "static", cfg.Browser.Driver)
	assert.Equal(t, time.Hour, cfg.Schedule.Interval)
	assert.Equal(t, "Submit", cfg.Form.SubmitName, "defaults fill the gaps")
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORM_AGENT_FORM_URL", "http://form.local")
	t.Setenv("FORM_AGENT_AGENT_MAX_STEPS", "7")
	t.Setenv("FORM_AGENT_BROWSER_HEADLESS", "false")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENROUTER_MODEL_NAME", "anthropic/claude-3.5-haiku")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://form.local", cfg.Form.URL)
	assert.Equal(t, 7, cfg.Agent.MaxSteps)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "sk-or-test", cfg.LLM.APIKey)
	assert.Equal(t, "anthropic/claude-3.5-haiku", cfg.LLM.Model)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORM_AGENT_LLM_API_KEY", "prefixed")
	t.Setenv("OPENROUTER_API_KEY", "bare")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLM.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Form.URL = "http://form.local"
		cfg.LLM.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no url", func(c *Config) { c.Form.URL = "" }, "form.url is required"},
		{"no key", func(c *Config) { c.LLM.APIKey = "" }, "llm.api_key is required"},
		{"bad driver", func(c *Config) { c.Browser.Driver = "selenium" }, `browser.driver "selenium"`},
		{"bad provider", func(c *Config) { c.LLM.Provider = "gemini" }, `llm.provider "gemini"`},
		{"bad policy", func(c *Config) { c.Agent.FinishPolicy = "maybe" }, `agent.finish_policy "maybe"`},
		{"policy case", func(c *Config) { c.Agent.FinishPolicy = "Reject" }, ""},
		{"zero steps", func(c *Config) { c.Agent.MaxSteps = 0 }, "agent.max_steps"},
		{"schedule without file", func(c *Config) { c.Schedule.Interval = time.Minute }, "schedule.objective_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
