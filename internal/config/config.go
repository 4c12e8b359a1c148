// Package config loads the typed application configuration from an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "FORM_AGENT"

type Config struct {
	Form     FormConfig     `mapstructure:"form" yaml:"form"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
}

type FormConfig struct {
	URL        string `mapstructure:"url" yaml:"url"`
	SubmitName string `mapstructure:"submit_name" yaml:"submit_name"`
}

type AgentConfig struct {
	MaxSteps     int           `mapstructure:"max_steps" yaml:"max_steps"`
	FinishPolicy string        `mapstructure:"finish_policy" yaml:"finish_policy"`
	SettleDelay  time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	Temperature  float32       `mapstructure:"temperature" yaml:"temperature"`
	// SystemPromptFile replaces the built-in system prompt template.
	SystemPromptFile string `mapstructure:"system_prompt_file" yaml:"system_prompt_file"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Model             string        `mapstructure:"model" yaml:"model"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

type BrowserConfig struct {
	Driver             string        `mapstructure:"driver" yaml:"driver"`
	Headless           bool          `mapstructure:"headless" yaml:"headless"`
	NoSandbox          bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	Bin                string        `mapstructure:"bin" yaml:"bin"`
	SlowMotion         time.Duration `mapstructure:"slow_motion" yaml:"slow_motion"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ScreenshotOnFinish bool          `mapstructure:"screenshot_on_finish" yaml:"screenshot_on_finish"`
	InstallPlaywright  bool          `mapstructure:"install_playwright" yaml:"install_playwright"`
}

type NetworkConfig struct {
	ProxyURL string `mapstructure:"proxy_url" yaml:"proxy_url"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	MaxConcurrentRuns int64         `mapstructure:"max_concurrent_runs" yaml:"max_concurrent_runs"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type ScheduleConfig struct {
	// Interval of zero disables the periodic trigger.
	Interval      time.Duration `mapstructure:"interval" yaml:"interval"`
	ObjectiveFile string        `mapstructure:"objective_file" yaml:"objective_file"`
}

var (
	drivers   = []string{"rod", "playwright", "static"}
	providers = []string{"openrouter", "langchain"}
	policies  = []string{"trust", "warn", "reject"}
)

// SetDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("form.url", "")
	v.SetDefault("form.submit_name", "Submit")

	v.SetDefault("agent.max_steps", 20)
	v.SetDefault("agent.finish_policy", "warn")
	v.SetDefault("agent.settle_delay", "2s")
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.system_prompt_file", "")

	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "openai/gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.max_retries", 4)
	v.SetDefault("llm.retry_delay", "3s")

	v.SetDefault("browser.driver", "rod")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.slow_motion", "0s")
	v.SetDefault("browser.timeout", "10s")
	v.SetDefault("browser.screenshot_on_finish", false)
	v.SetDefault("browser.install_playwright", false)

	v.SetDefault("network.proxy_url", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.dir", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_concurrent_runs", 2)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("schedule.interval", "0s")
	v.SetDefault("schedule.objective_file", "")
}

// Load reads cfgFile (or ./config.yaml when empty and present) and the
// FORM_AGENT_* environment. OPENROUTER_API_KEY and OPENROUTER_MODEL_NAME
// are honoured as fallbacks for the LLM settings.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("llm.model", EnvPrefix+"_LLM_MODEL", "OPENROUTER_MODEL_NAME")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig returns the configuration with only defaults applied.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the settings needed to run a workflow.
func (c *Config) Validate() error {
	var errs []error
	if c.Form.URL == "" {
		errs = append(errs, errors.New("form.url is required"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required (or OPENROUTER_API_KEY)"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if !oneOf(c.LLM.Provider, providers) {
		errs = append(errs, fmt.Errorf("llm.provider %q must be one of %s", c.LLM.Provider, strings.Join(providers, ", ")))
	}
	if !oneOf(c.Browser.Driver, drivers) {
		errs = append(errs, fmt.Errorf("browser.driver %q must be one of %s", c.Browser.Driver, strings.Join(drivers, ", ")))
	}
	if !oneOf(c.Agent.FinishPolicy, policies) {
		errs = append(errs, fmt.Errorf("agent.finish_policy %q must be one of %s", c.Agent.FinishPolicy, strings.Join(policies, ", ")))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, errors.New("agent.max_steps must be at least 1"))
	}
	if c.Schedule.Interval > 0 && c.Schedule.ObjectiveFile == "" {
		errs = append(errs, errors.New("schedule.objective_file is required when schedule.interval is set"))
	}
	return errors.Join(errs...)
}

func oneOf(s string, allowed []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
