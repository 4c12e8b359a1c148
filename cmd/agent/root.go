package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"form-agent/internal/config"
	"form-agent/internal/infrastructure/env"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	envDir  string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "agent",
		Short:         "LLM-driven agent that fills web forms from a person record.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := env.Load(a.envDir); err != nil {
				return err
			}
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.envDir, "env-dir", ".", "directory holding .env files")
	root.PersistentFlags().String("form.url", "", "URL of the form to fill")
	root.PersistentFlags().String("browser.driver", "", "browser driver: rod, playwright or static")
	root.PersistentFlags().String("agent.finish_policy", "", "finish policy: trust, warn or reject")
	root.PersistentFlags().String("logger.level", "", "log level")

	root.AddCommand(newRunCmd(a), newServeCmd(a))
	return root
}

// validated returns the loaded config after checking it can drive a run.
func (a *app) validated() (*config.Config, error) {
	if a.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return a.cfg, nil
}
