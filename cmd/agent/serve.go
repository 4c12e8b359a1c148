package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"form-agent/internal/adapter/httpapi"
	"form-agent/internal/adapter/scheduler"
	"form-agent/internal/di"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/objectivefile"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP trigger and, when configured, the periodic trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.validated()
			if err != nil {
				return err
			}

			container, err := di.NewContainer(cfg, di.Options{LogName: "form-agent-server"})
			if err != nil {
				return fmt.Errorf("initialisation failed: %w", err)
			}
			defer container.Close()

			g, ctx := errgroup.WithContext(cmd.Context())

			server := httpapi.NewServer(container.Workflow, container.Logger, container.Metrics.Handler(), httpapi.Config{
				Addr:              cfg.Server.Addr,
				MaxConcurrentRuns: cfg.Server.MaxConcurrentRuns,
				ShutdownTimeout:   cfg.Server.ShutdownTimeout,
				RequestLog:        true,
			})
			g.Go(func() error { return server.ListenAndServe(ctx) })

			if cfg.Schedule.Interval > 0 {
				path := cfg.Schedule.ObjectiveFile
				sched := scheduler.New(container.Workflow, container.Logger, cfg.Schedule.Interval,
					func() (entity.Objective, error) { return objectivefile.Load(path) })
				g.Go(func() error { return sched.Start(ctx) })
			}

			return g.Wait()
		},
	}
}
