// Package scheduler runs the workflow on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

// ObjectiveSource yields the record for the next run. It is called on every
// tick so edits to the backing file are picked up.
type ObjectiveSource func() (entity.Objective, error)

type Scheduler struct {
	runner   input.WorkflowRunner
	logger   output.LoggerPort
	interval time.Duration
	source   ObjectiveSource

	running atomic.Bool
	wg      sync.WaitGroup
}

func New(runner input.WorkflowRunner, logger output.LoggerPort, interval time.Duration, source ObjectiveSource) *Scheduler {
	return &Scheduler{
		runner:   runner,
		logger:   logger.WithField("component", "scheduler"),
		interval: interval,
		source:   source,
	}
}

// Start blocks until ctx is cancelled and the in-flight run has returned.
// Failed runs are logged. A tick that arrives while a run is still going is
// skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous run still in progress, skipping tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.runOnce(ctx)
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	objective, err := s.source()
	if err != nil {
		s.logger.Error("Loading objective failed", "error", err)
		return
	}

	result, err := s.runner.Run(ctx, objective)
	if err != nil {
		s.logger.Error("Scheduled run failed", "error", err)
		return
	}
	s.logger.Info("Scheduled run completed", "run_id", result.RunID, "reason", result.Reason, "steps", result.Steps)
}
