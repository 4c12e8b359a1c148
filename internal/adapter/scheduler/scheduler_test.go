package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRunner struct {
	calls   atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	hold    time.Duration
	err     error
}

func (r *countingRunner) Run(ctx context.Context, o entity.Objective) (*entity.RunResult, error) {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)
	r.calls.Add(1)

	select {
	case <-time.After(r.hold):
	case <-ctx.Done():
	}
	if r.err != nil {
		return nil, r.err
	}
	return &entity.RunResult{RunID: "r", Reason: entity.ReasonFinished}, nil
}

func staticSource() (entity.Objective, error) {
	return entity.Objective{FirstName: "Ann", LastName: "Lee"}, nil
}

func startFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, s.Start(ctx))
}

func TestScheduler_RunsOnEveryTick(t *testing.T) {
	runner := &countingRunner{}
	startFor(t, New(runner, logger.NewNop(), 10*time.Millisecond, staticSource), 100*time.Millisecond)

	assert.GreaterOrEqual(t, runner.calls.Load(), int32(3))
}

func TestScheduler_SkipsOverlappingTicks(t *testing.T) {
	runner := &countingRunner{hold: 60 * time.Millisecond}
	startFor(t, New(runner, logger.NewNop(), 10*time.Millisecond, staticSource), 150*time.Millisecond)

	assert.False(t, runner.overlap.Load())
	assert.LessOrEqual(t, runner.calls.Load(), int32(3))
	assert.GreaterOrEqual(t, runner.calls.Load(), int32(1))
}

func TestScheduler_FailuresAreNotFatal(t *testing.T) {
	runner := &countingRunner{err: &entity.UpstreamError{Op: "llm chat", Err: errors.New("down")}}
	startFor(t, New(runner, logger.NewNop(), 10*time.Millisecond, staticSource), 80*time.Millisecond)

	assert.GreaterOrEqual(t, runner.calls.Load(), int32(2))
}

func TestScheduler_SourceErrorSkipsRun(t *testing.T) {
	runner := &countingRunner{}
	source := func() (entity.Objective, error) { return entity.Objective{}, entity.ErrInvalidObjective }
	startFor(t, New(runner, logger.NewNop(), 10*time.Millisecond, source), 50*time.Millisecond)

	assert.Zero(t, runner.calls.Load())
}

func TestScheduler_WaitsForInFlightRun(t *testing.T) {
	runner := &countingRunner{hold: time.Hour}
	s := New(runner, logger.NewNop(), 5*time.Millisecond, staticSource)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.active.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, runner.active.Load())
}
