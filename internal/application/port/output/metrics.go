package output

import (
	"time"

	"form-agent/internal/domain/entity"
)

type MetricsPort interface {
	RunCompleted(reason entity.CompletionReason, d time.Duration)
	RunFailed(err error, d time.Duration)
	StepStarted()
	ParseFailed()
	ActionDispatched(kind entity.ActionKind)
}
