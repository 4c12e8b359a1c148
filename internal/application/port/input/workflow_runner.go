package input

import (
	"context"

	"form-agent/internal/domain/entity"
)

type WorkflowRunner interface {
	Run(ctx context.Context, objective entity.Objective) (*entity.RunResult, error)
}
