package output

import (
	"context"

	"form-agent/internal/domain/entity"
)

type ProgressPort interface {
	ShowStep(ctx context.Context, step, maxSteps int)
	ShowReply(ctx context.Context, content string)
	ShowAction(ctx context.Context, action entity.Action)
	ShowParseFailure(ctx context.Context, err error)
	ShowResult(ctx context.Context, result *entity.RunResult, err error)
}
