package output

import (
	"context"

	"form-agent/internal/domain/entity"
)

// ActionHandler executes one action kind against the page.
type ActionHandler interface {
	Kind() entity.ActionKind
	Handle(ctx context.Context, page BrowserPort, action entity.Action) (entity.Signal, error)
}

type ActionRegistry interface {
	Register(handler ActionHandler)
	Get(kind entity.ActionKind) (ActionHandler, bool)
	Kinds() []entity.ActionKind
}
