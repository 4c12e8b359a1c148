package dispatcher

import (
	"context"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

type FillHandler struct{}

func (FillHandler) Kind() entity.ActionKind { return entity.ActionFill }

func (FillHandler) Handle(ctx context.Context, page output.BrowserPort, action entity.Action) (entity.Signal, error) {
	return entity.SignalContinue, page.Fill(ctx, action.Label, action.Value)
}

type SelectHandler struct{}

func (SelectHandler) Kind() entity.ActionKind { return entity.ActionSelect }

func (SelectHandler) Handle(ctx context.Context, page output.BrowserPort, action entity.Action) (entity.Signal, error) {
	return entity.SignalContinue, page.Select(ctx, action.Label, action.Value)
}

type ClickHandler struct{}

func (ClickHandler) Kind() entity.ActionKind { return entity.ActionClick }

func (ClickHandler) Handle(ctx context.Context, page output.BrowserPort, action entity.Action) (entity.Signal, error) {
	return entity.SignalContinue, page.Click(ctx, action.Role, action.Name)
}

type FinishHandler struct{}

func (FinishHandler) Kind() entity.ActionKind { return entity.ActionFinish }

func (FinishHandler) Handle(context.Context, output.BrowserPort, entity.Action) (entity.Signal, error) {
	return entity.SignalFinish, nil
}

// DefaultHandlers returns the handlers for every recognised action kind.
func DefaultHandlers() []output.ActionHandler {
	return []output.ActionHandler{
		FillHandler{},
		SelectHandler{},
		ClickHandler{},
		FinishHandler{},
	}
}
