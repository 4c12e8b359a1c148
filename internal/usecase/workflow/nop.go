package workflow

import (
	"context"
	"time"

	"form-agent/internal/domain/entity"
)

type nopMetrics struct{}

func (nopMetrics) RunCompleted(entity.CompletionReason, time.Duration) {}
func (nopMetrics) RunFailed(error, time.Duration)                      {}
func (nopMetrics) StepStarted()                                        {}
func (nopMetrics) ParseFailed()                                        {}
func (nopMetrics) ActionDispatched(entity.ActionKind)                  {}

type nopProgress struct{}

func (nopProgress) ShowStep(context.Context, int, int)                   {}
func (nopProgress) ShowReply(context.Context, string)                    {}
func (nopProgress) ShowAction(context.Context, entity.Action)            {}
func (nopProgress) ShowParseFailure(context.Context, error)              {}
func (nopProgress) ShowResult(context.Context, *entity.RunResult, error) {}
