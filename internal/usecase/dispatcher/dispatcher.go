// Package dispatcher applies parsed actions to the live page.
package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

// FinishPolicy decides what happens to a finish action that arrives before
// the submit control has been clicked.
type FinishPolicy string

const (
	PolicyTrust  FinishPolicy = "trust"
	PolicyWarn   FinishPolicy = "warn"
	PolicyReject FinishPolicy = "reject"
)

func ParseFinishPolicy(s string) (FinishPolicy, error) {
	switch p := FinishPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyWarn, nil
	case PolicyTrust, PolicyWarn, PolicyReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown finish policy %q (want trust, warn or reject)", s)
	}
}

type Options struct {
	SubmitName string
	Policy     FinishPolicy
}

// Dispatcher carries the per-run submitted flag, so each run gets its own.
// Handlers come from a registry that may be shared between runs.
type Dispatcher struct {
	registry  output.ActionRegistry
	logger    output.LoggerPort
	opts      Options
	submitted bool
}

func New(registry output.ActionRegistry, logger output.LoggerPort, opts Options) *Dispatcher {
	if opts.Policy == "" {
		opts.Policy = PolicyWarn
	}
	return &Dispatcher{registry: registry, logger: logger, opts: opts}
}

// Submitted reports whether a click on the submit control has succeeded.
func (d *Dispatcher) Submitted() bool {
	return d.submitted
}

// Dispatch runs the handler for action. Element resolution failures come
// back unchanged; other page failures are wrapped as *entity.UpstreamError.
// Under PolicyReject a premature finish returns ErrFinishBeforeSubmit with
// SignalContinue.
func (d *Dispatcher) Dispatch(ctx context.Context, page output.BrowserPort, action entity.Action) (entity.Signal, error) {
	handler, ok := d.registry.Get(action.Kind)
	if !ok || action.Kind == entity.ActionUnknown {
		d.logger.Warn("Ignoring unknown action", "action", action.Raw)
		return entity.SignalContinue, nil
	}

	if action.Kind == entity.ActionFinish && !d.submitted {
		switch d.opts.Policy {
		case PolicyReject:
			d.logger.Warn("Rejecting finish before submit", "submit_name", d.opts.SubmitName)
			return entity.SignalContinue, entity.ErrFinishBeforeSubmit
		case PolicyWarn:
			d.logger.Warn("Finishing without a recorded submit", "submit_name", d.opts.SubmitName)
		}
	}

	if target, ok := targetOf(action); ok && strings.TrimSpace(target) == "" {
		return entity.SignalContinue, &entity.ElementNotFoundError{Kind: action.Kind, Target: target}
	}

	signal, err := handler.Handle(ctx, page, action)
	if err != nil {
		if entity.IsElementNotFound(err) {
			return entity.SignalContinue, err
		}
		return entity.SignalContinue, &entity.UpstreamError{Op: "dispatch " + string(action.Kind), Err: err}
	}

	if action.Kind == entity.ActionClick && d.isSubmit(action.Name) {
		d.submitted = true
		d.logger.Debug("Submit control clicked", "name", action.Name)
	}

	return signal, nil
}

// targetOf returns the key an element-bound action is resolved by. A blank
// key would match unlabeled elements, so it never reaches the page.
func targetOf(action entity.Action) (string, bool) {
	switch action.Kind {
	case entity.ActionFill, entity.ActionSelect:
		return action.Label, true
	case entity.ActionClick:
		return action.Name, true
	default:
		return "", false
	}
}

func (d *Dispatcher) isSubmit(name string) bool {
	if d.opts.SubmitName == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(d.opts.SubmitName))
}
