package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidObjective   = errors.New("invalid objective")
	ErrNoJSON             = errors.New("no JSON object found in reply")
	ErrFinishBeforeSubmit = errors.New("finish requested before the form was submitted")
	ErrSessionClosed      = errors.New("browser session closed")
)

// ParseError marks a model reply that could not be turned into an action.
// The run survives it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse action: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ElementNotFoundError is returned when a dispatch target does not resolve
// to exactly one element.
type ElementNotFoundError struct {
	Kind    ActionKind
	Target  string
	Matches int
}

func (e *ElementNotFoundError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("%s: no element matches %q", e.Kind, e.Target)
	}
	return fmt.Sprintf("%s: %d elements match %q, expected exactly one", e.Kind, e.Matches, e.Target)
}

// UpstreamError wraps failures of the model or browser collaborators.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func IsElementNotFound(err error) bool {
	var ne *ElementNotFoundError
	return errors.As(err, &ne)
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
