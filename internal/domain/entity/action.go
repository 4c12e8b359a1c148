package entity

import "fmt"

type ActionKind string

const (
	ActionFill    ActionKind = "fill"
	ActionClick   ActionKind = "click"
	ActionSelect  ActionKind = "select"
	ActionFinish  ActionKind = "finish"
	ActionUnknown ActionKind = "unknown"
)

// Action is a single instruction decoded from a model reply. Raw keeps the
// action name the model actually sent, which differs from Kind for unknown
// actions.
type Action struct {
	Kind  ActionKind
	Raw   string
	Label string
	Value string
	Role  string
	Name  string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionFill, ActionSelect:
		return fmt.Sprintf("%s %q = %q", a.Kind, a.Label, a.Value)
	case ActionClick:
		return fmt.Sprintf("click %s %q", a.Role, a.Name)
	case ActionFinish:
		return "finish"
	default:
		return fmt.Sprintf("unknown %q", a.Raw)
	}
}

// Signal tells the loop controller what to do after a dispatch.
type Signal int

const (
	SignalContinue Signal = iota
	SignalFinish
)
