// Package parser turns free-form model replies into actions.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"form-agent/internal/domain/entity"
)

const defaultClickRole = "button"

// Extract returns the greedy brace-delimited span of reply: everything from
// the first '{' to the last '}'.
func Extract(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return reply[start : end+1], true
}

// Parse decodes the action embedded in reply. Objects without a recognised
// "action" field come back as ActionUnknown rather than an error.
func Parse(reply string) (entity.Action, error) {
	raw, ok := Extract(reply)
	if !ok {
		return entity.Action{}, &entity.ParseError{Raw: reply, Err: entity.ErrNoJSON}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return entity.Action{}, &entity.ParseError{Raw: reply, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	name := strings.TrimSpace(str(fields["action"]))
	action := entity.Action{
		Raw:   name,
		Label: str(fields["label"]),
		Value: str(fields["value"]),
		Role:  strings.TrimSpace(str(fields["role"])),
		Name:  str(fields["name"]),
	}

	switch entity.ActionKind(strings.ToLower(name)) {
	case entity.ActionFill:
		action.Kind = entity.ActionFill
	case entity.ActionClick:
		action.Kind = entity.ActionClick
		if action.Role == "" {
			action.Role = defaultClickRole
		}
	case entity.ActionSelect:
		action.Kind = entity.ActionSelect
	case entity.ActionFinish:
		action.Kind = entity.ActionFinish
	default:
		action.Kind = entity.ActionUnknown
	}

	return action, nil
}

// str renders scalar JSON values as text; models sometimes send numbers for
// phone or ID fields.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
