// Package domscript holds the page-side scripts and selectors every driver
// shares, so snapshots and element lookups agree on labels and names.
//
// Label of a field: text of label[for=id], else the element's own text.
// Name of a button: aria-label, else own text, else the value attribute.
// Text is whitespace-collapsed and trimmed. Lookups are exact.
package domscript

import (
	_ "embed"
	"strings"
)

// Describe is a function (selector) => JSON string of element descriptors.
//
//go:embed describe.js
var Describe string

// Locate is a function (kind, key, role) => Element[] of the candidates
// whose label or accessible name equals key.
//
//go:embed locate.js
var Locate string

// SelectOption runs on a select element with the option text as its
// argument and reports whether an option matched.
//
//go:embed select.js
var SelectOption string

const (
	FillSelector   = `input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="reset"]), textarea`
	SelectSelector = `select`
	ButtonSelector = `button, input[type="submit"], input[type="button"], input[type="reset"], [role="button"]`
)

// Collapse normalises text the way the scripts do.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
