// Package snapshot renders the interactive part of a page as the textual
// view the model works from.
package snapshot

import (
	"context"
	"strings"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var attrEscaper = strings.NewReplacer(`"`, "&quot;", "\n", " ", "\r", " ")

// Capture reads the live page and renders it. Nothing is cached: every call
// reflects the DOM as it is now.
func Capture(ctx context.Context, page output.BrowserPort) (string, error) {
	elements, err := page.Elements(ctx)
	if err != nil {
		return "", &entity.UpstreamError{Op: "snapshot page", Err: err}
	}
	return Render(elements), nil
}

// Render formats descriptors one per line as
// <tag type="…" name="…" value="…">label</tag>.
func Render(elements []entity.ElementDescriptor) string {
	var sb strings.Builder
	for i, el := range elements {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeLine(&sb, el)
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, el entity.ElementDescriptor) {
	value := el.Value
	if !el.Tag.HasValue() {
		value = ""
	}

	sb.WriteByte('<')
	sb.WriteString(string(el.Tag))
	sb.WriteString(` type="`)
	sb.WriteString(attrEscaper.Replace(el.Type))
	sb.WriteString(`" name="`)
	sb.WriteString(attrEscaper.Replace(el.Name))
	sb.WriteString(`" value="`)
	sb.WriteString(attrEscaper.Replace(value))
	sb.WriteString(`">`)
	sb.WriteString(strings.TrimSpace(el.Label))
	sb.WriteString("</")
	sb.WriteString(string(el.Tag))
	sb.WriteByte('>')
}
