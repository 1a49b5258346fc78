// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"
)

// TemplateError reports a malformed template or a slot with no value.
type TemplateError struct {
	Name   string // which template, e.g. "instruction set"
	Slot   string // offending slot name, if any
	Offset int    // byte offset into the template
	Reason string
}

func (e *TemplateError) Error() string {
	var b strings.Builder
	b.WriteString("template")
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	fmt.Fprintf(&b, ": %s at offset %d", e.Reason, e.Offset)
	return b.String()
}

// Render substitutes every {slot} in tmpl with values[slot].
func Render(tmpl string, values map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(tmpl[i+1:], "{}")
			if end < 0 || tmpl[i+1+end] == '{' {
				return "", &TemplateError{Offset: i, Reason: "unbalanced '{'"}
			}
			slot := tmpl[i+1 : i+1+end]
			if !isIdentifier(slot) {
				return "", &TemplateError{Slot: slot, Offset: i, Reason: fmt.Sprintf("invalid slot {%s}", slot)}
			}
			v, ok := values[slot]
			if !ok {
				return "", &TemplateError{Slot: slot, Offset: i, Reason: fmt.Sprintf("unknown slot {%s}", slot)}
			}
			out.WriteString(v)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				out.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Offset: i, Reason: "single '}' encountered"}
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

// isIdentifier reports whether s is an ASCII identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
