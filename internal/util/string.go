// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateRunes truncates s to at most maxRunes characters, ending with
// "..." when something was cut. Counts runes, never splits a UTF-8 sequence.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// StringWidth returns the number of terminal columns s occupies.
// East Asian wide characters count as two.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Rule returns a horizontal line as wide as title, for underlining headers.
func Rule(title string) string {
	w := StringWidth(title)
	if w <= 0 {
		return ""
	}
	return strings.Repeat("─", w)
}
