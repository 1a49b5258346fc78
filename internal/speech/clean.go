// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"regexp"
	"strings"
)

var actionPattern = regexp.MustCompile(`\*[^*]+\*`)

// CleanText removes every *...* span and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(actionPattern.ReplaceAllString(text, ""))
}
