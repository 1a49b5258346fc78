// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - terminal detection for personachat.
//
// Interactive terminals get colors and markdown rendering; piped output gets
// plain text.
package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jcluts/personachat/internal/util"
)

// stdoutFd is probed for size and color support.
var stdoutFd = int(os.Stdout.Fd())

// IsStdoutTTY reports whether stdout is an interactive terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(stdoutFd)
}

// Wrapping bounds in columns.
const (
	fallbackWidth  = 80
	narrowestWidth = 40
)

// GetTerminalWidth returns the stdout column count, at least narrowestWidth.
// Piped output gets fallbackWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(stdoutFd)
	switch {
	case err != nil || width <= 0:
		return fallbackWidth
	case width < narrowestWidth:
		return narrowestWidth
	}
	return width
}

// WrapText wraps text at word boundaries to fit maxWidth display columns.
// Existing newlines are kept. Wide characters count as two columns.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = GetTerminalWidth()
	}
	if maxWidth > 10 {
		maxWidth -= 2
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if util.StringWidth(line) <= maxWidth {
			result.WriteString(line)
			continue
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		width := util.StringWidth(current)
		for _, word := range words[1:] {
			w := util.StringWidth(word)
			if width+1+w <= maxWidth {
				current += " " + word
				width += 1 + w
				continue
			}
			result.WriteString(current)
			result.WriteString("\n")
			current, width = word, w
		}
		result.WriteString(current)
	}
	return result.String()
}

// GetColorProfile returns the profile for lipgloss. NO_COLOR
// (https://no-color.org/) wins over FORCE_COLOR; otherwise only a terminal
// gets colors.
func GetColorProfile() termenv.Profile {
	return colorProfile()
}

var colorProfile = sync.OnceValue(func() termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.NewOutput(os.Stdout, termenv.WithUnsafe()).ColorProfile()
	case !IsStdoutTTY():
		return termenv.Ascii
	}
	return termenv.ColorProfile()
})
