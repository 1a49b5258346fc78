// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/util"
)

// historyFileName holds typed input lines for arrow-key recall. It is not
// the conversation history.
const historyFileName = "input_history"

// LineEditor reads prompt lines with editing and input recall.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor opens the terminal for line editing and loads saved input
// history from historyFile, if any.
func NewLineEditor(historyFile string) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	e := &LineEditor{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return e
}

// defaultHistoryFile returns ~/.personachat/input_history, or "" when the
// home directory is unknown.
func defaultHistoryFile() string {
	dir, err := config.DefaultDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}

// ReadLine shows prompt and returns the typed line. Ctrl-C and Ctrl-D
// return io.EOF.
func (e *LineEditor) ReadLine(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves input history with owner-only permissions and restores the
// terminal.
func (e *LineEditor) Close() error {
	var saveErr error
	if e.historyFile != "" {
		var buf bytes.Buffer
		if _, err := e.line.WriteHistory(&buf); err == nil {
			saveErr = util.AtomicWriteFile(e.historyFile, buf.Bytes(), 0600)
		}
	}
	if err := e.line.Close(); err != nil {
		return err
	}
	return saveErr
}
