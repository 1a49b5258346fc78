// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jcluts/personachat/internal/logging"
	"github.com/jcluts/personachat/internal/model"
)

// Notices printed by the loop.
const (
	NoticeExit   = "Exiting chatbot."
	NoticeUndo   = "The last two messages have been removed."
	NoticeNoUndo = "Nothing to undo."
	NoticeReset  = "Chat history has been reset."
)

// LineReader reads one line of user input. It returns io.EOF when input ends
// or the user aborts the prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Completer answers a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// Speaker speaks a reply with a voice.
type Speaker interface {
	Speak(ctx context.Context, text, voiceID string) error
}

// Presenter shows loop output to the user.
type Presenter interface {
	Reply(expertName, text string)
	Notice(text string)
	Warn(err error)
}

// Loop holds everything fixed for one session. History is not part of it.
type Loop struct {
	System        model.Message
	ExpertName    string
	UserName      string
	HistoryLength int

	LLM Completer

	// Speaker is consulted after each reply when non-nil.
	Speaker Speaker
	VoiceID string

	Out    Presenter
	Logger *zap.Logger
}

// Prompt is the input prompt shown to the user.
func (l *Loop) Prompt() string {
	return l.UserName + ": "
}

func (l *Loop) logger() *zap.Logger {
	return logging.OrNop(l.Logger)
}

// Step handles one line of input and returns the next history and the state
// that was handled. On an LLM failure the returned history is h unchanged and
// the error ends the session.
func (l *Loop) Step(ctx context.Context, h History, input string) (History, State, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return h, StateAwaitingInput, nil
	}

	switch ParseCommand(input) {
	case CommandQuit:
		l.Out.Notice(NoticeExit)
		return h, StateExit, nil

	case CommandUndo:
		next, ok := h.Undo()
		if !ok {
			l.Out.Notice(NoticeNoUndo)
			return h, StateUndo, nil
		}
		l.Out.Notice(NoticeUndo)
		l.logger().Debug("history undo", zap.Int("entries", next.Len()))
		return next, StateUndo, nil

	case CommandReset:
		l.Out.Notice(NoticeReset)
		l.logger().Debug("history reset", zap.Int("dropped", h.Len()))
		return h.Reset(), StateReset, nil
	}

	return l.turn(ctx, h, input)
}

func (l *Loop) turn(ctx context.Context, h History, input string) (History, State, error) {
	msgs := Outbound(l.System, h, l.HistoryLength, input)
	l.logger().Debug("sending turn",
		zap.Int("messages", len(msgs)),
		zap.Int("history", h.Len()))

	reply, err := l.LLM.Complete(ctx, msgs)
	if err != nil {
		l.logger().Error("chat turn failed", zap.Error(err))
		return h, StateSendTurn, fmt.Errorf("chat turn failed: %w", err)
	}

	l.Out.Reply(l.ExpertName, reply)
	next := h.Append(input, reply)

	if l.Speaker != nil {
		if err := l.Speaker.Speak(ctx, reply, l.VoiceID); err != nil {
			l.logger().Warn("speech failed", zap.Error(err))
			l.Out.Warn(err)
		}
	}
	return next, StateSendTurn, nil
}

// Run reads and handles lines until quit, end of input, an LLM failure or
// cancellation of ctx. It returns the final history.
func (l *Loop) Run(ctx context.Context, in LineReader) (History, error) {
	var h History
	for {
		if err := ctx.Err(); err != nil {
			return h, err
		}

		line, err := in.ReadLine(l.Prompt())
		if errors.Is(err, io.EOF) {
			l.Out.Notice(NoticeExit)
			return h, nil
		}
		if err != nil {
			return h, fmt.Errorf("failed to read input: %w", err)
		}

		var state State
		h, state, err = l.Step(ctx, h, line)
		if err != nil {
			return h, err
		}
		if state == StateExit {
			return h, nil
		}
	}
}

// TextPresenter writes plain text output.
type TextPresenter struct {
	W io.Writer
}

func (p TextPresenter) Reply(expertName, text string) {
	fmt.Fprintf(p.W, "\n%s: %s\n\n", expertName, text)
}

func (p TextPresenter) Notice(text string) {
	fmt.Fprintf(p.W, "\n%s\n\n", text)
}

func (p TextPresenter) Warn(err error) {
	fmt.Fprintf(p.W, "warning: %v\n", err)
}
