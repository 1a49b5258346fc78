// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - the interactive persona session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/conversation"
	"github.com/jcluts/personachat/internal/llm"
	"github.com/jcluts/personachat/internal/speech"
)

// HandleChatCommand runs an interactive session until the user quits, input
// ends, the model call fails or ctx is cancelled.
func HandleChatCommand(ctx context.Context, args Args, s Streams) error {
	sess, err := openSession(args)
	if err != nil {
		return err
	}
	defer sess.close()
	r := sess.Resolved

	client, err := newLLMClient(r, sess.Logger)
	if err != nil {
		return err
	}

	var speaker conversation.Speaker
	if r.Settings.UseTTS {
		speaker = newSpeechClient(r, s.Player, sess.Logger)
	}

	out := &presenter{out: s.Stdout, errOut: s.Stderr}
	if r.Settings.MarkdownEnabled() && s.Stdout == os.Stdout && IsStdoutTTY() {
		out.markdown = newMarkdownRenderer(min(GetTerminalWidth()-4, 100))
	}

	if !args.Quiet {
		printWelcome(s, r)
	}
	fmt.Fprintf(s.Stdout, "\n%s\n\n", SceneStyle.Render(WrapText(sess.Prompt.Context, GetTerminalWidth())))

	input := s.Input
	if input == nil {
		editor := NewLineEditor(defaultHistoryFile())
		defer func() {
			if err := editor.Close(); err != nil {
				sess.Logger.Warn("failed to save input history", zap.Error(err))
			}
		}()
		input = editor
	}

	loop := &conversation.Loop{
		System:        sess.Prompt.System,
		ExpertName:    r.Expert.Name,
		UserName:      r.User.Name,
		HistoryLength: r.Settings.HistoryLength,
		LLM:           client,
		Speaker:       speaker,
		VoiceID:       r.VoiceID,
		Out:           out,
		Logger:        sess.Logger,
	}

	sess.Logger.Info("session started",
		zap.String("model", client.Model()),
		zap.String("key", client.KeyFingerprint()))

	h, err := loop.Run(ctx, input)
	sess.Logger.Info("session ended", zap.Int("history", h.Len()), zap.Error(err))

	if errors.Is(err, context.Canceled) {
		out.Notice(conversation.NoticeExit)
		return nil
	}
	return err
}

func newLLMClient(r *config.Resolved, logger *zap.Logger) (*llm.Client, error) {
	client, err := llm.New(r.Provider, r.LLMKey)
	if err != nil {
		return nil, &config.ConfigError{Reason: "invalid provider " + r.ProviderID, Err: err}
	}
	return client.WithTimeout(r.RequestTimeout()).WithLogger(logger), nil
}

func newSpeechClient(r *config.Resolved, player speech.Player, logger *zap.Logger) *speech.Client {
	if player == nil {
		player = speech.MP3Player{}
	}
	return speech.New(r.TTSKey, player).
		WithBaseURL(r.Settings.TTSBaseURL).
		WithModel(r.Settings.TTSModel).
		WithTimeout(r.RequestTimeout()).
		WithLogger(logger)
}

// printWelcome shows who is talking and how to leave.
func printWelcome(s Streams, r *config.Resolved) {
	fmt.Fprintln(s.Stdout, RenderTitle("personachat "+Version))
	fmt.Fprintf(s.Stdout, "%s %s\n", RenderLabel("Talking to"), ExpertNameStyle.Render(r.Expert.Name))
	fmt.Fprintf(s.Stdout, "%s %s\n", RenderLabel("As"), UserNameStyle.Render(r.User.Name))
	fmt.Fprintf(s.Stdout, "%s %s\n", RenderLabel("Model"), ValueStyle.Render(r.ProviderID+" / "+r.Model))
	if r.Settings.UseTTS {
		fmt.Fprintf(s.Stdout, "%s %s\n", RenderLabel("Voice"), ValueStyle.Render(r.VoiceName))
	}
	fmt.Fprintln(s.Stdout, DimStyle.Render("Type quit to leave, rb to undo the last exchange, reset to start over."))
}
