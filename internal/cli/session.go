// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/logging"
	"github.com/jcluts/personachat/internal/prompt"
)

// session is the validated state shared by chat, check and prompt.
type session struct {
	ID       string
	Bundle   *config.Bundle
	Resolved *config.Resolved
	Prompt   *prompt.Prompt
	Logger   *zap.Logger
}

// overrides converts flags into config overrides.
func (a Args) overrides() config.Overrides {
	o := config.Overrides{
		LLMAPI:         a.LLM,
		InstructionSet: a.InstructionSet,
		Expert:         a.Expert,
		User:           a.User,
		Context:        a.Context,
		HistoryLength:  a.History,
		UseTTS:         a.TTS,
		LogLevel:       a.LogLevel,
	}
	if a.Verbose && o.LogLevel == "" {
		o.LogLevel = "debug"
	}
	return o
}

// openSession finds, loads and validates the configuration, builds the logger
// and composes the prompt. Precedence, lowest first: documents, .env,
// environment, flags.
func openSession(args Args) (*session, error) {
	dir, err := config.FindDir(args.ConfigDir)
	if err != nil {
		return nil, &config.ConfigError{Reason: "cannot locate configuration directory", Err: err}
	}
	if err := config.LoadDotEnv(dir); err != nil {
		return nil, err
	}

	bundle, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	bundle.ApplyEnvOverrides()
	bundle.Apply(args.overrides())

	resolved, err := bundle.Resolve()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:       resolved.Settings.LogLevel,
		File:        resolved.Settings.LogFile,
		Development: args.Verbose,
	})
	if err != nil {
		return nil, &config.ConfigError{Path: resolved.Settings.LogFile, Reason: "cannot open log output", Err: err}
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))
	logger.Debug("configuration loaded",
		zap.String("dir", dir),
		zap.Any("documents", bundle.Paths),
		zap.String("llm_api", resolved.ProviderID),
		zap.String("model", resolved.Model),
		zap.String("expert", resolved.Settings.Expert),
		zap.String("user", resolved.Settings.User),
		zap.Int("history_length", resolved.Settings.HistoryLength),
		zap.Bool("use_tts", resolved.Settings.UseTTS))

	p, err := prompt.Build(resolved)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to compose system prompt: %w", err)
	}

	return &session{ID: id, Bundle: bundle, Resolved: resolved, Prompt: p, Logger: logger}, nil
}

// close flushes the logger.
func (s *session) close() {
	_ = s.Logger.Sync()
}
