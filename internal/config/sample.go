// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jcluts/personachat/internal/util"
)

// ErrExists is returned by WriteSample when a document already exists and
// force is off.
var ErrExists = errors.New("configuration already exists")

// SampleBundle returns a working configuration with placeholder keys.
func SampleBundle() *Bundle {
	markdown := true
	return &Bundle{
		Settings: Settings{
			LLMAPI:             "openai",
			InstructionSet:     "roleplay",
			Expert:             "sage",
			User:               "traveler",
			Context:            "library",
			TTSAPIKey:          "elevenlabs",
			HistoryLength:      10,
			UseTTS:             false,
			TTSVoices:          map[string]Voice{"sage": {ID: "21m00Tcm4TlvDq8ikWAM"}},
			LogLevel:           DefaultLogLevel,
			RenderMarkdown:     &markdown,
			TTSBaseURL:         DefaultTTSBaseURL,
			TTSModel:           DefaultTTSModel,
			RequestTimeoutSecs: 120,
		},
		Providers: map[string]Provider{
			"openai": {
				Endpoint:      "https://api.openai.com/v1/chat/completions",
				Models:        []string{"gpt-4o-mini", "gpt-4o"},
				SelectedModel: 0,
				MaxTokens:     512,
				Temperature:   0.8,
				APIKey:        "openai",
			},
			"openrouter": {
				Endpoint:      "https://openrouter.ai/api/v1/chat/completions",
				Models:        []string{"anthropic/claude-3.5-sonnet", "meta-llama/llama-3.1-70b-instruct"},
				SelectedModel: 0,
				MaxTokens:     512,
				Temperature:   0.8,
				APIKey:        "openrouter",
			},
		},
		InstructionSets: map[string]InstructionSet{
			"roleplay": {Instructions: []string{
				"You are {expertName}. {expertDescription}",
				"The scene: {context}",
				"You are talking with {userName}. {userDescription}",
				"Stay in character and keep replies short.",
			}},
		},
		Experts: map[string]Persona{
			"sage": {
				Name:        "Sage",
				Description: []string{"An old librarian who has read every book twice.", "Speaks calmly and answers with a quote when one fits."},
				TTSVoice:    "sage",
			},
		},
		Users: map[string]Persona{
			"traveler": {
				Name:        "Traveler",
				Description: []string{"A curious visitor looking for a book they cannot name."},
			},
		},
		Contexts: map[string]Context{
			"library": {Description: []string{
				"{userName} steps into a quiet library late in the evening.",
				"{expertName} looks up from the front desk.",
			}},
		},
		Credentials: map[string]Credential{
			"openai":     {Key: ""},
			"openrouter": {Key: ""},
			"elevenlabs": {Key: ""},
		},
	}
}

// WriteSample writes SampleBundle as TOML documents into dir. Existing
// documents are left alone unless force is set. The credentials document is
// written 0600.
func WriteSample(dir string, force bool) ([]string, error) {
	b := SampleBundle()
	docs := []struct {
		base string
		v    any
		perm os.FileMode
	}{
		{DocConfig, b.Settings, 0644},
		{DocLLMAPIs, b.Providers, 0644},
		{DocInstructionSets, b.InstructionSets, 0644},
		{DocExperts, b.Experts, 0644},
		{DocUsers, b.Users, 0644},
		{DocContexts, b.Contexts, 0644},
		{DocAPIKeys, b.Credentials, 0600},
	}

	if !force {
		for _, d := range docs {
			if path, err := FindDocument(dir, d.base); err == nil {
				return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	written := make([]string, 0, len(docs))
	for _, d := range docs {
		path := filepath.Join(dir, d.base+".toml")
		if err := SaveTOML(path, d.base, d.v, d.perm); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// SaveTOML encodes v under a short header and writes it atomically.
func SaveTOML(path, title string, v any, perm os.FileMode) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# personachat %s\n", title)
	fmt.Fprintln(&buf, "# Generated by personachat init - edit freely")
	if perm&0077 == 0 {
		fmt.Fprintf(&buf, "# Secrets may also come from %s<NAME> or a .env file\n", EnvKeyPrefix)
	}
	fmt.Fprintln(&buf)

	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", title, err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
