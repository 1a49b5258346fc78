// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// check.go - configuration validation and summary.
package cli

import (
	"fmt"
	"strconv"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/util"
)

// summaryWidth caps long values such as endpoints in the summary.
const summaryWidth = 60

// HandleCheck loads and resolves the configuration and prints a summary.
func HandleCheck(args Args, s Streams) error {
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

	row := func(label, value string) {
		fmt.Fprintf(s.Stdout, "%s %s\n", RenderLabel(label), ValueStyle.Render(util.TruncateRunes(value, summaryWidth)))
	}

	fmt.Fprintln(s.Stdout, RenderTitle("personachat configuration"))
	row("Directory", r.Dir)
	for _, base := range config.Documents {
		row("  "+base, sess.Bundle.Paths[base])
	}

	fmt.Fprintln(s.Stdout)
	row("Provider", r.ProviderID)
	row("Endpoint", client.Endpoint())
	row("Model", client.Model())
	row("Max tokens", strconv.Itoa(r.Provider.MaxTokens))
	row("Temperature", strconv.FormatFloat(r.Provider.Temperature, 'g', -1, 64))
	if r.Provider.RequestsPerMinute > 0 {
		row("Pacing", fmt.Sprintf("%d requests/min", r.Provider.RequestsPerMinute))
	}
	row("API key", keyStatus(r.LLMKey, client.KeyFingerprint()))

	fmt.Fprintln(s.Stdout)
	row("Instructions", r.Settings.InstructionSet)
	row("Expert", fmt.Sprintf("%s (%s)", r.Expert.Name, r.Settings.Expert))
	row("User", fmt.Sprintf("%s (%s)", r.User.Name, r.Settings.User))
	row("Context", r.Settings.Context)
	row("History window", fmt.Sprintf("%d entries", r.Settings.HistoryLength))

	fmt.Fprintln(s.Stdout)
	if r.Settings.UseTTS {
		row("Speech", "on")
		row("Voice", fmt.Sprintf("%s (%s)", r.VoiceName, r.VoiceID))
		row("Speech key", keyStatus(r.TTSKey, ""))
	} else {
		row("Speech", "off")
	}
	row("Log level", r.Settings.LogLevel)
	row("Prompt length", fmt.Sprintf("%d characters", len([]rune(sess.Prompt.System.Content))))

	fmt.Fprintf(s.Stdout, "\n%s configuration is valid\n", RenderStatus(true))
	if r.LLMKey == "" {
		DisplayWarning(s.Stderr, fmt.Errorf("api key %q is empty; set it in api_keys or %s",
			r.Provider.APIKey, config.CredentialEnvVar(r.Provider.APIKey)))
	}
	return nil
}

func keyStatus(key, fingerprint string) string {
	if key == "" {
		return "[empty]"
	}
	if fingerprint == "" {
		return fmt.Sprintf("[set, length=%d]", len(key))
	}
	return fmt.Sprintf("[set, fingerprint=%s]", fingerprint)
}
