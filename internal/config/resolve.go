// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jcluts/personachat/internal/logging"
)

// Resolved is a fully cross-checked configuration: every identifier in
// Settings has been looked up in its catalog.
type Resolved struct {
	Dir      string
	Settings Settings

	ProviderID string
	Provider   Provider
	Model      string
	LLMKey     string

	InstructionSet InstructionSet
	Expert         Persona
	User           Persona
	Context        Context

	// VoiceName and VoiceID are empty when the expert has no voice.
	VoiceName string
	VoiceID   string
	// TTSKey is empty when no TTS credential is configured.
	TTSKey string
}

// RequestTimeout returns the HTTP client timeout; zero means none.
func (r *Resolved) RequestTimeout() time.Duration {
	if r.Settings.RequestTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(r.Settings.RequestTimeoutSecs) * time.Second
}

// Resolve checks every reference and value once and returns all failures
// together in a single *ConfigError wrapping ValidationErrors.
func (b *Bundle) Resolve() (*Resolved, error) {
	errs := append(ValidationErrors(nil), b.envErrs...)
	s := b.Settings
	r := &Resolved{Dir: b.Dir, Settings: s, ProviderID: s.LLMAPI}

	// Provider and its credential
	if p, ok := lookup(&errs, "config.llm_api", s.LLMAPI, DocLLMAPIs, b.Providers); ok {
		r.Provider = p
		field := "llm_apis." + s.LLMAPI

		r.Model = p.Model()
		if len(p.Models) == 0 {
			errs.add(field+".llm_models", "no models listed")
		} else if r.Model == "" {
			errs.add(field+".llm_selected_model", "index %d out of range (0..%d)", p.SelectedModel, len(p.Models)-1)
		}
		if err := checkEndpoint(p.Endpoint); err != "" {
			errs.add(field+".llm_endpoint", "%s", err)
		}
		if p.MaxTokens <= 0 {
			errs.add(field+".llm_max_tokens", "must be > 0, got %d", p.MaxTokens)
		}
		if p.Temperature < 0 {
			errs.add(field+".llm_temperature", "must be >= 0, got %g", p.Temperature)
		}
		if p.RequestsPerMinute < 0 {
			errs.add(field+".requests_per_minute", "must be >= 0, got %d", p.RequestsPerMinute)
		}
		if c, ok := lookup(&errs, field+".llm_api_key", p.APIKey, DocAPIKeys, b.Credentials); ok {
			r.LLMKey = c.Key
		}
	}

	if is, ok := lookup(&errs, "config.instruction_set", s.InstructionSet, DocInstructionSets, b.InstructionSets); ok {
		r.InstructionSet = is
	}
	if e, ok := lookup(&errs, "config.expert", s.Expert, DocExperts, b.Experts); ok {
		r.Expert = e
		if e.TTSVoice != "" {
			if v, ok := lookup(&errs, "experts."+s.Expert+".tts_voice", e.TTSVoice, "config.tts_voices", s.TTSVoices); ok {
				r.VoiceName = e.TTSVoice
				r.VoiceID = v.ID
				if v.ID == "" {
					errs.add("config.tts_voices."+e.TTSVoice+".id", "empty voice id")
				}
			}
		} else if s.UseTTS {
			errs.add("experts."+s.Expert+".tts_voice", "required when use_tts is on")
		}
	}
	if u, ok := lookup(&errs, "config.user", s.User, DocUsers, b.Users); ok {
		r.User = u
	}
	if c, ok := lookup(&errs, "config.context", s.Context, DocContexts, b.Contexts); ok {
		r.Context = c
	}

	// TTS credential is only required when speech is on.
	if s.TTSAPIKey != "" || s.UseTTS {
		if c, ok := lookup(&errs, "config.tts_api_key", s.TTSAPIKey, DocAPIKeys, b.Credentials); ok {
			r.TTSKey = c.Key
		}
	}

	if s.HistoryLength < 0 {
		errs.add("config.history_length", "must be >= 0, got %d", s.HistoryLength)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs.add("config.log_level", "%v", err)
	}
	if s.RequestTimeoutSecs < 0 {
		errs.add("config.request_timeout_secs", "must be >= 0, got %d", s.RequestTimeoutSecs)
	}
	if s.UseTTS {
		if err := checkEndpoint(s.TTSBaseURL); err != "" {
			errs.add("config.tts_base_url", "%s", err)
		}
	}

	if len(errs) > 0 {
		return nil, &ConfigError{Path: b.Dir, Reason: "invalid configuration", Err: errs}
	}
	return r, nil
}

// lookup resolves id in catalog, recording a validation error on failure.
func lookup[T any](errs *ValidationErrors, field, id, catalog string, entries map[string]T) (T, bool) {
	var zero T
	if id == "" {
		errs.add(field, "not set")
		return zero, false
	}
	v, ok := entries[id]
	if !ok {
		errs.add(field, "%q not found in %s (known: %s)", id, catalog, knownKeys(entries))
		return zero, false
	}
	return v, true
}

func knownKeys[T any](entries map[string]T) string {
	if len(entries) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func checkEndpoint(raw string) string {
	if raw == "" {
		return "not set"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid URL: " + err.Error()
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must be an absolute http(s) URL, got " + raw
	}
	if u.Host == "" {
		return "missing host in " + raw
	}
	return ""
}
