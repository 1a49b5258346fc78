// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "strings"

// =============================================================================
// GENERAL SETTINGS (config.*)
// =============================================================================

// Settings is the general run configuration: which provider, personas and
// context to use, plus history and speech options.
type Settings struct {
	LLMAPI         string           `toml:"llm_api" json:"llm_api" yaml:"llm_api"`
	InstructionSet string           `toml:"instruction_set" json:"instruction_set" yaml:"instruction_set"`
	Expert         string           `toml:"expert" json:"expert" yaml:"expert"`
	User           string           `toml:"user" json:"user" yaml:"user"`
	Context        string           `toml:"context" json:"context" yaml:"context"`
	TTSAPIKey      string           `toml:"tts_api_key" json:"tts_api_key" yaml:"tts_api_key"`
	HistoryLength  int              `toml:"history_length" json:"history_length" yaml:"history_length"`
	UseTTS         bool             `toml:"use_tts" json:"use_tts" yaml:"use_tts"`
	TTSVoices      map[string]Voice `toml:"tts_voices" json:"tts_voices" yaml:"tts_voices"`

	LogLevel           string `toml:"log_level" json:"log_level" yaml:"log_level"`
	LogFile            string `toml:"log_file,omitempty" json:"log_file" yaml:"log_file"`
	RenderMarkdown     *bool  `toml:"render_markdown" json:"render_markdown" yaml:"render_markdown"`
	TTSBaseURL         string `toml:"tts_base_url" json:"tts_base_url" yaml:"tts_base_url"`
	TTSModel           string `toml:"tts_model" json:"tts_model" yaml:"tts_model"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs" json:"request_timeout_secs" yaml:"request_timeout_secs"`
}

// MarkdownEnabled reports whether replies should be rendered as markdown.
// Absent means enabled.
func (s Settings) MarkdownEnabled() bool {
	return s.RenderMarkdown == nil || *s.RenderMarkdown
}

// Voice is a named TTS voice.
type Voice struct {
	ID string `toml:"id" json:"id" yaml:"id"`
}

// =============================================================================
// CATALOG ENTRIES
// =============================================================================

// Provider is an LLM API entry from llm_apis.*.
type Provider struct {
	Endpoint          string   `toml:"llm_endpoint" json:"llm_endpoint" yaml:"llm_endpoint"`
	Models            []string `toml:"llm_models" json:"llm_models" yaml:"llm_models"`
	SelectedModel     int      `toml:"llm_selected_model" json:"llm_selected_model" yaml:"llm_selected_model"`
	MaxTokens         int      `toml:"llm_max_tokens" json:"llm_max_tokens" yaml:"llm_max_tokens"`
	Temperature       float64  `toml:"llm_temperature" json:"llm_temperature" yaml:"llm_temperature"`
	APIKey            string   `toml:"llm_api_key" json:"llm_api_key" yaml:"llm_api_key"`
	RequestsPerMinute int      `toml:"requests_per_minute" json:"requests_per_minute" yaml:"requests_per_minute"`
}

// Model returns the selected model name, or "" when the index is out of range.
func (p Provider) Model() string {
	if p.SelectedModel < 0 || p.SelectedModel >= len(p.Models) {
		return ""
	}
	return p.Models[p.SelectedModel]
}

// Persona describes the assistant (expert) or the user.
type Persona struct {
	Name        string   `toml:"name" json:"name" yaml:"name"`
	Description []string `toml:"description" json:"description" yaml:"description"`
	TTSVoice    string   `toml:"tts_voice,omitempty" json:"tts_voice" yaml:"tts_voice"`
}

// DescriptionText joins the description fragments with single spaces.
func (p Persona) DescriptionText() string {
	return strings.Join(p.Description, " ")
}

// Context is a scene description template.
type Context struct {
	Description []string `toml:"description" json:"description" yaml:"description"`
}

// InstructionSet is a system prompt template.
type InstructionSet struct {
	Instructions []string `toml:"instructions" json:"instructions" yaml:"instructions"`
}

// Credential is a named secret from api_keys.*.
type Credential struct {
	Key string `toml:"key" json:"key" yaml:"key"`
}
