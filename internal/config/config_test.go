// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture writes name=content files into a fresh temp dir.
func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

// jsonFixture is a complete configuration in the JSON layout.
func jsonFixture() map[string]string {
	return map[string]string{
		"config.json": `{
			"llm_api": "test",
			"instruction_set": "basic",
			"expert": "wizard",
			"user": "hero",
			"context": "tavern",
			"tts_api_key": "eleven",
			"history_length": 4,
			"use_tts": true,
			"tts_voices": {"gandalf": {"id": "voice-123"}}
		}`,
		"llm_apis.json": `{
			"test": {
				"llm_endpoint": "https://llm.example.com/v1/chat/completions",
				"llm_models": ["small", "large"],
				"llm_selected_model": 1,
				"llm_max_tokens": 256,
				"llm_temperature": 0.7,
				"llm_api_key": "llm"
			}
		}`,
		"instruction_sets.json": `{"basic": {"instructions": ["You are {expertName}.", "Talk to {userName}."]}}`,
		"experts.json":          `{"wizard": {"name": "Merlin", "description": ["Old.", "Wise."], "tts_voice": "gandalf"}}`,
		"users.json":            `{"hero": {"name": "Arthur", "description": ["Young."]}}`,
		"contexts.json":         `{"tavern": {"description": ["{userName} meets {expertName}."]}}`,
		"api_keys.json":         `{"llm": {"key": "sk-llm"}, "eleven": {"key": "xi-key"}}`,
	}
}

func TestLoadDocument_Formats(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		"a.toml": "[x]\nname = \"one\"\n",
		"b.json": `{"x": {"name": "one"}}`,
		"c.yaml": "x:\n  name: one\n",
		"d.yml":  "x:\n  name: one\n",
	})

	for _, name := range []string{"a.toml", "b.json", "c.yaml", "d.yml"} {
		t.Run(name, func(t *testing.T) {
			doc, err := LoadDocument(filepath.Join(dir, name))
			require.NoError(t, err)
			x, ok := doc["x"].(map[string]any)
			require.True(t, ok, "x should decode as a mapping, got %T", doc["x"])
			assert.Equal(t, "one", x["name"])
		})
	}
}

func TestLoadDocument_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadDocument(path)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, path, cfgErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestLoadDocument_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad.json":   `{"x": `,
		"bad.toml":   "x = = 1",
		"bad.yaml":   "x: [1, 2",
		"empty.json": "",
		"doc.ini":    "x=1",
	}
	dir := writeFixture(t, tests)

	for name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDocument(filepath.Join(dir, name))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Path, name)
		})
	}
}

func TestLoadCatalog_Typed(t *testing.T) {
	dir := writeFixture(t, jsonFixture())
	providers, err := LoadCatalog[Provider](filepath.Join(dir, "llm_apis.json"))
	require.NoError(t, err)

	p := providers["test"]
	assert.Equal(t, "https://llm.example.com/v1/chat/completions", p.Endpoint)
	assert.Equal(t, "large", p.Model())
	assert.Equal(t, 256, p.MaxTokens)
	assert.InDelta(t, 0.7, p.Temperature, 1e-9)
	assert.Equal(t, "llm", p.APIKey)
}

func TestFindDocument_ExtensionOrder(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		"config.json": `{}`,
		"config.yaml": "{}",
	})
	path, err := FindDocument(dir, "config")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))
	path, err = FindDocument(dir, "config")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)
}

func TestLoad_ResolveJSON(t *testing.T) {
	dir := writeFixture(t, jsonFixture())

	b, err := Load(dir)
	require.NoError(t, err)
	r, err := b.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "test", r.ProviderID)
	assert.Equal(t, "large", r.Model)
	assert.Equal(t, "sk-llm", r.LLMKey)
	assert.Equal(t, "xi-key", r.TTSKey)
	assert.Equal(t, "voice-123", r.VoiceID)
	assert.Equal(t, "Merlin", r.Expert.Name)
	assert.Equal(t, "Old. Wise.", r.Expert.DescriptionText())
	assert.Equal(t, "Arthur", r.User.Name)
	assert.Equal(t, 4, r.Settings.HistoryLength)
	assert.True(t, r.Settings.UseTTS)

	// Defaults filled in.
	assert.Equal(t, DefaultLogLevel, r.Settings.LogLevel)
	assert.Equal(t, DefaultTTSBaseURL, r.Settings.TTSBaseURL)
	assert.True(t, r.Settings.MarkdownEnabled())
	assert.Zero(t, r.RequestTimeout())
}

func TestLoad_MissingDocuments(t *testing.T) {
	files := jsonFixture()
	delete(files, "users.json")
	delete(files, "contexts.json")
	dir := writeFixture(t, files)

	_, err := Load(dir)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "users")
	assert.Contains(t, err.Error(), "contexts")
}

func TestResolve_ReportsAllUnresolved(t *testing.T) {
	files := jsonFixture()
	files["config.json"] = `{
		"llm_api": "missing-llm",
		"instruction_set": "basic",
		"expert": "nobody",
		"user": "ghost",
		"context": "tavern",
		"tts_api_key": "eleven",
		"history_length": -1,
		"use_tts": false
	}`
	dir := writeFixture(t, files)

	b, err := Load(dir)
	require.NoError(t, err)
	_, err = b.Resolve()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"config.llm_api", "config.expert", "config.user", "config.history_length",
	}, fields)
	assert.Contains(t, err.Error(), `"nobody" not found in experts`)
}

func TestResolve_ProviderChecks(t *testing.T) {
	files := jsonFixture()
	files["llm_apis.json"] = `{
		"test": {
			"llm_endpoint": "/relative/path",
			"llm_models": ["only"],
			"llm_selected_model": 3,
			"llm_max_tokens": 0,
			"llm_temperature": 0.5,
			"llm_api_key": "nokey"
		}
	}`
	dir := writeFixture(t, files)

	b, err := Load(dir)
	require.NoError(t, err)
	_, err = b.Resolve()

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	msg := verrs.Error()
	assert.Contains(t, msg, "llm_apis.test.llm_selected_model")
	assert.Contains(t, msg, "llm_apis.test.llm_endpoint")
	assert.Contains(t, msg, "llm_apis.test.llm_max_tokens")
	assert.Contains(t, msg, "llm_apis.test.llm_api_key")
}

func TestResolve_VoiceRequiredOnlyWithTTS(t *testing.T) {
	files := jsonFixture()
	files["experts.json"] = `{"wizard": {"name": "Merlin", "description": ["Old."]}}`
	dir := writeFixture(t, files)

	b, err := Load(dir)
	require.NoError(t, err)
	_, err = b.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experts.wizard.tts_voice")

	b.Apply(Overrides{UseTTS: boolPtr(false)})
	r, err := b.Resolve()
	require.NoError(t, err)
	assert.Empty(t, r.VoiceID)
}

func TestResolve_TTSKeyOptionalWhenOff(t *testing.T) {
	files := jsonFixture()
	files["api_keys.json"] = `{"llm": {"key": "sk-llm"}}`
	dir := writeFixture(t, files)

	b, err := Load(dir)
	require.NoError(t, err)
	b.Settings.TTSAPIKey = ""
	b.Settings.UseTTS = false

	r, err := b.Resolve()
	require.NoError(t, err)
	assert.Empty(t, r.TTSKey)
}

func TestApply_Overrides(t *testing.T) {
	dir := writeFixture(t, jsonFixture())
	b, err := Load(dir)
	require.NoError(t, err)

	n := 0
	b.Apply(Overrides{Expert: "other", HistoryLength: &n, UseTTS: boolPtr(false), LogLevel: "debug"})
	assert.Equal(t, "other", b.Settings.Expert)
	assert.Equal(t, "hero", b.Settings.User)
	assert.Equal(t, 0, b.Settings.HistoryLength)
	assert.False(t, b.Settings.UseTTS)
	assert.Equal(t, "debug", b.Settings.LogLevel)
}

func TestApplyEnvOverrides(t *testing.T) {
	dir := writeFixture(t, jsonFixture())
	b, err := Load(dir)
	require.NoError(t, err)

	t.Setenv("PERSONACHAT_USER", "villain")
	t.Setenv("PERSONACHAT_HISTORY_LENGTH", "8")
	t.Setenv("PERSONACHAT_USE_TTS", "off")
	t.Setenv("PERSONACHAT_KEY_LLM", "sk-from-env")

	b.ApplyEnvOverrides()
	assert.Equal(t, "villain", b.Settings.User)
	assert.Equal(t, 8, b.Settings.HistoryLength)
	assert.False(t, b.Settings.UseTTS)
	assert.Equal(t, "sk-from-env", b.Credentials["llm"].Key)
}

func TestApplyEnvOverrides_CredentialNotInDocument(t *testing.T) {
	files := jsonFixture()
	files["api_keys.json"] = `{"eleven": {"key": "xi-key"}}`
	dir := writeFixture(t, files)
	b, err := Load(dir)
	require.NoError(t, err)

	t.Setenv("PERSONACHAT_KEY_LLM", "sk-env-only")
	b.ApplyEnvOverrides()

	r, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "sk-env-only", r.LLMKey)
}

func TestApplyEnvOverrides_BadValuesReportedByResolve(t *testing.T) {
	dir := writeFixture(t, jsonFixture())
	b, err := Load(dir)
	require.NoError(t, err)

	t.Setenv("PERSONACHAT_HISTORY_LENGTH", "lots")
	b.ApplyEnvOverrides()

	_, err = b.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSONACHAT_HISTORY_LENGTH")
}

func TestCredentialEnvVar(t *testing.T) {
	assert.Equal(t, "PERSONACHAT_KEY_OPENAI", CredentialEnvVar("openai"))
	assert.Equal(t, "PERSONACHAT_KEY_ELEVEN_LABS_2", CredentialEnvVar("eleven-labs.2"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		".env": "PERSONACHAT_TEST_A=from-file\nPERSONACHAT_TEST_B=from-file\n",
	})
	t.Setenv("PERSONACHAT_TEST_A", "from-env")
	// Registered so the value set by LoadDotEnv is cleared after the test.
	t.Setenv("PERSONACHAT_TEST_B", "")
	require.NoError(t, os.Unsetenv("PERSONACHAT_TEST_B"))

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-env", os.Getenv("PERSONACHAT_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("PERSONACHAT_TEST_B"))
}

func TestFindDir(t *testing.T) {
	got, err := FindDir("/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", got)

	t.Setenv(EnvConfigDir, "/from-env")
	got, err = FindDir("")
	require.NoError(t, err)
	assert.Equal(t, "/from-env", got)
}

func TestWriteSample_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	written, err := WriteSample(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, len(Documents))

	info, err := os.Stat(filepath.Join(dir, "api_keys.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	b, err := Load(dir)
	require.NoError(t, err)
	r, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Sage", r.Expert.Name)
	assert.Equal(t, "gpt-4o-mini", r.Model)
	assert.Equal(t, 10, r.Settings.HistoryLength)

	_, err = WriteSample(dir, false)
	assert.True(t, errors.Is(err, ErrExists))

	_, err = WriteSample(dir, true)
	assert.NoError(t, err)
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())
	errs.add("a", "bad %d", 1)
	errs.add("b", "worse")
	assert.Equal(t, "a: bad 1; b: worse", errs.Error())
	assert.True(t, strings.HasPrefix((&ConfigError{Reason: "x", Err: errs}).Error(), "config: x: a: bad 1"))
}

func boolPtr(b bool) *bool { return &b }
