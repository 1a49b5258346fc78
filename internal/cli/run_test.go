// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/conversation"
)

type scriptInput struct {
	lines []string
}

func (s *scriptInput) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type recordingPlayer struct {
	mu     sync.Mutex
	played []string
}

func (p *recordingPlayer) Play(_ context.Context, audio io.Reader) error {
	data, err := io.ReadAll(audio)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, string(data))
	return nil
}

// llmServer answers every chat completion with reply and records requests.
type llmServer struct {
	*httptest.Server
	mu       sync.Mutex
	auth     []string
	messages [][]map[string]any
}

func newLLMServer(t *testing.T, status int, reply string) *llmServer {
	t.Helper()
	s := &llmServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		s.messages = append(s.messages, body.Messages)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"invalid key"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *llmServer) requests() ([]string, [][]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...), append([][]map[string]any(nil), s.messages...)
}

// sampleDir writes the sample configuration pointed at the given servers.
func sampleDir(t *testing.T, llmURL, ttsURL string) string {
	t.Helper()
	t.Setenv(config.EnvConfigDir, "")
	t.Setenv(config.CredentialEnvVar("openai"), "sk-test")
	t.Setenv(config.CredentialEnvVar("elevenlabs"), "xi-test")

	dir := t.TempDir()
	_, err := config.WriteSample(dir, false)
	require.NoError(t, err)

	b := config.SampleBundle()
	if llmURL != "" {
		p := b.Providers["openai"]
		p.Endpoint = llmURL + "/v1/chat/completions"
		b.Providers["openai"] = p
		require.NoError(t, config.SaveTOML(filepath.Join(dir, "llm_apis.toml"), "llm_apis", b.Providers, 0644))
	}
	if ttsURL != "" {
		b.Settings.TTSBaseURL = ttsURL
		require.NoError(t, config.SaveTOML(filepath.Join(dir, "config.toml"), "config", b.Settings, 0644))
	}
	return dir
}

func run(t *testing.T, s Streams, argv ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	s.Stdout, s.Stderr = &stdout, &stderr
	code := Run(context.Background(), argv, s)
	return code, stdout.String(), stderr.String()
}

func TestRun_VersionAndHelp(t *testing.T) {
	code, out, _ := run(t, Streams{}, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "personachat version "+Version)

	code, out, _ = run(t, Streams{}, "help")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "personachat init [--force]")
}

func TestRun_UsageError(t *testing.T) {
	code, _, errOut := run(t, Streams{}, "--bogus")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, errOut, "unknown flag")
}

func TestRun_MissingConfig(t *testing.T) {
	dir := t.TempDir()
	code, _, errOut := run(t, Streams{}, "check", "--config-dir", dir)
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut, filepath.Join(dir, "config.toml"))
	assert.Contains(t, errOut, "personachat init")
}

func TestRun_UnresolvedSelection(t *testing.T) {
	dir := sampleDir(t, "", "")
	code, _, errOut := run(t, Streams{}, "check", "--config-dir", dir, "--expert", "nobody", "--user", "ghost")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut, "config.expert")
	assert.Contains(t, errOut, "config.user")
}

func TestRun_Init(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	code, out, _ := run(t, Streams{}, "init", "--config-dir", dir)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, filepath.Join(dir, "api_keys.toml"))

	code, _, errOut := run(t, Streams{}, "init", "--config-dir", dir)
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, errOut, "--force")

	code, _, _ = run(t, Streams{}, "init", "--config-dir", dir, "--force")
	assert.Equal(t, ExitSuccess, code)
}

func TestRun_Check(t *testing.T) {
	dir := sampleDir(t, "", "")
	code, out, _ := run(t, Streams{}, "check", "--config-dir", dir)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "Sage (sage)")
	assert.Contains(t, out, "10 entries")
	assert.Contains(t, out, "configuration is valid")
	assert.NotContains(t, out, "sk-test")
}

func TestRun_Prompt(t *testing.T) {
	dir := sampleDir(t, "", "")
	code, out, _ := run(t, Streams{}, "prompt", "--config-dir", dir)
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(out, "You are Sage. An old librarian"), out)
	assert.Contains(t, out, "The scene: Traveler steps into a quiet library late in the evening. Sage looks up from the front desk.")
	assert.Contains(t, out, "You are talking with Traveler.")
}

func TestRun_ChatSession(t *testing.T) {
	srv := newLLMServer(t, http.StatusOK, "Welcome, traveler.")
	dir := sampleDir(t, srv.URL, "")

	in := &scriptInput{lines: []string{"hello", "rb", "again", "quit"}}
	code, out, _ := run(t, Streams{Input: in}, "--config-dir", dir, "-q", "--no-tts")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "Traveler steps into a quiet library")
	assert.Contains(t, out, "Sage: Welcome, traveler.")
	assert.Contains(t, out, conversation.NoticeUndo)
	assert.Contains(t, out, conversation.NoticeExit)
	assert.NotContains(t, out, "personachat "+Version, "quiet skips the banner")

	auth, messages := srv.requests()
	require.Len(t, messages, 2)
	assert.Equal(t, "Bearer sk-test", auth[0])
	// The undone exchange is not sent with the second turn.
	require.Len(t, messages[1], 2)
	assert.Equal(t, "system", messages[1][0]["role"])
	assert.Equal(t, "again", messages[1][1]["content"])
}

func TestRun_ChatAuthFailure(t *testing.T) {
	srv := newLLMServer(t, http.StatusUnauthorized, "")
	dir := sampleDir(t, srv.URL, "")

	in := &scriptInput{lines: []string{"hello", "never"}}
	code, _, errOut := run(t, Streams{Input: in}, "--config-dir", dir)
	assert.Equal(t, ExitAuthError, code)
	assert.Contains(t, errOut, "invalid key")
	assert.Equal(t, []string{"never"}, in.lines)
}

func TestRun_ChatWithSpeech(t *testing.T) {
	srv := newLLMServer(t, http.StatusOK, "*bows* Good evening.")

	ttsText := make(chan string, 1)
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		text, _ := body["text"].(string)
		ttsText <- text
		if r.Header.Get("xi-api-key") != "xi-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer tts.Close()

	dir := sampleDir(t, srv.URL, tts.URL)
	player := &recordingPlayer{}
	in := &scriptInput{lines: []string{"hi"}}

	code, out, errOut := run(t, Streams{Input: in, Player: player}, "--config-dir", dir, "--tts")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Sage: *bows* Good evening.")
	assert.Equal(t, "Good evening.", <-ttsText)
	assert.Equal(t, []string{"mp3-bytes"}, player.played)
}

func TestRun_ChatSpeechFailureIsWarning(t *testing.T) {
	srv := newLLMServer(t, http.StatusOK, "Hello.")
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":{"message":"Invalid API key"}}`)
	}))
	defer tts.Close()

	dir := sampleDir(t, srv.URL, tts.URL)
	in := &scriptInput{lines: []string{"hi", "again"}}

	code, _, errOut := run(t, Streams{Input: in, Player: &recordingPlayer{}}, "--config-dir", dir, "--tts")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, errOut, "Invalid API key")
	_, messages := srv.requests()
	require.Len(t, messages, 2)
	// The first turn was kept despite the speech failure.
	assert.Len(t, messages[1], 4)
}

func TestMain(m *testing.M) {
	// Keep a developer's real environment out of the tests.
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			os.Unsetenv(name)
		}
	}
	os.Exit(m.Run())
}
