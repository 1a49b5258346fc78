// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Defaults for the ElevenLabs API.
const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultModelID      = "eleven_multilingual_v2"
	DefaultOutputFormat = "mp3_44100_128"

	// MaxAudioSize caps how much audio is read from one response.
	MaxAudioSize = 50 * 1024 * 1024

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 * 1024
)

// Player plays an encoded audio stream, blocking until playback finishes or
// ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio io.Reader) error
}

// Speaker speaks text with a voice.
type Speaker interface {
	Speak(ctx context.Context, text, voiceID string) error
}

// VoiceSettings tunes the synthesized voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings are sent with every request.
var DefaultVoiceSettings = VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75, UseSpeakerBoost: true}

type synthesisRequest struct {
	Text                     string        `json:"text"`
	ModelID                  string        `json:"model_id"`
	VoiceSettings            VoiceSettings `json:"voice_settings"`
	OutputFormat             string        `json:"output_format"`
	OptimizeStreamingLatency int           `json:"optimize_streaming_latency"`
}

// Client calls the ElevenLabs streaming endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
	player     Player
	logger     *zap.Logger
}

var _ Speaker = (*Client)(nil)

// New creates a client that hands audio to player.
func New(apiKey string, player Player) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		modelID: DefaultModelID,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		player: player,
		logger: zap.NewNop(),
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *Client) WithBaseURL(base string) *Client {
	if base != "" {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
	return c
}

// WithModel sets the synthesis model id.
func (c *Client) WithModel(modelID string) *Client {
	if modelID != "" {
		c.modelID = modelID
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets a whole-request timeout; zero means none.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.Named("tts")
	return c
}

// Speak synthesizes text with voiceID and plays it.
func (c *Client) Speak(ctx context.Context, text, voiceID string) error {
	clean := CleanText(text)
	if clean == "" {
		c.logger.Debug("nothing to speak after cleaning")
		return nil
	}

	audio, err := c.synthesize(ctx, clean, voiceID)
	if err != nil {
		return err
	}
	if err := c.player.Play(ctx, bytes.NewReader(audio)); err != nil {
		return &PlaybackError{Err: err}
	}
	return nil
}

func (c *Client) synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID) + "/stream"

	body, err := sonic.Marshal(synthesisRequest{
		Text:                     text,
		ModelID:                  c.modelID,
		VoiceSettings:            DefaultVoiceSettings,
		OutputFormat:             DefaultOutputFormat,
		OptimizeStreamingLatency: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create tts request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.Debug("tts request", zap.String("voice", voiceID), zap.Int("chars", len(text)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("tts response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TTSError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, MaxAudioSize))
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: err}
	}
	return audio, nil
}

// errorMessage extracts the provider's message from an error body. The API
// answers with {"detail": {"message": ...}}, {"detail": "..."} or, for
// validation failures, {"detail": [{"msg": ...}]}.
func errorMessage(status int, raw []byte) string {
	var parsed struct {
		Detail any `json:"detail"`
	}
	if err := sonic.Unmarshal(raw, &parsed); err == nil {
		if msg := detailMessage(parsed.Detail); msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func detailMessage(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case map[string]any:
		for _, key := range []string{"message", "msg"} {
			if s, ok := d[key].(string); ok && s != "" {
				return s
			}
		}
	case []any:
		if len(d) > 0 {
			return detailMessage(d[0])
		}
	}
	return ""
}
