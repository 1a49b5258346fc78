// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/model"
)

// Completer is anything that can answer a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// Client calls one configured provider with one model.
type Client struct {
	apiKey      string
	endpoint    *url.URL
	model       string
	maxTokens   int
	temperature float32

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	api        *openai.Client
}

var _ Completer = (*Client)(nil)

// New builds a client for provider p using apiKey as the bearer token.
func New(p config.Provider, apiKey string) (*Client, error) {
	endpoint, err := url.Parse(strings.TrimSpace(p.Endpoint))
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid llm endpoint %q", p.Endpoint)
	}
	modelName := p.Model()
	if modelName == "" {
		return nil, fmt.Errorf("no model at index %d", p.SelectedModel)
	}

	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		endpoint:    endpoint,
		model:       modelName,
		maxTokens:   p.MaxTokens,
		temperature: wireTemperature(p.Temperature),
		httpClient:  newHTTPClient(0),
		logger:      zap.NewNop(),
	}
	if p.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(p.RequestsPerMinute)), 1)
	}
	c.rebuild()
	return c, nil
}

// wireTemperature converts the configured temperature for go-openai, which
// omits a zero temperature from the request body. Zero is sent as the
// smallest positive float32 so the provider still sees it.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.rebuild()
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
	c.logger = logger.Named("llm")
	c.rebuild()
	return c
}

func (c *Client) rebuild() {
	cfg := openai.DefaultConfig(c.apiKey)
	cfg.BaseURL = strings.TrimSuffix(c.endpoint.String(), "/")
	cfg.HTTPClient = &endpointDoer{endpoint: c.endpoint, client: c.httpClient, logger: c.logger}
	c.api = openai.NewClientWithConfig(cfg)
}

// Model returns the model name sent with each request.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// KeyFingerprint identifies the API key in logs without revealing it.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// Complete sends messages and returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &TransportError{Endpoint: c.endpoint.Redacted(), Err: err}
		}
	}

	wire, err := toWire(messages)
	if err != nil {
		return "", err
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    wire,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)),
		zap.String("key", c.KeyFingerprint()))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &LLMError{Status: http.StatusOK, Message: "response contained no choices"}
	}

	c.logger.Debug("chat completion done",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

func toWire(messages []model.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for i, m := range messages {
		if !m.Role.Valid() {
			return nil, &LLMError{Message: fmt.Sprintf("message %d has invalid role %q", i, m.Role)}
		}
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out, nil
}

// classify maps go-openai errors onto LLMError and TransportError.
func classify(err error) error {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.HTTPStatusCode)
		}
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return &LLMError{Status: apiErr.HTTPStatusCode, Message: msg, Type: apiErr.Type, Code: code, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" {
			msg = http.StatusText(reqErr.HTTPStatusCode)
		}
		return &LLMError{Status: reqErr.HTTPStatusCode, Message: msg, Err: err}
	}

	return &LLMError{Message: err.Error(), Err: err}
}
