// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// MaxResponseSize caps how much of a response body is read.
const MaxResponseSize = 10 * 1024 * 1024

// newHTTPClient returns a client with pooled connections and TLS 1.2+.
// A zero timeout leaves cancellation to the request context.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// endpointDoer sends every request to one fixed URL. go-openai appends
// "/chat/completions" to its base URL; the provider entry names the full
// endpoint instead, so the URL is replaced here.
type endpointDoer struct {
	endpoint *url.URL
	client   *http.Client
	logger   *zap.Logger
}

func (d *endpointDoer) Do(req *http.Request) (*http.Response, error) {
	u := *d.endpoint
	req.URL = &u
	req.Host = u.Host

	start := time.Now()
	d.logger.Debug("llm request",
		zap.String("method", req.Method),
		zap.String("host", u.Host),
		zap.String("path", u.Path))

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Debug("llm request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, &TransportError{Endpoint: d.endpoint.Redacted(), Err: err}
	}

	d.logger.Debug("llm response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	resp.Body = limitedBody{Reader: io.LimitReader(resp.Body, MaxResponseSize), Closer: resp.Body}
	return resp, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}
