// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"fmt"
	"net/http"
)

// LLMError is a non-success answer from the provider.
type LLMError struct {
	Status  int    // HTTP status, 0 when the response had no usable status
	Message string // provider error.message, or the raw body
	Type    string
	Code    string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("llm error: %s", e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("llm error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("llm error (HTTP %d): %s", e.Status, e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the provider rejected the credentials.
func (e *LLMError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// TransportError is a failure to reach the provider or read its answer.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
