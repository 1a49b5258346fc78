// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"fmt"
	"net/http"
)

// TTSError is a non-success answer from the speech provider.
type TTSError struct {
	Status  int
	Message string
}

func (e *TTSError) Error() string {
	return fmt.Sprintf("tts error (HTTP %d): %s", e.Status, e.Message)
}

// IsAuth reports whether the provider rejected the API key.
func (e *TTSError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// TransportError is a failure to reach the provider or read its answer.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tts request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PlaybackError is a failure to decode or play synthesized audio.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("audio playback failed: %v", e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
