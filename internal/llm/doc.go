// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm sends a conversation to an OpenAI-compatible chat-completion
// endpoint and returns the assistant's reply.
//
// The request always goes to the exact configured endpoint URL, so any
// provider that speaks the chat-completions wire format works (OpenAI,
// OpenRouter, local gateways).
//
// Errors:
//   - *LLMError: the provider answered with a non-success status
//   - *TransportError: the request never got a response
//
// Nothing is retried.
package llm
