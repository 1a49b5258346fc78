// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the message types shared by the prompt composer,
// the LLM client, and the conversation loop.
//
// # Key Types
//
//   - Role: Message role enumeration (system, user, assistant)
//   - Message: Single role-tagged message; an ordered slice is a transcript
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewSystemMessage(systemPrompt),
//	    model.NewUserMessage("Hello!"),
//	}
package model
