// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation runs the interactive turn loop.
//
// Each line the user types is either a command (quit, rb, reset; matched
// case-insensitively) or a chat turn. A chat turn sends the system message,
// the most recent history entries and the new user message to the model,
// prints the reply, records the exchange and optionally speaks the reply.
//
// History is a value. Step takes the current History and returns the next
// one; Run threads it through the session.
package conversation
