// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt composes the system message from an instruction set, the
// two personas and a context description.
//
// Templates use named slots in braces:
//
//	"You are {expertName}. {expertDescription}"
//
// A doubled brace ("{{" or "}}") is a literal brace. Any other use of a brace,
// or a slot name the caller did not supply, is a *TemplateError.
package prompt
