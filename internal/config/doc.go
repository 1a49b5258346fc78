// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the personachat configuration.
//
// Configuration is a directory of seven documents, each a mapping keyed by
// identifier:
//
//	config.toml            general run settings (which persona, provider, ...)
//	llm_apis.toml          chat-completion provider catalog
//	instruction_sets.toml  system prompt templates
//	experts.toml           assistant personas
//	users.toml             user personas
//	contexts.toml          scene descriptions
//	api_keys.toml          credentials
//
// Every document may also be written as .json, .yaml or .yml; the first
// existing extension in that order wins.
//
// # Usage
//
//	bundle, err := config.Load(dir)
//	if err != nil { ... }
//	bundle.ApplyEnvOverrides()
//	resolved, err := bundle.Resolve()
//
// Resolve is the only validation pass: it checks every cross-reference once
// and reports all failures together in a single *ConfigError.
package config
