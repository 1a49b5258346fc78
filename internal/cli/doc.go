// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for personachat.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global and per-run flags
//   - Streams: Output writers plus optional input and audio overrides
//
// # Usage
//
//	os.Exit(cli.Run(ctx, os.Args[1:], cli.Streams{Stdout: os.Stdout, Stderr: os.Stderr}))
//
// # Commands Overview
//
//   - chat: Interactive persona session (default)
//   - check: Validate configuration and print a summary
//   - prompt: Print the composed system message
//   - init: Write sample configuration documents
//   - version, help
package cli
