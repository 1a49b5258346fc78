// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jcluts/personachat/internal/conversation"
	"github.com/jcluts/personachat/internal/speech"
)

// Streams are the I/O endpoints of a command.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer

	// Input replaces the interactive line editor when set.
	Input conversation.LineReader
	// Player replaces the system audio player when set.
	Player speech.Player
}

// Run parses argv, dispatches the command and returns the process exit code.
func Run(ctx context.Context, argv []string, s Streams) int {
	cmd, args, err := Parse(argv)
	if err != nil {
		DisplayError(s.Stderr, err)
		fmt.Fprintln(s.Stderr, DimStyle.Render("Run 'personachat help' for usage."))
		return GetExitCode(err)
	}

	switch cmd {
	case CmdHelp:
		PrintUsage(s.Stdout)
	case CmdVersion:
		PrintVersion(s.Stdout)
	case CmdInit:
		err = HandleInit(args, s)
	case CmdCheck:
		err = HandleCheck(args, s)
	case CmdPrompt:
		err = HandlePrompt(args, s)
	default:
		err = HandleChatCommand(ctx, args, s)
	}

	if err != nil {
		DisplayError(s.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
