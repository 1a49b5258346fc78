// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "strings"

// Command is a control word typed at the prompt.
type Command int

const (
	// CommandNone means the input is a chat message.
	CommandNone Command = iota
	CommandQuit
	CommandUndo
	CommandReset
)

var commandNames = map[string]Command{
	"quit":  CommandQuit,
	"rb":    CommandUndo,
	"reset": CommandReset,
}

// ParseCommand matches trimmed input against the command words,
// ignoring case.
func ParseCommand(input string) Command {
	if cmd, ok := commandNames[strings.ToLower(strings.TrimSpace(input))]; ok {
		return cmd
	}
	return CommandNone
}

func (c Command) String() string {
	switch c {
	case CommandQuit:
		return "quit"
	case CommandUndo:
		return "rb"
	case CommandReset:
		return "reset"
	default:
		return "none"
	}
}

// State is the loop state a Step ended in.
type State int

const (
	StateAwaitingInput State = iota
	StateExit
	StateUndo
	StateReset
	StateSendTurn
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateExit:
		return "exit"
	case StateUndo:
		return "undo"
	case StateReset:
		return "reset"
	case StateSendTurn:
		return "send_turn"
	default:
		return "unknown"
	}
}
