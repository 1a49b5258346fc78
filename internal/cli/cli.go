// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and usage text for personachat.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdCheck
	CmdPrompt
	CmdInit
	CmdVersion
	CmdHelp
)

func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdCheck:
		return "check"
	case CmdPrompt:
		return "prompt"
	case CmdInit:
		return "init"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigDir string
	Verbose   bool
	Quiet     bool
	LogLevel  string

	// Per-run selections; empty keeps the configured value.
	LLM            string
	InstructionSet string
	Expert         string
	User           string
	Context        string
	History        *int
	TTS            *bool

	// init
	Force bool

	help    bool
	version bool
}

const usageText = `personachat - chat with a configured persona from the terminal

Usage:
  personachat [chat]          Start an interactive session (default)
  personachat check           Validate configuration and print a summary
  personachat prompt          Print the composed system message
  personachat init [--force]  Write sample configuration documents
  personachat version         Show version information
  personachat help            Show this help

Options:
  --config-dir DIR            Configuration directory
                              (default: $PERSONACHAT_CONFIG_DIR, ./ or ~/.personachat)
  --llm ID                    Provider from llm_apis
  --instruction-set ID        Instruction set from instruction_sets
  --expert ID                 Assistant persona from experts
  --user ID                   User persona from users
  --context ID                Scene from contexts
  --history N                 Number of history entries sent with each turn
  --tts / --no-tts            Turn speech on or off for this run
  --log-level LEVEL           debug, info, warn or error
  -v, --verbose               Debug logging
  -q, --quiet                 Skip the welcome banner
  -h, --help                  Show this help

In a session:
  quit                        Leave the session (Ctrl-D and Ctrl-C work too)
  rb                          Remove the last exchange
  reset                       Clear the conversation history

Environment:
  PERSONACHAT_CONFIG_DIR      Configuration directory
  PERSONACHAT_EXPERT, PERSONACHAT_USER, PERSONACHAT_CONTEXT, PERSONACHAT_LLM_API,
  PERSONACHAT_INSTRUCTION_SET, PERSONACHAT_HISTORY_LENGTH, PERSONACHAT_USE_TTS,
  PERSONACHAT_LOG_LEVEL       Override config settings
  PERSONACHAT_KEY_<NAME>      Override the api_keys entry NAME
  NO_COLOR                    Disable colored output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "personachat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// valueFlags take one argument, as "--flag value" or "--flag=value".
var valueFlags = map[string]bool{
	"--config-dir":      true,
	"--llm":             true,
	"--instruction-set": true,
	"--expert":          true,
	"--user":            true,
	"--context":         true,
	"--history":         true,
	"--log-level":       true,
}

// Parse parses command-line arguments (without the program name) and returns
// the command and args. Flags may appear before or after the command.
func Parse(argv []string) (Command, Args, error) {
	var (
		args       Args
		positional []string
	)

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		if arg == "--" {
			positional = append(positional, argv[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if valueFlags[name] && !hasValue {
			if i+1 >= len(argv) {
				return CmdHelp, args, NewValidationErrorWithExample(name, "", "requires a value", name+" VALUE")
			}
			i++
			value = argv[i]
		} else if !valueFlags[name] && hasValue {
			return CmdHelp, args, NewValidationError("flag", arg, "does not take a value")
		}

		if err := applyFlag(&args, name, value); err != nil {
			return CmdHelp, args, err
		}
	}

	cmd := CmdChat
	if len(positional) > 0 {
		switch strings.ToLower(positional[0]) {
		case "chat":
			cmd = CmdChat
		case "check":
			cmd = CmdCheck
		case "prompt":
			cmd = CmdPrompt
		case "init":
			cmd = CmdInit
		case "version":
			cmd = CmdVersion
		case "help":
			cmd = CmdHelp
		default:
			return CmdHelp, args, NewValidationErrorWithExample("command", positional[0], "unknown command", "personachat help")
		}
		if len(positional) > 1 {
			return CmdHelp, args, NewValidationError("argument", positional[1], "unexpected argument")
		}
	}
	switch {
	case args.help:
		return CmdHelp, args, nil
	case args.version:
		return CmdVersion, args, nil
	}
	if args.Force && cmd != CmdInit {
		return CmdHelp, args, NewValidationError("flag", "--force", "only valid with init")
	}
	return cmd, args, nil
}

func applyFlag(args *Args, name, value string) error {
	switch name {
	case "--config-dir":
		args.ConfigDir = value
	case "--llm":
		args.LLM = value
	case "--instruction-set":
		args.InstructionSet = value
	case "--expert":
		args.Expert = value
	case "--user":
		args.User = value
	case "--context":
		args.Context = value
	case "--log-level":
		args.LogLevel = value
	case "--history":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return NewValidationErrorWithExample("--history", value, "must be a non-negative integer", "--history 10")
		}
		args.History = &n
	case "--tts":
		on := true
		args.TTS = &on
	case "--no-tts":
		off := false
		args.TTS = &off
	case "-v", "--verbose":
		args.Verbose = true
	case "-q", "--quiet":
		args.Quiet = true
	case "--force", "-f":
		args.Force = true
	case "-h", "--help":
		args.help = true
	case "--version":
		args.version = true
	default:
		return NewValidationErrorWithExample("flag", name, "unknown flag", "personachat help")
	}
	return nil
}
