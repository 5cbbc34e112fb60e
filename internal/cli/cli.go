// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for memai.

package cli

import (
	"fmt"
	"os"
	"runtime"
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
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdModels
	CmdHistory
	CmdPrompts
	CmdConfig
	CmdPull
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Model   string // --model overrides the configured model
	Backend string // --backend overrides the configured backend

	// Command-specific
	Query      string
	Subcommand string

	// Raw args remaining after global flag parsing
	Raw []string
}

const usageText = `memai %s - local AI chat for the terminal

Memai talks to language models running on your own machine: a llama.cpp
binary, an Ollama daemon, or (optionally) the HuggingFace Inference API.
Conversations stay on disk under ~/.memai.

Usage:
  memai                        Start the chat TUI (default)
  memai ask "question"         Ask a single question, print the answer
  memai chat                   Interactive chat in plain terminal mode
  memai models [subcommand]    Manage local .gguf models
  memai history [subcommand]   Browse saved conversations
  memai prompts [subcommand]   Manage system prompts
  memai config [subcommand]    Show and edit configuration
  memai pull <model>           Download a model through Ollama
  memai doctor                 Diagnose the local setup
  memai version                Show version information

Global flags:
  --backend <name>    Override the backend: local, ollama, huggingface
  --model <name>      Override the model for this invocation
  --json              Machine-readable output where supported
  -q, --quiet         Suppress stats and banners
  -v, --verbose       More diagnostic output

Model commands:
  memai models list                 List registered models
  memai models add <path> [--name n]  Register a .gguf file
  memai models remove <name>        Remove a registry entry (file stays)
  memai models rename <old> <new>   Rename a registry entry
  memai models scan [dir]           Scan a directory for .gguf files

History commands:
  memai history list                List saved conversations
  memai history show <id|index>     Print a conversation
  memai history search <query>      Search titles and content
  memai history export <id> [--format md|json|html]
  memai history delete <id> [--confirm]
  memai history clear [--confirm]

Prompt commands:
  memai prompts list                List system prompts
  memai prompts show [id]           Show the active (or given) prompt
  memai prompts use <id|name>       Select the active prompt
  memai prompts add --name n --text "..."  Add a custom prompt
  memai prompts delete <id> [--confirm]

Config commands:
  memai config show                 Print the full configuration
  memai config get <key>            Print one value (e.g. ollama.url)
  memai config set <key> <value>    Set and save a value
  memai config path                 Print the config file location

Examples:
  memai ask "explain io.Reader in one paragraph"
  memai --backend ollama --model llama3.2:3b chat
  memai models scan ~/models
  memai history export 0 --format html
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("memai version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseFrom(os.Args[1:])
}

func parseFrom(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		parsedArgs.Subcommand = remaining[0]
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.Join(positionalOnly(remaining), " ")
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "models", "model":
		return CmdModels, parsedArgs

	case "history", "chats":
		return CmdHistory, parsedArgs

	case "prompts", "prompt":
		return CmdPrompts, parsedArgs

	case "config":
		return CmdConfig, parsedArgs

	case "pull", "download":
		return CmdPull, parsedArgs

	case "doctor", "diag":
		return CmdDoctor, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown word: treat the whole invocation as a question so that
		// `memai what is a goroutine` does the obvious thing.
		parsedArgs.Query = strings.Join(append([]string{cmd}, positionalOnly(remaining)...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--backend":
			if i+1 < len(args) {
				i++
				parsedArgs.Backend = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--backend="):
				parsedArgs.Backend = strings.TrimPrefix(arg, "--backend=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// positionalOnly strips flags from an argument list, keeping only the words
// that make up a query.
func positionalOnly(args []string) []string {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
		}
	}
	return out
}

// HandleVersion prints version info, as JSON when requested.
func HandleVersion(args Args) error {
	if args.JSON {
		return outputJSON(map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		})
	}
	PrintVersion()
	return nil
}

// HandleHelp prints the usage text.
func HandleHelp() error {
	PrintUsage()
	return nil
}
