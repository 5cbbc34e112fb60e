// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParserFlagFormats(t *testing.T) {
	parser := NewArgParser([]string{"show", "--format", "json", "--since=2024-01-01", "--confirm", "-n", "5"})

	if parser.Subcommand() != "show" {
		t.Errorf("Subcommand = %q", parser.Subcommand())
	}
	if parser.Flag("format") != "json" {
		t.Errorf("Flag(format) = %q", parser.Flag("format"))
	}
	if parser.Flag("since") != "2024-01-01" {
		t.Errorf("Flag(since) = %q", parser.Flag("since"))
	}
	if !parser.BoolFlag("confirm") {
		t.Error("BoolFlag(confirm) should be true")
	}
	if parser.Flag("n") != "5" {
		t.Errorf("Flag(n) = %q", parser.Flag("n"))
	}
}

func TestArgParserExplicitBoolValues(t *testing.T) {
	parser := NewArgParser([]string{"--json=true", "--stats=false"})

	if !parser.BoolFlag("json") {
		t.Error("--json=true should parse as true")
	}
	if parser.BoolFlag("stats") {
		t.Error("--stats=false should parse as false")
	}
}

func TestArgParserPositionals(t *testing.T) {
	parser := NewArgParser([]string{"search", "error", "in", "production", "--limit", "10"})

	if parser.PositionalCount() != 4 {
		t.Fatalf("PositionalCount = %d", parser.PositionalCount())
	}
	if got := JoinPositionalArgs(parser, 1); got != "error in production" {
		t.Errorf("JoinPositionalArgs = %q", got)
	}
	if parser.Positional(99) != "" {
		t.Error("out-of-range positional should be empty")
	}
}

func TestArgParserIntFlags(t *testing.T) {
	parser := NewArgParser([]string{"--count", "42", "--bad", "abc"})

	if got := parser.FlagIntOrDefault("count", 7); got != 42 {
		t.Errorf("FlagIntOrDefault(count) = %d", got)
	}
	if got := parser.FlagIntOrDefault("bad", 7); got != 7 {
		t.Errorf("FlagIntOrDefault(bad) = %d, want default", got)
	}
	if got := parser.FlagIntOrDefault("missing", 7); got != 7 {
		t.Errorf("FlagIntOrDefault(missing) = %d, want default", got)
	}
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := parseFrom(nil)
	if cmd != CmdTUI {
		t.Errorf("cmd = %v, want CmdTUI", cmd)
	}
}

func TestParseAskJoinsQuery(t *testing.T) {
	cmd, args := parseFrom([]string{"ask", "what", "is", "a", "goroutine"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Query != "what is a goroutine" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseUnknownWordBecomesQuestion(t *testing.T) {
	cmd, args := parseFrom([]string{"explain", "channels"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Query != "explain channels" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseFrom([]string{"--backend", "ollama", "--model=llama3.2:3b", "-q", "chat"})
	if cmd != CmdChat {
		t.Fatalf("cmd = %v, want CmdChat", cmd)
	}
	if args.Backend != "ollama" {
		t.Errorf("Backend = %q", args.Backend)
	}
	if args.Model != "llama3.2:3b" {
		t.Errorf("Model = %q", args.Model)
	}
	if !args.Quiet {
		t.Error("Quiet should be set")
	}
}

func TestParseSubcommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
		sub  string
	}{
		{[]string{"models", "list"}, CmdModels, "list"},
		{[]string{"model", "add", "/tmp/a.gguf"}, CmdModels, "add"},
		{[]string{"history", "export", "0"}, CmdHistory, "export"},
		{[]string{"prompts", "use", "coding"}, CmdPrompts, "use"},
		{[]string{"config", "set", "ui.theme", "dark"}, CmdConfig, "set"},
		{[]string{"pull", "llama3.2:3b"}, CmdPull, "llama3.2:3b"},
		{[]string{"doctor"}, CmdDoctor, ""},
		{[]string{"version"}, CmdVersion, ""},
		{[]string{"help"}, CmdHelp, ""},
	}

	for _, tt := range tests {
		cmd, args := parseFrom(tt.argv)
		if cmd != tt.want {
			t.Errorf("parseFrom(%v) cmd = %v, want %v", tt.argv, cmd, tt.want)
		}
		if args.Subcommand != tt.sub {
			t.Errorf("parseFrom(%v) sub = %q, want %q", tt.argv, args.Subcommand, tt.sub)
		}
	}
}

// =============================================================================
// ERROR HANDLING TESTS
// =============================================================================

func TestExitCodeFor(t *testing.T) {
	if got := ExitCodeFor(nil); got != ExitSuccess {
		t.Errorf("ExitCodeFor(nil) = %d", got)
	}
	if got := ExitCodeFor(NewUsageError("x", "bad")); got != ExitUsageError {
		t.Errorf("usage error exit code = %d", got)
	}
	if got := ExitCodeFor(NewNotFoundError("x", "thing")); got != ExitNotFoundError {
		t.Errorf("not-found exit code = %d", got)
	}
}

func TestCommandErrorMessage(t *testing.T) {
	err := NewNotFoundError("history", "conversation \"abc\"")
	if !strings.Contains(err.Error(), "history") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error() = %q", err.Error())
	}
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

func TestWrapTextPreservesNewlines(t *testing.T) {
	in := "short line\nanother"
	if got := WrapText(in, 40); got != in {
		t.Errorf("WrapText changed text that fits: %q", got)
	}
}

func TestWrapTextWrapsLongLines(t *testing.T) {
	in := strings.Repeat("word ", 20)
	out := WrapText(strings.TrimSpace(in), 30)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 30 {
			t.Errorf("line too long after wrap: %q", line)
		}
	}
}
