// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llama

import (
	"regexp"
	"strings"
)

// =============================================================================
// OUTPUT FILTER
// =============================================================================

// skipPatterns match loader metadata and other noise mixed into llama.cpp
// output. A line containing any of these is dropped entirely.
var skipPatterns = []string{
	"ggml_metal",
	"llama_model_loader",
	"llm_load_",
	"build =",
	"Loading model",
	"▄▄", // ASCII art banner
	"available commands",
	"/exit",
	"/regen",
	"<|user|>",
	"<|assistant|>",
	"<|system|>",
	"<|end|>",
	"<|im_start|>",
	"<|im_end|>",
}

// templateTokens are chat template markers stripped from within a line
// that otherwise carries content.
var templateTokens = []string{
	"<|user|>",
	"<|assistant|>",
	"<|system|>",
	"<|end|>",
	"<|im_start|>",
	"<|im_end|>",
}

// ansiRe matches SGR color escape sequences.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// OutputFilter turns raw llama.cpp output lines into clean response text.
// It drops metadata and prompt echo, strips ANSI colors and template
// tokens, suppresses near-duplicate lines, and detects the trailing
// statistics line that marks the end of the response.
//
// The filter is stateful and single-use: one generation per filter.
type OutputFilter struct {
	capturing bool
	lastLine  string
}

// NewOutputFilter creates a filter for one generation.
func NewOutputFilter() *OutputFilter {
	return &OutputFilter{}
}

// Process handles one raw output line. It returns the cleaned line to emit
// (empty when the line was filtered out) and stop=true when the line marks
// the end of the response.
func (f *OutputFilter) Process(line string) (clean string, stop bool) {
	for _, p := range skipPatterns {
		if strings.Contains(line, p) {
			return "", false
		}
	}

	trimmed := strings.TrimSpace(line)

	// Blank lines before any content are loader spacing, not response text.
	if !f.capturing && trimmed == "" {
		return "", false
	}

	// Dot-only lines are the loading animation.
	if trimmed != "" && strings.Trim(trimmed, ".") == "" {
		return "", false
	}

	// Prompt echo.
	if strings.Contains(line, "User:") && !strings.Contains(line, "Assistant:") {
		return "", false
	}
	if trimmed == "Assistant:" {
		f.capturing = true
		return "", false
	}
	if strings.HasPrefix(trimmed, "Bot:") && trimmed == "Bot:" {
		return "", false
	}

	// The statistics line ends the response.
	if strings.Contains(line, "[ Prompt:") || strings.Contains(line, "t/s ]") {
		return "", true
	}

	if trimmed == ">" {
		return "", false
	}

	if trimmed == "" {
		// Blank line inside the response: keep the paragraph break.
		return "\n", false
	}

	f.capturing = true

	clean = ansiRe.ReplaceAllString(line, "")
	clean = strings.TrimLeft(clean, "> ")
	for _, tok := range templateTokens {
		clean = strings.ReplaceAll(clean, tok, "")
	}
	if rest, ok := strings.CutPrefix(strings.TrimSpace(clean), "Bot:"); ok {
		clean = strings.TrimLeft(rest, " ")
	}

	// Some models restate the previous line verbatim or nearly so; drop the
	// repeat instead of doubling output.
	current := strings.TrimSpace(clean)
	if current != "" && f.lastLine != "" {
		if current == f.lastLine {
			return "", false
		}
		if strings.Contains(current, f.lastLine) || strings.Contains(f.lastLine, current) {
			if len(current) < len(f.lastLine)*3/2 {
				return "", false
			}
		}
	}
	if current != "" {
		f.lastLine = current
	}

	if strings.TrimSpace(clean) == "" {
		return "", false
	}
	return clean, false
}
