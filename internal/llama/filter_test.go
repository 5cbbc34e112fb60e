// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llama

import (
	"strings"
	"testing"
)

func runFilter(lines []string) (out []string, stopped bool) {
	f := NewOutputFilter()
	for _, line := range lines {
		clean, stop := f.Process(line)
		if stop {
			return out, true
		}
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out, false
}

func TestFilterSkipsMetadata(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"metal init", "ggml_metal_init: allocating"},
		{"loader", "llama_model_loader: loaded meta data with 20 key-value pairs"},
		{"load tensors", "llm_load_tensors: ggml ctx size = 0.11 MiB"},
		{"build info", "build = 3089 (commit abc)"},
		{"loading", "Loading model..."},
		{"ascii art", "▄▄▄▄▄▄▄▄"},
		{"help banner", "available commands:"},
		{"exit cmd", "  /exit - quit"},
		{"template token line", "<|im_start|>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewOutputFilter()
			clean, stop := f.Process(tt.line)
			if clean != "" || stop {
				t.Errorf("Process(%q) = (%q, %v), want filtered", tt.line, clean, stop)
			}
		})
	}
}

func TestFilterStripsANSI(t *testing.T) {
	f := NewOutputFilter()
	clean, _ := f.Process("\x1b[32mHello\x1b[0m world")
	if clean != "Hello world" {
		t.Errorf("clean = %q", clean)
	}
}

func TestFilterSkipsPromptEcho(t *testing.T) {
	out, _ := runFilter([]string{
		"User: What is the capital of France?",
		"Assistant:",
		"The capital of France is Paris.",
	})
	if len(out) != 1 || out[0] != "The capital of France is Paris." {
		t.Errorf("out = %q", out)
	}
}

func TestFilterStopsAtStats(t *testing.T) {
	out, stopped := runFilter([]string{
		"Paris is the capital.",
		"[ Prompt: 12 tokens, 80.1 t/s ]",
		"this should never appear",
	})
	if !stopped {
		t.Fatal("expected stop at stats line")
	}
	if len(out) != 1 || out[0] != "Paris is the capital." {
		t.Errorf("out = %q", out)
	}
}

func TestFilterStopsAtTokensPerSec(t *testing.T) {
	_, stopped := runFilter([]string{"answer", "llama_print_timings: 42.0 t/s ]"})
	if !stopped {
		t.Error("expected stop at t/s line")
	}
}

func TestFilterSuppressesDuplicates(t *testing.T) {
	out, _ := runFilter([]string{
		"The answer is 42.",
		"The answer is 42.",
	})
	if len(out) != 1 {
		t.Errorf("got %d lines, want 1: %q", len(out), out)
	}
}

func TestFilterDropsDotAnimation(t *testing.T) {
	out, _ := runFilter([]string{"...", ".", "Real content"})
	if len(out) != 1 || out[0] != "Real content" {
		t.Errorf("out = %q", out)
	}
}

func TestFilterStripsTemplateTokensInline(t *testing.T) {
	f := NewOutputFilter()
	clean, _ := f.Process("Hello<|end|> there")
	if strings.Contains(clean, "<|end|>") {
		t.Errorf("clean = %q still has template token", clean)
	}
}

func TestFilterStripsBotPrefix(t *testing.T) {
	f := NewOutputFilter()
	clean, _ := f.Process("Bot: Hello there")
	if clean != "Hello there" {
		t.Errorf("clean = %q", clean)
	}
}

func TestFilterDropsStandaloneMarkers(t *testing.T) {
	out, _ := runFilter([]string{">", "content"})
	if len(out) != 1 || out[0] != "content" {
		t.Errorf("out = %q", out)
	}
}

func TestFilterStripsLeadingMarker(t *testing.T) {
	f := NewOutputFilter()
	clean, _ := f.Process("> quoted answer")
	if clean != "quoted answer" {
		t.Errorf("clean = %q", clean)
	}
}

func TestFilterKeepsParagraphBreaks(t *testing.T) {
	out, _ := runFilter([]string{
		"First paragraph.",
		"",
		"Second paragraph.",
	})
	if len(out) != 3 {
		t.Fatalf("got %d lines: %q", len(out), out)
	}
	if out[1] != "\n" {
		t.Errorf("middle line = %q, want paragraph break", out[1])
	}
}
