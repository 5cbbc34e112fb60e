// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides a unified streaming interface over the three
// inference engines: a local llama.cpp subprocess, the Ollama HTTP API, and
// the HuggingFace Inference API.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/config"
)

// Message is one turn of a conversation handed to a backend.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Result holds the outcome of a completed generation.
type Result struct {
	// Text is the full response
	Text string
	// Duration is wall time for the whole generation
	Duration time.Duration
	// TTFT is the time to the first token
	TTFT time.Duration
	// Token accounting; zero when the engine does not report it
	PromptTokens     int
	CompletionTokens int
	TokensPerSec     float64
}

// StatsLine returns a one-line summary for status bars, or "" when the
// engine reported no token counts.
func (r *Result) StatsLine() string {
	if r.CompletionTokens == 0 {
		return ""
	}
	return fmt.Sprintf("%d tokens | %.1f tok/s", r.CompletionTokens, r.TokensPerSec)
}

// Backend is a streaming inference engine.
//
// Stream blocks until the generation completes, invoking onToken for each
// piece of response text as it arrives. Cancel via the context. Stop
// terminates an in-flight local generation; for HTTP backends cancelling
// the context is sufficient and Stop is a no-op.
type Backend interface {
	Name() string
	Stream(ctx context.Context, messages []Message, onToken func(string)) (*Result, error)
	Stop()
}

// New builds the backend selected by cfg.Backend.
func New(cfg *config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return NewLocal(cfg)
	case config.BackendOllama:
		return NewOllama(cfg), nil
	case config.BackendHuggingFace:
		return NewHuggingFace(cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Backend)
	}
}

// flattenTranscript renders a message history as a plain-text prompt for
// engines that take a single prompt string. The system message leads,
// followed by alternating User/Assistant turns.
func flattenTranscript(messages []Message) (system, prompt string) {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("User: " + m.Content)
		case "assistant":
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("Assistant: " + m.Content)
		}
	}
	return system, b.String()
}
