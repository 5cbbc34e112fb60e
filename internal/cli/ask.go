// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command: stream the answer to stdout and exit.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/prompts"
)

// HandleAsk runs a single prompt against the configured backend and
// streams the answer to stdout.
func HandleAsk(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return NewUsageError("ask", `usage: memai ask "your question"`)
	}

	cfg := configWithOverrides(args)
	be, err := backend.New(cfg)
	if err != nil {
		return WrapError("ask", "backend setup failed", err, ExitConfigError)
	}
	if err := ensureBackendReady(cfg, be); err != nil {
		return err
	}

	msgs := []backend.Message{}
	if pm, err := prompts.NewManager(); err == nil {
		if text := pm.Active().Text; text != "" {
			msgs = append(msgs, backend.Message{Role: "system", Content: text})
		}
	}
	msgs = append(msgs, backend.Message{Role: "user", Content: query})

	// Ctrl+C cancels the generation instead of killing the process so the
	// backend can tear down its subprocess cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := be.Stream(ctx, msgs, func(token string) {
		fmt.Print(token)
	})
	fmt.Println()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, MutedStyle.Render("cancelled"))
			return nil
		}
		return WrapError("ask", "generation failed", err, ExitGeneralError)
	}

	if cfg.UI.ShowStats && !args.Quiet && result != nil {
		fmt.Fprintln(os.Stderr, MutedStyle.Render(result.StatsLine()))
	}

	saveAskTranscript(cfg, be, query, result)
	return nil
}

// saveAskTranscript records a one-shot exchange in history when enabled.
func saveAskTranscript(cfg *config.Config, be backend.Backend, query string, result *backend.Result) {
	if !cfg.History.Enabled || result == nil || result.Text == "" {
		return
	}
	store, err := history.NewStore()
	if err != nil {
		return
	}
	store.MaxConversations = cfg.History.MaxConversations

	conv := history.NewConversation(activeModel(cfg))
	conv.Backend = be.Name()
	conv.Append(history.RoleUser, query)
	assistant := conv.Append(history.RoleAssistant, result.Text)
	assistant.TokenCount = result.CompletionTokens
	assistant.DurationMs = result.Duration.Milliseconds()
	assistant.TokensPerSec = result.TokensPerSec
	store.Save(conv)
}

// configWithOverrides loads the global config and applies CLI overrides.
func configWithOverrides(args Args) *config.Config {
	cfg := config.Global()
	if args.Backend != "" {
		cfg.Backend = strings.ToLower(args.Backend)
	}
	if args.Model != "" {
		switch cfg.Backend {
		case config.BackendOllama:
			cfg.Ollama.Model = args.Model
		case config.BackendHuggingFace:
			cfg.HuggingFace.Model = args.Model
		default:
			cfg.Llama.DefaultModel = args.Model
		}
	}
	return cfg
}

// activeModel returns the model name for the configured backend.
func activeModel(cfg *config.Config) string {
	switch cfg.Backend {
	case config.BackendOllama:
		return cfg.Ollama.Model
	case config.BackendHuggingFace:
		return cfg.HuggingFace.Model
	default:
		return cfg.Llama.DefaultModel
	}
}

// ensureBackendReady performs backend-specific startup work, such as
// launching the Ollama daemon when auto-start is enabled.
func ensureBackendReady(cfg *config.Config, be backend.Backend) error {
	if ob, ok := be.(*backend.Ollama); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ob.EnsureRunning(ctx); err != nil {
			return WrapError("ask", "ollama is not reachable", err, ExitNetworkError)
		}
	}
	return nil
}
