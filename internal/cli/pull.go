// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// pull.go - Download a model through the Ollama daemon with progress.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/ollama"
)

// HandlePull downloads a model through Ollama, rendering progress on one
// line. The daemon is auto-started when the config allows it.
func HandlePull(args Args) error {
	parser := NewArgParser(args.Raw)
	model := parser.Positional(0)
	if model == "" {
		model = args.Model
	}
	if model == "" {
		return NewUsageError("pull", "usage: memai pull <model> (e.g. memai pull llama3.2:3b)")
	}

	cfg := config.Global()
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		DefaultModel: cfg.Ollama.Model,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Ollama.AutoStart {
		if err := client.EnsureRunning(ctx); err != nil {
			return WrapError("pull", "ollama is not reachable", err, ExitNetworkError)
		}
	} else if err := client.CheckRunning(ctx); err != nil {
		return WrapError("pull", "ollama is not running", err, ExitNetworkError)
	}

	fmt.Printf("Pulling %s...\n", model)

	var lastStatus string
	err := client.Pull(ctx, model, func(p ollama.PullProgress) {
		if pct := p.Percent(); pct >= 0 {
			fmt.Printf("\r%-30s %5.1f%%", p.Status, pct)
			lastStatus = p.Status
			return
		}
		if p.Status != lastStatus {
			if lastStatus != "" {
				fmt.Println()
			}
			fmt.Printf("\r%s", p.Status)
			lastStatus = p.Status
		}
	})
	fmt.Println()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, MutedStyle.Render("cancelled"))
			return nil
		}
		return WrapError("pull", "download failed", err, ExitNetworkError)
	}

	fmt.Println(SuccessStyle.Render("pulled ") + model)
	if cfg.Ollama.Model == "" {
		fmt.Println(MutedStyle.Render("tip: set it as default with: memai config set ollama.model " + strings.TrimSpace(model)))
	}
	return nil
}
