// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"time"

	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/ollama"
)

// Ollama streams generations through a local Ollama daemon.
type Ollama struct {
	client *ollama.Client
	cfg    *config.Config
}

// NewOllama creates the Ollama backend.
func NewOllama(cfg *config.Config) *Ollama {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		DefaultModel: cfg.Ollama.Model,
	})
	return &Ollama{client: client, cfg: cfg}
}

// Name implements Backend.
func (o *Ollama) Name() string {
	return config.BackendOllama
}

// Client exposes the underlying Ollama client for model management.
func (o *Ollama) Client() *ollama.Client {
	return o.client
}

// EnsureRunning starts the daemon if autostart is enabled, otherwise just
// checks reachability.
func (o *Ollama) EnsureRunning(ctx context.Context) error {
	if o.cfg.Ollama.AutoStart {
		return o.client.EnsureRunning(ctx)
	}
	return o.client.CheckRunning(ctx)
}

// Stream implements Backend using the chat endpoint with full history.
func (o *Ollama) Stream(ctx context.Context, messages []Message, onToken func(string)) (*Result, error) {
	msgs := make([]ollama.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
	}

	opts := &ollama.Options{
		Temperature: o.cfg.Generation.Temperature,
		NumPredict:  o.cfg.Generation.MaxTokens,
		NumCtx:      o.cfg.Generation.ContextSize,
		NumThread:   o.cfg.Generation.Threads,
	}

	start := time.Now()
	acc := ollama.NewStreamAccumulator()
	err := o.client.ChatStream(ctx, o.cfg.Ollama.Model, msgs, opts, func(chunk ollama.StreamChunk) {
		acc.Add(chunk)
		if chunk.Content != "" && onToken != nil {
			onToken(chunk.Content)
		}
	})
	if err != nil {
		return nil, err
	}
	if acc.Error != nil {
		return nil, acc.Error
	}

	stats := acc.Stats
	return &Result{
		Text:             acc.Content(),
		Duration:         time.Since(start),
		TTFT:             stats.TTFT,
		PromptTokens:     stats.PromptTokens,
		CompletionTokens: stats.CompletionTokens,
		TokensPerSec:     stats.TokensPerSecond,
	}, nil
}

// Stop implements Backend. Cancelling the stream context is enough for an
// HTTP backend.
func (o *Ollama) Stop() {}
