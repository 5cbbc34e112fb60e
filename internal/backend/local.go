// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/llama"
)

// Local runs generations through a llama.cpp subprocess.
type Local struct {
	runner *llama.Runner
	cfg    *config.Config
}

// NewLocal creates the local backend, locating the llama.cpp binary.
func NewLocal(cfg *config.Config) (*Local, error) {
	runner, err := llama.NewRunner(cfg.Llama.BinaryPath)
	if err != nil {
		return nil, err
	}
	return &Local{runner: runner, cfg: cfg}, nil
}

// Name implements Backend.
func (l *Local) Name() string {
	return config.BackendLocal
}

// ModelPath resolves the configured default model to a .gguf path. A bare
// model name resolves inside the models directory.
func (l *Local) ModelPath() (string, error) {
	model := l.cfg.Llama.DefaultModel
	if model == "" {
		return "", fmt.Errorf("no model configured: set llama.default_model")
	}
	if !strings.HasSuffix(model, ".gguf") {
		model += ".gguf"
	}
	if filepath.IsAbs(model) {
		return model, nil
	}
	return filepath.Join(l.cfg.Llama.ModelsDir, model), nil
}

// Stream implements Backend. The message history is flattened into a single
// prompt; llama.cpp CLI binaries have no chat endpoint.
func (l *Local) Stream(ctx context.Context, messages []Message, onToken func(string)) (*Result, error) {
	modelPath, err := l.ModelPath()
	if err != nil {
		return nil, err
	}

	system, prompt := flattenTranscript(messages)
	// The wrapper adds the final "User: ...\nAssistant:" framing itself, so
	// strip the leading role tag before prepending any system text.
	prompt = strings.TrimPrefix(prompt, "User: ")
	if system != "" {
		prompt = system + "\n" + prompt
	}

	res, err := l.runner.GenerateStream(ctx, llama.Request{
		ModelPath:   modelPath,
		Prompt:      prompt,
		MaxTokens:   l.cfg.Generation.MaxTokens,
		Temperature: l.cfg.Generation.Temperature,
		ContextSize: l.cfg.Generation.ContextSize,
		Threads:     l.cfg.Generation.Threads,
		GPULayers:   l.cfg.Llama.GPULayers,
	}, func(text string) {
		if onToken != nil {
			onToken(text)
		}
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Text:     res.Text,
		Duration: res.Duration,
		TTFT:     res.TTFT,
	}
	// The CLI binaries report no token counts; approximate from words so the
	// status bar has something to show.
	words := len(strings.Fields(res.Text))
	if words > 0 && res.Duration > 0 {
		result.CompletionTokens = words
		result.TokensPerSec = float64(words) / res.Duration.Seconds()
	}
	return result, nil
}

// Stop implements Backend.
func (l *Local) Stop() {
	l.runner.Stop()
}
