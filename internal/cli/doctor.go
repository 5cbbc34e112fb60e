// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Diagnose the local setup: host resources, llama.cpp binary,
// Ollama daemon, HuggingFace key, config validity.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/detect"
	"github.com/morganforge/memai/internal/llama"
	"github.com/morganforge/memai/internal/models"
)

// checkResult is one line of doctor output.
type checkResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail"`
	Fatal   bool   `json:"fatal,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// HandleDoctor runs all diagnostics and prints a report.
func HandleDoctor(args Args) error {
	cfg := config.Global()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	results := []checkResult{
		checkHost(),
		checkConfig(cfg),
		checkLlamaBinary(cfg),
		checkModels(cfg),
		checkOllama(ctx, cfg),
		checkHuggingFace(ctx, cfg),
	}

	if args.JSON {
		return outputJSON(results)
	}

	fmt.Println(TitleStyle.Render("memai doctor"))
	failures := 0
	for _, r := range results {
		var marker string
		switch {
		case r.Skipped:
			marker = MutedStyle.Render("SKIP")
		case r.OK:
			marker = SuccessStyle.Render(" OK ")
		default:
			marker = ErrorStyle.Render("FAIL")
			failures++
		}
		fmt.Printf("[%s] %s\n", marker, r.Name)
		if r.Detail != "" {
			fmt.Println("       " + MutedStyle.Render(r.Detail))
		}
	}

	fmt.Println()
	if failures == 0 {
		fmt.Println(SuccessStyle.Render("everything looks good"))
	} else {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("%d check(s) failed", failures)))
	}
	return nil
}

func checkHost() checkResult {
	host := detect.Probe()
	return checkResult{
		Name:   "host resources",
		OK:     true,
		Detail: host.Summary() + fmt.Sprintf(" · recommended threads: %d", host.RecommendedThreads()),
	}
}

func checkConfig(cfg *config.Config) checkResult {
	if err := cfg.Validate(); err != nil {
		return checkResult{Name: "configuration", OK: false, Detail: err.Error()}
	}
	return checkResult{Name: "configuration", OK: true, Detail: "backend: " + cfg.Backend}
}

func checkLlamaBinary(cfg *config.Config) checkResult {
	path, err := llama.Locate(cfg.Llama.BinaryPath)
	if err != nil {
		detail := "no llama.cpp binary found; install llama.cpp or set llama.binary_path"
		if cfg.Backend != config.BackendLocal {
			return checkResult{Name: "llama.cpp binary", OK: true, Skipped: true, Detail: detail}
		}
		return checkResult{Name: "llama.cpp binary", OK: false, Detail: detail}
	}
	return checkResult{Name: "llama.cpp binary", OK: true, Detail: path}
}

func checkModels(cfg *config.Config) checkResult {
	registry, err := models.NewRegistry()
	if err != nil {
		return checkResult{Name: "model registry", OK: false, Detail: err.Error()}
	}

	refs := registry.List()
	if len(refs) == 0 {
		scanned, _ := models.Scan(cfg.Llama.ModelsDir)
		if len(scanned) > 0 {
			return checkResult{
				Name:   "local models",
				OK:     true,
				Detail: fmt.Sprintf("%d unregistered .gguf file(s) in %s; run: memai models scan", len(scanned), cfg.Llama.ModelsDir),
			}
		}
		return checkResult{
			Name:   "local models",
			OK:     cfg.Backend != config.BackendLocal,
			Detail: "no .gguf models registered (memai models add <path>)",
		}
	}
	return checkResult{Name: "local models", OK: true, Detail: fmt.Sprintf("%d model(s) registered", len(refs))}
}

func checkOllama(ctx context.Context, cfg *config.Config) checkResult {
	if !backend.TestOllamaConnection(ctx, cfg.Ollama.URL) {
		detail := fmt.Sprintf("daemon not reachable at %s", cfg.Ollama.URL)
		if cfg.Backend != config.BackendOllama {
			return checkResult{Name: "ollama daemon", OK: true, Skipped: true, Detail: detail}
		}
		if cfg.Ollama.AutoStart {
			detail += " (auto-start will be attempted on first use)"
		}
		return checkResult{Name: "ollama daemon", OK: false, Detail: detail}
	}
	return checkResult{Name: "ollama daemon", OK: true, Detail: cfg.Ollama.URL}
}

func checkHuggingFace(ctx context.Context, cfg *config.Config) checkResult {
	if cfg.HuggingFace.APIKey == "" {
		return checkResult{
			Name:    "huggingface api key",
			OK:      cfg.Backend != config.BackendHuggingFace,
			Skipped: cfg.Backend != config.BackendHuggingFace,
			Detail:  "not configured (MEMAI_HF_API_KEY or huggingface.api_key)",
		}
	}
	if !backend.TestHFAPIKey(ctx, cfg.HuggingFace.APIKey) {
		return checkResult{Name: "huggingface api key", OK: false, Detail: "key rejected by HuggingFace API"}
	}
	return checkResult{Name: "huggingface api key", OK: true, Detail: "key accepted"}
}
