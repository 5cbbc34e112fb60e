// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// memai is a terminal chat client for language models running on your own
// machine: a llama.cpp binary, an Ollama daemon, or the HuggingFace
// Inference API. Run it bare for the TUI, or use the subcommands for
// one-shot questions, model management, and history.
package main

import (
	"os"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/cli"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/prompts"
	"github.com/morganforge/memai/internal/ui/chat"
)

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdModels:
		err = cli.HandleModels(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdPrompts:
		err = cli.HandlePrompts(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdPull:
		err = cli.HandlePull(args)
	case cli.CmdDoctor:
		err = cli.HandleDoctor(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp()
	}

	if err != nil {
		cli.ReportError(err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

// runTUI wires the config, backend, history store, and prompt manager into
// the full-screen chat interface.
func runTUI(args cli.Args) error {
	cfg := config.Global()
	if args.Backend != "" {
		cfg.Backend = args.Backend
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

	be, err := backend.New(cfg)
	if err != nil {
		return err
	}

	store, err := history.NewStore()
	if err != nil {
		return err
	}
	store.MaxConversations = cfg.History.MaxConversations

	pm, err := prompts.NewManager()
	if err != nil {
		return err
	}

	return chat.Run(cfg, be, store, pm)
}
