// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/models"
	"github.com/morganforge/memai/internal/prompts"
)

// Run starts the interactive chat view and blocks until the user quits.
func Run(cfg *config.Config, be backend.Backend, store *history.Store, pm *prompts.Manager) error {
	m := New(cfg, be, store, pm)

	// Best effort: a missing models directory just means no live updates.
	if reg, err := models.NewRegistry(); err == nil {
		if w, err := models.Watch(cfg.Llama.ModelsDir); err == nil {
			defer w.Close()
			m.WatchModels(reg, w)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
