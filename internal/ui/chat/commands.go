// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/memai/internal/config"
)

// handleCommand dispatches a slash command typed into the input.
func (m *Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	cmd := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(text, parts[0]))

	switch cmd {
	case "/help":
		m.status = "commands: /model <name> · /prompt <name> · /clear · /save · /quit"

	case "/model":
		m.cmdModel(arg)

	case "/prompt":
		m.cmdPrompt(arg)

	case "/clear", "/new":
		m.stopGeneration()
		m.saveConversation()
		m.resetConversation()

	case "/save":
		if len(m.conversation.Messages) == 0 {
			m.status = "nothing to save yet"
			break
		}
		if _, err := m.store.Save(m.conversation); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.status = "conversation saved"
		}

	case "/quit", "/exit":
		m.stopGeneration()
		m.saveConversation()
		return m, tea.Quit

	default:
		m.status = fmt.Sprintf("unknown command %s (try /help)", cmd)
	}

	return m, nil
}

// cmdModel switches the active model for the configured backend.
func (m *Model) cmdModel(name string) {
	if name == "" {
		m.status = "current model: " + m.conversation.Model
		if m.registry != nil {
			if refs := m.registry.List(); len(refs) > 0 {
				names := make([]string, len(refs))
				for i, ref := range refs {
					names[i] = ref.Name
				}
				m.status += " · available: " + strings.Join(names, ", ")
			}
		}
		return
	}

	switch m.cfg.Backend {
	case config.BackendOllama:
		m.cfg.Ollama.Model = name
	case config.BackendHuggingFace:
		m.cfg.HuggingFace.Model = name
	default:
		m.cfg.Llama.DefaultModel = name
	}
	m.conversation.Model = name
	m.status = "model set to " + name
}

// cmdPrompt selects a system prompt by name or ID.
func (m *Model) cmdPrompt(name string) {
	if name == "" {
		active := m.prompts.Active()
		m.status = "active prompt: " + active.Name
		return
	}

	for _, p := range m.prompts.All() {
		if strings.EqualFold(p.Name, name) || p.ID == name {
			if err := m.prompts.SetActive(p.ID); err != nil {
				m.status = "failed to set prompt: " + err.Error()
				return
			}
			m.status = "system prompt: " + p.Name
			return
		}
	}
	m.status = fmt.Sprintf("no prompt named %q (use the prompts command to list them)", name)
}
