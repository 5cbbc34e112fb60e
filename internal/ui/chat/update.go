// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/llama"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tokenMsg:
		return m.handleToken(msg)
	case doneMsg:
		return m.handleDone(msg)
	case genErrMsg:
		return m.handleError(msg)
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case modelsChangedMsg:
		return m.handleModelsChanged()
	}

	return m.updateComponents(msg)
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	inputHeight := m.input.Height() + 2
	statusHeight := 1
	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if m.viewport.Width == 0 {
		m.viewport = newViewport(msg.Width, vpHeight)
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 4)

	m.rebuildRenderer()
	m.refreshViewport(true)
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopGeneration()
		m.saveConversation()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateStreaming {
			m.finishCancelled()
			return m, nil
		}

	case key.Matches(msg, m.keys.NewChat):
		m.stopGeneration()
		m.saveConversation()
		m.resetConversation()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.status = ""

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}

	if m.state == StateStreaming {
		// A new question supersedes the in-flight answer.
		m.finishCancelled()
	}

	m.conversation.Append(history.RoleUser, text)
	m.refreshViewport(true)
	return m, m.startGeneration()
}

func (m *Model) handleToken(msg tokenMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		// Token from a cancelled generation.
		return m, m.waitForEvent()
	}
	m.streamBuf += msg.text

	// PERFORMANCE: re-rendering the transcript on every token is wasteful
	// for fast engines; the limiter bounds refreshes, done/cancel always
	// renders the final state.
	if m.limiter.Allow() {
		m.refreshViewport(true)
	}
	return m, m.waitForEvent()
}

func (m *Model) handleDone(msg doneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, m.waitForEvent()
	}

	text := m.streamBuf
	if msg.result != nil && msg.result.Text != "" {
		text = msg.result.Text
	}
	assistant := m.conversation.Append(history.RoleAssistant, text)

	if msg.result != nil {
		assistant.TokenCount = msg.result.CompletionTokens
		assistant.DurationMs = msg.result.Duration.Milliseconds()
		assistant.TokensPerSec = msg.result.TokensPerSec
		if m.cfg.UI.ShowStats {
			m.lastStats = msg.result.StatsLine()
		}
	}

	m.streamBuf = ""
	m.state = StateReady
	m.cancel = nil
	m.saveConversation()
	m.refreshViewport(true)
	return m, m.waitForEvent()
}

func (m *Model) handleError(msg genErrMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, m.waitForEvent()
	}

	if isCancel(msg.err) {
		m.finishCancelled()
		return m, m.waitForEvent()
	}

	m.lastError = msg.err.Error()
	m.streamBuf = ""
	m.state = StateReady
	m.cancel = nil
	m.refreshViewport(true)
	return m, m.waitForEvent()
}

// finishCancelled stops the in-flight generation and keeps whatever partial
// text already arrived as the assistant turn.
func (m *Model) finishCancelled() {
	m.stopGeneration()
	m.gen++ // orphan any messages still in flight

	if m.streamBuf != "" {
		m.conversation.Append(history.RoleAssistant, m.streamBuf)
		m.streamBuf = ""
	}
	m.state = StateReady
	m.status = "generation cancelled"
	m.refreshViewport(true)
}

// handleModelsChanged re-syncs the model registry after .gguf files changed
// on disk, then re-arms the watch.
func (m *Model) handleModelsChanged() (tea.Model, tea.Cmd) {
	if m.registry != nil {
		if added, err := m.registry.Sync(m.cfg.Llama.ModelsDir); err == nil && added > 0 {
			m.status = fmt.Sprintf("models directory changed: %d new model(s), see /model", added)
		} else if err == nil {
			m.status = "models directory changed"
		}
	}
	return m, m.waitForModelChange()
}

func (m *Model) resetConversation() {
	m.conversation = newConversation(m.cfg, m.backend)
	m.streamBuf = ""
	m.lastError = ""
	m.lastStats = ""
	m.status = "new conversation"
	m.state = StateReady
	m.refreshViewport(true)
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.state == StateReady {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// isCancel reports whether err means the user stopped the generation rather
// than the engine failing.
func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || llama.IsCanceled(err)
}
