// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/mattn/go-runewidth"

	"github.com/morganforge/memai/internal/history"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("memai")
	meta := m.theme.HeaderMeta.Render("  " + m.conversation.Title)
	return title + meta + "\n" + m.theme.HeaderMeta.Render(strings.Repeat("─", max(m.width, 1)))
}

func (m *Model) renderInput() string {
	if m.state == StateStreaming {
		thinking := m.theme.Thinking.Render("generating... press esc to cancel")
		return m.spinner.View() + " " + thinking + "\n"
	}
	return m.theme.InputPrompt.Render("> ") + m.input.View()
}

// renderStatusBar lays out backend/model on the left and stats or feedback
// on the right, padded to the full terminal width.
func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s · %s ", m.backend.Name(), m.conversation.Model)

	right := ""
	switch {
	case m.lastError != "":
		right = " error: " + m.lastError + " "
	case m.status != "":
		right = " " + m.status + " "
	case m.lastStats != "":
		right = " " + m.lastStats + " "
	}

	gap := m.width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		right = runewidth.Truncate(right, max(m.width-runewidth.StringWidth(left), 0), "…")
		gap = max(m.width-runewidth.StringWidth(left)-runewidth.StringWidth(right), 0)
	}

	bar := m.theme.StatusBackend.Render(left) +
		m.theme.StatusBar.Render(strings.Repeat(" ", gap))
	if m.lastError != "" {
		return bar + m.theme.ErrorText.Render(right)
	}
	return bar + m.theme.StatusStats.Render(right)
}

// refreshViewport re-renders the transcript. When follow is true the view
// sticks to the bottom, the behavior wanted while streaming.
func (m *Model) refreshViewport(follow bool) {
	if m.viewport.Width == 0 {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders all completed turns plus the streaming buffer.
func (m *Model) renderTranscript() string {
	var b strings.Builder

	for _, msg := range m.conversation.Messages {
		b.WriteString(m.renderMessage(msg))
	}

	if m.state == StateStreaming {
		b.WriteString(m.theme.AssistantLabel.Render(history.RoleAssistant.DisplayName()))
		b.WriteString("\n")
		if m.streamBuf != "" {
			// Plain text while streaming; markdown is rendered once the
			// turn completes so partial fences don't flicker.
			b.WriteString(m.streamBuf)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m *Model) renderMessage(msg history.Message) string {
	var b strings.Builder

	switch msg.Role {
	case history.RoleUser:
		b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(m.theme.UserText.Render(msg.Content))
		b.WriteString("\n")
	case history.RoleAssistant:
		b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(m.renderMarkdown(msg.Content), "\n"))
		b.WriteString("\n")
		if m.cfg.UI.ShowStats && msg.TokenCount > 0 {
			b.WriteString(m.theme.MessageStats.Render(
				fmt.Sprintf("%d tokens · %.1f tok/s", msg.TokenCount, msg.TokensPerSec)))
			b.WriteString("\n")
		}
	default:
		b.WriteString(m.theme.SystemLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(m.theme.HeaderMeta.Render(msg.Content))
		b.WriteString("\n")
	}

	if !m.cfg.UI.CompactMode {
		b.WriteString("\n")
	}
	return b.String()
}
