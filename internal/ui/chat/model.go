// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view: a scrollback viewport with
// glamour-rendered assistant markdown, a textarea input, and a status bar.
// One background worker streams tokens from the active backend; starting a
// new generation cancels the previous one first.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"golang.org/x/time/rate"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/models"
	"github.com/morganforge/memai/internal/prompts"
	"github.com/morganforge/memai/internal/ui/styles"
)

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // ready for input
	StateStreaming              // receiving a response
)

// refreshInterval bounds how often streaming tokens trigger a full viewport
// re-render; tokens still accumulate between refreshes.
const refreshInterval = 80 * time.Millisecond

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	// Engine and persistence
	cfg     *config.Config
	backend backend.Backend
	store   *history.Store
	prompts *prompts.Manager

	// Conversation state
	conversation *history.Conversation
	streamBuf    string // partial assistant response during streaming

	// Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// Markdown rendering
	renderer *glamour.TermRenderer

	// Models directory watching; nil when watching is not set up
	registry *models.Registry
	watcher  *models.Watcher

	// Streaming plumbing. Each generation gets a sequence number; messages
	// from older generations are dropped after a cancel.
	events  chan tea.Msg
	cancel  context.CancelFunc
	gen     int
	limiter *rate.Limiter

	// Transient feedback
	status    string
	lastError string
	lastStats string
}

// New creates the chat model.
func New(cfg *config.Config, be backend.Backend, store *history.Store, pm *prompts.Manager) *Model {
	theme := styles.New(cfg.UI.Theme)

	ta := textarea.New()
	ta.Placeholder = "Type a message... (/help for commands)"
	ta.CharLimit = 0
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		state:        StateReady,
		theme:        theme,
		keys:         DefaultKeyMap(),
		cfg:          cfg,
		backend:      be,
		store:        store,
		prompts:      pm,
		conversation: newConversation(cfg, be),
		input:        ta,
		spinner:      sp,
		events:       make(chan tea.Msg, 64),
		limiter:      rate.NewLimiter(rate.Every(refreshInterval), 1),
	}
	return m
}

func newConversation(cfg *config.Config, be backend.Backend) *history.Conversation {
	conv := history.NewConversation(activeModelName(cfg))
	conv.Backend = be.Name()
	return conv
}

// activeModelName returns the display model name for the configured backend.
func activeModelName(cfg *config.Config) string {
	switch cfg.Backend {
	case config.BackendOllama:
		return cfg.Ollama.Model
	case config.BackendHuggingFace:
		return cfg.HuggingFace.Model
	default:
		return cfg.Llama.DefaultModel
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.waitForModelChange())
}

// waitForEvent delivers the next message from the streaming worker.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// WatchModels attaches a model registry and a directory watcher so freshly
// downloaded .gguf files show up without a restart.
func (m *Model) WatchModels(reg *models.Registry, w *models.Watcher) {
	m.registry = reg
	m.watcher = w
}

// waitForModelChange delivers the next models-directory notification.
func (m *Model) waitForModelChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.Changes()
	return func() tea.Msg {
		<-ch
		return modelsChangedMsg{}
	}
}

// rebuildRenderer recreates the glamour renderer for the current width.
func (m *Model) rebuildRenderer() {
	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = r
	}
}

// renderMarkdown renders assistant text, falling back to plain text when
// the renderer is unavailable.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// startGeneration launches the background worker for the current
// conversation. Any in-flight generation is cancelled first.
func (m *Model) startGeneration() tea.Cmd {
	m.stopGeneration()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	gen := m.gen
	m.streamBuf = ""
	m.lastError = ""
	m.state = StateStreaming

	msgs := backendMessages(m.conversation, m.prompts.Active().Text)
	be := m.backend
	events := m.events

	go func() {
		result, err := be.Stream(ctx, msgs, func(token string) {
			select {
			case events <- tokenMsg{gen: gen, text: token}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			events <- genErrMsg{gen: gen, err: err}
			return
		}
		events <- doneMsg{gen: gen, result: result}
	}()

	return m.spinner.Tick
}

// stopGeneration cancels the in-flight generation, if any.
func (m *Model) stopGeneration() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.backend.Stop()
}

// backendMessages assembles the backend message list: the active system
// prompt followed by the transcript.
func backendMessages(conv *history.Conversation, systemPrompt string) []backend.Message {
	msgs := make([]backend.Message, 0, len(conv.Messages)+1)
	if systemPrompt != "" {
		msgs = append(msgs, backend.Message{Role: "system", Content: systemPrompt})
	}
	for _, msg := range conv.Messages {
		msgs = append(msgs, backend.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return msgs
}

// saveConversation persists the transcript when history is enabled.
func (m *Model) saveConversation() {
	if !m.cfg.History.Enabled || m.store == nil || len(m.conversation.Messages) == 0 {
		return
	}
	if _, err := m.store.Save(m.conversation); err != nil {
		m.status = "failed to save conversation: " + err.Error()
	}
}

// Conversation exposes the current transcript, for tests and the session
// layer.
func (m *Model) Conversation() *history.Conversation {
	return m.conversation
}
