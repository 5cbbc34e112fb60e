// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal interactive chat with input history.
//
// This is the no-TUI fallback: a readline-style REPL for environments
// where the full-screen interface is unwanted (ssh, scripts, dumb
// terminals). The TUI lives in internal/ui/chat.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/morganforge/memai/internal/backend"
	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/prompts"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history stored under ~/.memai.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession holds the state for one plain-terminal chat.
type chatSession struct {
	cfg     *config.Config
	backend backend.Backend
	store   *history.Store
	prompts *prompts.Manager
	conv    *history.Conversation
	input   *ChatCLI
	quiet   bool
}

// HandleChat runs the interactive REPL until the user exits.
func HandleChat(args Args) error {
	cfg := configWithOverrides(args)

	be, err := backend.New(cfg)
	if err != nil {
		return WrapError("chat", "backend setup failed", err, ExitConfigError)
	}
	if err := ensureBackendReady(cfg, be); err != nil {
		return err
	}

	store, err := history.NewStore()
	if err != nil {
		return WrapError("chat", "could not open history store", err, ExitConfigError)
	}
	store.MaxConversations = cfg.History.MaxConversations

	pm, err := prompts.NewManager()
	if err != nil {
		return WrapError("chat", "could not load prompts", err, ExitConfigError)
	}

	sess := &chatSession{
		cfg:     cfg,
		backend: be,
		store:   store,
		prompts: pm,
		input:   NewChatCLI(),
		quiet:   args.Quiet,
	}
	defer sess.input.Close()
	sess.newConversation()

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("memai chat"))
		fmt.Println(MutedStyle.Render(fmt.Sprintf("backend: %s  model: %s", be.Name(), activeModel(cfg))))
		fmt.Println(MutedStyle.Render("type /help for commands, /exit to quit"))
		fmt.Println()
	}

	return sess.loop()
}

func (s *chatSession) newConversation() {
	s.conv = history.NewConversation(activeModel(s.cfg))
	s.conv.Backend = s.backend.Name()
}

func (s *chatSession) loop() error {
	for {
		input, err := s.input.ReadInput("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || errors.Is(err, io.EOF) {
				s.save()
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if done := s.handleCommand(input); done {
				return nil
			}
			continue
		}

		s.conv.Append(history.RoleUser, input)
		s.generate()
	}
}

// generate streams one answer, printing tokens as they arrive. Ctrl+C
// cancels the generation mid-stream; whatever already arrived is kept as
// the assistant turn, matching the full-screen view.
func (s *chatSession) generate() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgs := make([]backend.Message, 0, len(s.conv.Messages)+1)
	if text := s.prompts.Active().Text; text != "" {
		msgs = append(msgs, backend.Message{Role: "system", Content: text})
	}
	for _, m := range s.conv.Messages {
		msgs = append(msgs, backend.Message{Role: string(m.Role), Content: m.Content})
	}

	fmt.Println()
	var partial strings.Builder
	result, err := s.backend.Stream(ctx, msgs, func(token string) {
		fmt.Print(token)
		partial.WriteString(token)
	})
	fmt.Println()

	if err != nil {
		if ctx.Err() != nil {
			if partial.Len() > 0 {
				s.conv.Append(history.RoleAssistant, partial.String())
			}
			fmt.Println(MutedStyle.Render("generation cancelled"))
			fmt.Println()
			s.save()
			return
		}
		ReportError(err)
		fmt.Println()
		return
	}

	assistant := s.conv.Append(history.RoleAssistant, result.Text)
	assistant.TokenCount = result.CompletionTokens
	assistant.DurationMs = result.Duration.Milliseconds()
	assistant.TokensPerSec = result.TokensPerSec

	if s.cfg.UI.ShowStats && !s.quiet {
		fmt.Println(MutedStyle.Render(result.StatsLine()))
	}
	fmt.Println()

	s.save()
}

func (s *chatSession) save() {
	if !s.cfg.History.Enabled || len(s.conv.Messages) == 0 {
		return
	}
	if _, err := s.store.Save(s.conv); err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("warning: ")+"could not save conversation: "+err.Error())
	}
}

// handleCommand processes a slash command; returns true to exit the loop.
func (s *chatSession) handleCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "/exit", "/quit", "/q":
		s.save()
		return true

	case "/help", "/?":
		fmt.Println("  /new            start a new conversation")
		fmt.Println("  /model <name>   switch model")
		fmt.Println("  /prompt <name>  switch system prompt")
		fmt.Println("  /save           save the conversation now")
		fmt.Println("  /exit           quit")

	case "/new", "/clear":
		s.save()
		s.newConversation()
		fmt.Println(MutedStyle.Render("started a new conversation"))

	case "/model":
		if arg == "" {
			fmt.Println("current model: " + activeModel(s.cfg))
			break
		}
		switch s.cfg.Backend {
		case config.BackendOllama:
			s.cfg.Ollama.Model = arg
		case config.BackendHuggingFace:
			s.cfg.HuggingFace.Model = arg
		default:
			s.cfg.Llama.DefaultModel = arg
		}
		s.conv.Model = arg
		fmt.Println(SuccessStyle.Render("model set to " + arg))

	case "/prompt":
		s.switchPrompt(arg)

	case "/save":
		if _, err := s.store.Save(s.conv); err != nil {
			ReportError(err)
		} else {
			fmt.Println(SuccessStyle.Render("saved"))
		}

	default:
		fmt.Println(WarningStyle.Render("unknown command " + cmd))
	}
	return false
}

func (s *chatSession) switchPrompt(name string) {
	if name == "" {
		active := s.prompts.Active()
		fmt.Println("active prompt: " + active.Name)
		return
	}
	for _, p := range s.prompts.All() {
		if strings.EqualFold(p.Name, name) || p.ID == name {
			if err := s.prompts.SetActive(p.ID); err != nil {
				ReportError(err)
				return
			}
			fmt.Println(SuccessStyle.Render("system prompt: " + p.Name))
			return
		}
	}
	fmt.Println(WarningStyle.Render(fmt.Sprintf("no prompt named %q", name)))
}
