// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette holds the raw colors for one theme variant.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	UserText  lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Border    lipgloss.Color
	StatusBg  lipgloss.Color
	StatusFg  lipgloss.Color
}

func darkPalette() Palette {
	return Palette{
		Primary:   lipgloss.Color("99"),  // purple
		Secondary: lipgloss.Color("39"),  // blue
		Text:      lipgloss.Color("252"),
		Muted:     lipgloss.Color("241"),
		UserText:  lipgloss.Color("117"),
		Error:     lipgloss.Color("203"),
		Success:   lipgloss.Color("78"),
		Border:    lipgloss.Color("238"),
		StatusBg:  lipgloss.Color("236"),
		StatusFg:  lipgloss.Color("250"),
	}
}

func lightPalette() Palette {
	return Palette{
		Primary:   lipgloss.Color("57"),
		Secondary: lipgloss.Color("26"),
		Text:      lipgloss.Color("235"),
		Muted:     lipgloss.Color("246"),
		UserText:  lipgloss.Color("25"),
		Error:     lipgloss.Color("160"),
		Success:   lipgloss.Color("28"),
		Border:    lipgloss.Color("250"),
		StatusBg:  lipgloss.Color("254"),
		StatusFg:  lipgloss.Color("238"),
	}
}

// Theme holds the styled components for the application.
type Theme struct {
	// IsDark reflects the resolved variant after "auto" detection
	IsDark  bool
	Palette Palette

	// Header
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// Messages
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	UserText       lipgloss.Style
	MessageStats   lipgloss.Style

	// Input
	InputPrompt lipgloss.Style
	InputBorder lipgloss.Style

	// Status bar
	StatusBar     lipgloss.Style
	StatusBackend lipgloss.Style
	StatusModel   lipgloss.Style
	StatusStats   lipgloss.Style

	// Feedback
	Spinner   lipgloss.Style
	Thinking  lipgloss.Style
	ErrorText lipgloss.Style
	Success   lipgloss.Style
	Help      lipgloss.Style
}

// New builds a theme. Mode is "dark", "light", or "auto"; auto follows the
// terminal background.
func New(mode string) *Theme {
	isDark := true
	switch mode {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	p := darkPalette()
	if !isDark {
		p = lightPalette()
	}

	return &Theme{
		IsDark:  isDark,
		Palette: p,

		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		HeaderMeta:  lipgloss.NewStyle().Foreground(p.Muted),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(p.UserText),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		SystemLabel:    lipgloss.NewStyle().Bold(true).Foreground(p.Muted),
		UserText:       lipgloss.NewStyle().Foreground(p.Text),
		MessageStats:   lipgloss.NewStyle().Foreground(p.Muted).Italic(true),

		InputPrompt: lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		InputBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),

		StatusBar:     lipgloss.NewStyle().Background(p.StatusBg).Foreground(p.StatusFg),
		StatusBackend: lipgloss.NewStyle().Background(p.StatusBg).Foreground(p.Success).Bold(true),
		StatusModel:   lipgloss.NewStyle().Background(p.StatusBg).Foreground(p.Secondary),
		StatusStats:   lipgloss.NewStyle().Background(p.StatusBg).Foreground(p.StatusFg),

		Spinner:   lipgloss.NewStyle().Foreground(p.Primary),
		Thinking:  lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		ErrorText: lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(p.Success),
		Help:      lipgloss.NewStyle().Foreground(p.Muted),
	}
}

// GlamourStyle returns the glamour standard style name for this theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
