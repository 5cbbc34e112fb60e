// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/history"
)

// HTMLExporter renders conversations as standalone HTML pages with inline
// styling, themed light or dark.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// FileExtension implements Exporter.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// htmlPalette holds the per-theme colors.
type htmlPalette struct {
	bg, fg, cardBg, userBg, accent, muted string
}

func paletteFor(theme string) htmlPalette {
	if theme == "light" {
		return htmlPalette{
			bg:     "#fafafa",
			fg:     "#1a1a2e",
			cardBg: "#ffffff",
			userBg: "#eef2ff",
			accent: "#4f46e5",
			muted:  "#6b7280",
		}
	}
	return htmlPalette{
		bg:     "#0f1117",
		fg:     "#e5e7eb",
		cardBg: "#1a1d27",
		userBg: "#222738",
		accent: "#818cf8",
		muted:  "#9ca3af",
	}
}

// Export implements Exporter.
func (e *HTMLExporter) Export(conv *history.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	p := paletteFor(e.options.Theme)
	title := html.EscapeString(conv.Title)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", title))
	sb.WriteString("<style>\n")
	sb.WriteString(fmt.Sprintf("body{background:%s;color:%s;font-family:-apple-system,Segoe UI,sans-serif;max-width:760px;margin:0 auto;padding:2rem 1rem;line-height:1.6}\n", p.bg, p.fg))
	sb.WriteString(fmt.Sprintf("h1{color:%s;font-size:1.4rem}\n", p.accent))
	sb.WriteString(fmt.Sprintf(".meta{color:%s;font-size:0.85rem;margin-bottom:2rem}\n", p.muted))
	sb.WriteString(fmt.Sprintf(".msg{background:%s;border-radius:8px;padding:0.8rem 1rem;margin-bottom:1rem;white-space:pre-wrap}\n", p.cardBg))
	sb.WriteString(fmt.Sprintf(".msg.user{background:%s}\n", p.userBg))
	sb.WriteString(fmt.Sprintf(".role{font-weight:600;color:%s;font-size:0.8rem;text-transform:uppercase;letter-spacing:0.05em}\n", p.accent))
	sb.WriteString(fmt.Sprintf(".stats{color:%s;font-size:0.75rem;margin-top:0.4rem}\n", p.muted))
	sb.WriteString("</style>\n</head>\n<body>\n")

	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", title))
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("<div class=\"meta\">%s &middot; %s &middot; %d messages &middot; exported %s</div>\n",
			html.EscapeString(conv.Model),
			formatTimestamp(conv.CreatedAt),
			len(conv.Messages),
			time.Now().Format("2006-01-02")))
	}

	for _, msg := range conv.Messages {
		class := "msg"
		if msg.Role == history.RoleUser {
			class = "msg user"
		}
		sb.WriteString(fmt.Sprintf("<div class=\"%s\">", class))
		sb.WriteString(fmt.Sprintf("<div class=\"role\">%s", html.EscapeString(msg.Role.DisplayName())))
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf(" &middot; %s", formatShortTimestamp(msg.Timestamp)))
		}
		sb.WriteString("</div>\n")
		sb.WriteString(html.EscapeString(msg.Content))
		if msg.TokensPerSec > 0 {
			sb.WriteString(fmt.Sprintf("\n<div class=\"stats\">%d tokens &middot; %.1f tok/s</div>", msg.TokenCount, msg.TokensPerSec))
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}
