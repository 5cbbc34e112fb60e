// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/history"
)

// MarkdownExporter renders conversations as Markdown documents.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// Export implements Exporter.
func (e *MarkdownExporter) Export(conv *history.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.Title)))
		sb.WriteString(fmt.Sprintf("model: %s\n", conv.Model))
		if conv.Backend != "" {
			sb.WriteString(fmt.Sprintf("backend: %s\n", conv.Backend))
		}
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.Title))

	for i, msg := range conv.Messages {
		sb.WriteString(fmt.Sprintf("## %s", msg.Role.DisplayName()))
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf(" (%s)", formatShortTimestamp(msg.Timestamp)))
		}
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if msg.TokensPerSec > 0 {
			sb.WriteString(fmt.Sprintf("\n*%d tokens, %.1f tok/s*\n", msg.TokenCount, msg.TokensPerSec))
		}
		if i < len(conv.Messages)-1 {
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// escapeYAML quotes a value when it would break frontmatter parsing.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#[]{}\"'\n") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
