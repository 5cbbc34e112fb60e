// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversation transcripts to Markdown, JSON, and
// HTML files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/morganforge/memai/internal/history"
)

// Exporter converts a conversation to one output format.
type Exporter interface {
	// Export renders the conversation and returns the file content.
	Export(conv *history.Conversation) ([]byte, error)

	// FileExtension returns the extension for the format (e.g. ".md").
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written (default: current directory)
	OutputDir string

	// IncludeMetadata adds a header with model, dates, and stats
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps
	IncludeTimestamps bool

	// Theme for HTML export: "light" or "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// ForFormat returns the exporter for a format name: "markdown" (or "md"),
// "json", or "html".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format: %q (want markdown, json, or html)", format)
	}
}

// ToFile exports a conversation to a file in opts.OutputDir and returns the
// output path. The filename derives from the conversation title and the
// current time.
func ToFile(conv *history.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// sanitizeFilename replaces characters that are invalid in filenames on
// Windows or Unix, and bounds the length.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		s = string(runes[:50])
	}

	replacer := map[rune]rune{
		'/': '-', '\\': '-', ':': '-', '*': '-', '?': '-',
		'"': '-', '<': '-', '>': '-', '|': '-',
		' ': '_', '\t': '_', '\n': '_', '\r': '_',
	}

	var result []rune
	for _, r := range s {
		switch {
		case replacer[r] != 0:
			result = append(result, replacer[r])
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
