// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morganforge/memai/internal/history"
)

func sampleConversation() *history.Conversation {
	conv := history.NewConversation("llama3.2:3b")
	conv.Backend = "ollama"
	conv.Append(history.RoleUser, "What is the capital of France?")
	msg := conv.Append(history.RoleAssistant, "The capital of France is **Paris**.")
	msg.TokenCount = 8
	msg.TokensPerSec = 42.5
	return conv
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"title: What is the capital of France?",
		"model: llama3.2:3b",
		"backend: ollama",
		"## You",
		"## Assistant",
		"The capital of France is **Paris**.",
		"42.5 tok/s",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExportEmptyConversation(t *testing.T) {
	conv := history.NewConversation("m")
	if _, err := NewMarkdownExporter(nil).Export(conv); err == nil {
		t.Error("expected error for empty conversation")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil conversation")
	}
}

func TestMarkdownYAMLEscaping(t *testing.T) {
	conv := history.NewConversation("m")
	conv.Append(history.RoleUser, `Explain "foo: bar" syntax`)

	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(out), `title: "Explain \"foo: bar\" syntax"`) {
		t.Errorf("frontmatter not escaped:\n%s", out)
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	conv := sampleConversation()
	out, err := NewJSONExporter().Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded history.Conversation
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != conv.ID || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestHTMLExportEscapes(t *testing.T) {
	conv := history.NewConversation("m")
	conv.Append(history.RoleUser, "<script>alert('x')</script>")

	out, err := NewHTMLExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(out)
	if strings.Contains(page, "<script>alert") {
		t.Error("HTML export did not escape message content")
	}
	if !strings.Contains(page, "&lt;script&gt;") {
		t.Error("escaped content missing")
	}
}

func TestHTMLThemes(t *testing.T) {
	conv := sampleConversation()

	dark, _ := NewHTMLExporter(&Options{Theme: "dark", IncludeMetadata: true}).Export(conv)
	light, _ := NewHTMLExporter(&Options{Theme: "light", IncludeMetadata: true}).Export(conv)

	if string(dark) == string(light) {
		t.Error("themes produced identical output")
	}
	if !strings.Contains(string(light), "#fafafa") {
		t.Error("light theme colors missing")
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"markdown", "md", "json", "html"} {
		if _, err := ForFormat(format, nil); err != nil {
			t.Errorf("ForFormat(%q): %v", format, err)
		}
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestToFileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	conv := sampleConversation()

	path, err := ToFile(conv, NewMarkdownExporter(nil), &Options{OutputDir: dir, IncludeMetadata: true})
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}

	if filepath.Ext(path) != ".md" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Paris") {
		t.Error("exported file missing content")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple title", "simple_title"},
		{"what/is:this?", "what-is-this-"},
		{"", "conversation"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
