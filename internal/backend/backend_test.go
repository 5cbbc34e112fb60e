// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/llama"
)

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "cloud9"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewHuggingFaceRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendHuggingFace
	if _, err := New(cfg); err == nil {
		t.Error("expected error without API key")
	}
}

func TestFlattenTranscript(t *testing.T) {
	system, prompt := flattenTranscript([]Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi!"},
		{Role: "user", Content: "How are you?"},
	})

	if system != "Be brief." {
		t.Errorf("system = %q", system)
	}
	want := "User: Hello\nAssistant: Hi!\nUser: How are you?"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestLocalStreamSystemPromptFraming(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries are shell scripts")
	}
	dir := t.TempDir()

	// Record separator between args; the framed prompt itself contains
	// newlines.
	bin := filepath.Join(dir, "llama-cli")
	script := "#!/bin/sh\n" +
		"printf '%s\\036' \"$@\" > \"$(dirname \"$0\")/argv\"\n" +
		"echo \"Assistant:\"\n" +
		"echo \"ok\"\n" +
		"echo \"[ Prompt: 1 tokens, 1.0 t/s ]\"\n"
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	model := filepath.Join(dir, "tiny.gguf")
	if err := os.WriteFile(model, []byte("GGUF"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.Default()
	cfg.Llama.DefaultModel = model

	l := &Local{runner: &llama.Runner{BinaryPath: bin}, cfg: cfg}
	if _, err := l.Stream(context.Background(), []Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "What is Go?"},
	}, nil); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "argv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	args := strings.Split(strings.TrimSuffix(string(raw), "\x1e"), "\x1e")

	var framed string
	for i, a := range args {
		if a == "--prompt" && i+1 < len(args) {
			framed = args[i+1]
		}
	}
	want := "User: Be brief.\nWhat is Go?\nAssistant:"
	if framed != want {
		t.Errorf("prompt = %q, want %q", framed, want)
	}
	if n := strings.Count(framed, "User: "); n != 1 {
		t.Errorf("prompt carries %d User frames, want 1: %q", n, framed)
	}
}

func TestOllamaBackendStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"Hello "},"done":false}`)
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":"world"},"done":false}`)
		fmt.Fprintln(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true,"eval_count":2,"eval_duration":1000000000}`)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Backend = config.BackendOllama
	cfg.Ollama.URL = srv.URL
	cfg.Ollama.Model = "m"

	b := NewOllama(cfg)
	if b.Name() != config.BackendOllama {
		t.Errorf("Name = %q", b.Name())
	}

	var tokens []string
	res, err := b.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Text != "Hello world" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(tokens) != 2 {
		t.Errorf("tokens = %v", tokens)
	}
	if res.CompletionTokens != 2 || res.TokensPerSec != 2 {
		t.Errorf("stats = %+v", res)
	}
}

func TestOllamaBackendCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"x"},"done":false}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := config.Default()
	cfg.Ollama.URL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan struct{}, 1)

	errCh := make(chan error, 1)
	go func() {
		_, err := NewOllama(cfg).Stream(ctx, nil, func(string) {
			select {
			case got <- struct{}{}:
			default:
			}
		})
		errCh <- err
	}()

	<-got
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected error after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop")
	}
}

func newHFBackend(t *testing.T, inferenceURL string) *HuggingFace {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = config.BackendHuggingFace
	cfg.HuggingFace.APIKey = "hf_test"
	cfg.HuggingFace.Model = "test/model"

	h, err := NewHuggingFace(cfg)
	if err != nil {
		t.Fatalf("NewHuggingFace: %v", err)
	}
	h.inferenceURL = inferenceURL
	return h
}

func TestHuggingFaceSSEStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("auth header = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "test/model") {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintln(w, `data: {"token":{"text":"Hel"}}`)
		fmt.Fprintln(w, `data: {"token":{"text":"lo"}}`)
		fmt.Fprintln(w, `data: [DONE]`)
	}))
	defer srv.Close()

	h := newHFBackend(t, srv.URL+"/")
	var tokens []string
	res, err := h.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Text != "Hello" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(tokens) != 2 {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestHuggingFacePlainJSONFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `[{"generated_text":"full answer"}]`)
	}))
	defer srv.Close()

	h := newHFBackend(t, srv.URL+"/")
	res, err := h.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Text != "full answer" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestHuggingFaceUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := newHFBackend(t, srv.URL+"/")
	_, err := h.Stream(context.Background(), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("err = %v", err)
	}
}

func TestHuggingFaceErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, `{"error":"model is loading"}`)
	}))
	defer srv.Close()

	h := newHFBackend(t, srv.URL+"/")
	_, err := h.Stream(context.Background(), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "model is loading") {
		t.Errorf("err = %v", err)
	}
}

func TestTestOllamaConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	if !TestOllamaConnection(context.Background(), srv.URL) {
		t.Error("expected reachable")
	}

	srv.Close()
	if TestOllamaConnection(context.Background(), srv.URL) {
		t.Error("expected unreachable after close")
	}
}

func TestTestHFAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	if !testHFAPIKeyAt(context.Background(), "good", srv.URL) {
		t.Error("good key rejected")
	}
	if testHFAPIKeyAt(context.Background(), "bad", srv.URL) {
		t.Error("bad key accepted")
	}
	if testHFAPIKeyAt(context.Background(), "", srv.URL) {
		t.Error("empty key accepted")
	}
}
