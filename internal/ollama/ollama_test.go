// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL: url,
		Timeout: 2 * time.Second,
	})
}

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning: %v", err)
	}
}

func TestCheckRunningDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestClient(srv.URL)
	err := c.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("err = %v, want not-running", err)
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(VersionResponse{Version: "0.5.1"})
	}))
	defer srv.Close()

	v, err := newTestClient(srv.URL).Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != "0.5.1" {
		t.Errorf("version = %q", v)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{
			Models: []ModelInfo{
				{Name: "llama3.2:3b", Size: 2 * 1024 * 1024 * 1024},
				{Name: "qwen2.5:7b", Size: 4 * 1024 * 1024 * 1024},
			},
		})
	}))
	defer srv.Close()

	models, err := newTestClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models", len(models))
	}
	if models[0].FormatSize() != "2.0 GB" {
		t.Errorf("FormatSize = %q", models[0].FormatSize())
	}
}

func TestShowModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ShowModel(context.Background(), "nope")
	if !IsModelNotFound(err) {
		t.Errorf("err = %v, want model-not-found", err)
	}
}

func TestChatNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Model != "llama3.2:3b" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:        "llama3.2:3b",
			Message:      NewAssistantMessage("Paris."),
			Done:         true,
			EvalCount:    10,
			EvalDuration: int64(time.Second),
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Chat(context.Background(), "llama3.2:3b",
		[]Message{NewUserMessage("Capital of France?")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "Paris." {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if tps := resp.TokensPerSecond(); tps != 10 {
		t.Errorf("TokensPerSecond = %v", tps)
	}
}

func TestChatErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(apiError{Error: "model requires more system memory"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "big", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "more system memory") {
		t.Errorf("err = %v, want server message surfaced", err)
	}
}

func writeChatNDJSON(w http.ResponseWriter, pieces []string) {
	for _, p := range pieces {
		fmt.Fprintf(w, `{"model":"m","message":{"role":"assistant","content":%q},"done":false}`+"\n", p)
	}
	fmt.Fprint(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true,"eval_count":3,"eval_duration":1000000000,"prompt_eval_count":5,"total_duration":2000000000}`+"\n")
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeChatNDJSON(w, []string{"Hel", "lo", "!"})
	}))
	defer srv.Close()

	acc := NewStreamAccumulator()
	err := newTestClient(srv.URL).ChatStream(context.Background(), "m",
		[]Message{NewUserMessage("hi")}, nil, acc.Add)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	if acc.Content() != "Hello!" {
		t.Errorf("content = %q", acc.Content())
	}
	if !acc.Done {
		t.Error("accumulator should be done")
	}
	if acc.Stats.CompletionTokens != 3 {
		t.Errorf("CompletionTokens = %d", acc.Stats.CompletionTokens)
	}
	if acc.Stats.TokensPerSecond != 3 {
		t.Errorf("TokensPerSecond = %v", acc.Stats.TokensPerSecond)
	}
	if acc.Stats.TTFT <= 0 {
		t.Error("TTFT should be recorded")
	}
}

func TestChatStreamSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"ok"},"done":false}`)
		fmt.Fprintln(w, `{garbage`)
		fmt.Fprintln(w, `{"message":{"content":"!"},"done":true}`)
	}))
	defer srv.Close()

	acc := NewStreamAccumulator()
	err := newTestClient(srv.URL).ChatStream(context.Background(), "m", nil, nil, acc.Add)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if acc.Content() != "ok!" {
		t.Errorf("content = %q", acc.Content())
	}
}

func TestChatStreamCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"start"},"done":false}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan struct{}, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- newTestClient(srv.URL).ChatStream(ctx, "m", nil, nil, func(chunk StreamChunk) {
			select {
			case received <- struct{}{}:
			default:
			}
		})
	}()

	<-received
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != "be brief" {
			t.Errorf("system = %q", req.System)
		}
		fmt.Fprintln(w, `{"response":"42","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	acc := NewStreamAccumulator()
	err := newTestClient(srv.URL).GenerateStream(context.Background(), "m", "meaning of life", "be brief", nil, acc.Add)
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if acc.Content() != "42" {
		t.Errorf("content = %q", acc.Content())
	}
}

func TestChatStreamChanDeliversError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ch := newTestClient(srv.URL).ChatStreamChan(context.Background(), "ghost", nil, nil)

	var last StreamChunk
	for chunk := range ch {
		last = chunk
	}
	if last.Error == nil || !IsModelNotFound(last.Error) {
		t.Errorf("last chunk error = %v, want model-not-found", last.Error)
	}
}

func TestPullProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"downloading","digest":"sha256:abc","total":1000,"completed":500}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	var statuses []string
	var percent float64
	err := newTestClient(srv.URL).Pull(context.Background(), "llama3.2:3b", func(p PullProgress) {
		statuses = append(statuses, p.Status)
		if p.Total > 0 {
			percent = p.Percent()
		}
	})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(statuses) != 3 || statuses[2] != "success" {
		t.Errorf("statuses = %v", statuses)
	}
	if percent != 50 {
		t.Errorf("percent = %v", percent)
	}
}

func TestPullServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(apiError{Error: "pull model manifest: file does not exist"})
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Pull(context.Background(), "ghost:latest", nil)
	if err == nil || !strings.Contains(err.Error(), "manifest") {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		var req DeleteRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "old-model" {
			t.Errorf("name = %q", req.Name)
		}
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).DeleteModel(context.Background(), "old-model"); err != nil {
		t.Errorf("DeleteModel: %v", err)
	}
}

func TestDeleteModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).DeleteModel(context.Background(), "ghost")
	if !IsModelNotFound(err) {
		t.Errorf("err = %v, want model-not-found", err)
	}
}

func TestStatsFormat(t *testing.T) {
	s := &StreamStats{
		TotalDuration:    2500 * time.Millisecond,
		CompletionTokens: 50,
		TokensPerSecond:  20,
		TTFT:             120 * time.Millisecond,
	}
	got := s.Format()
	want := "2.5s | 50 tokens | 20.0 tok/s | TTFT 120ms"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	cfg := c.GetConfig()
	if cfg.BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.StartupTimeout != 15*time.Second {
		t.Errorf("StartupTimeout = %v", cfg.StartupTimeout)
	}
}
