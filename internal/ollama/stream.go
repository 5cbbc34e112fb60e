// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader parses NDJSON streaming responses line by line. It handles
// both /api/chat lines (content under message.content) and /api/generate
// lines (content under response).
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	chunkCount  int
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := s.readChunk()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if chunk != nil {
			if callback != nil {
				callback(*chunk)
			}
			if chunk.Done {
				return nil
			}
		}
	}
}

// streamLine is the superset of fields Ollama emits per NDJSON line.
type streamLine struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Response           string `json:"response"` // generate endpoint
	Done               bool   `json:"done"`
	DoneReason         string `json:"done_reason,omitempty"`
	TotalDuration      int64  `json:"total_duration,omitempty"`
	LoadDuration       int64  `json:"load_duration,omitempty"`
	PromptEvalCount    int    `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64  `json:"prompt_eval_duration,omitempty"`
	EvalCount          int    `json:"eval_count,omitempty"`
	EvalDuration       int64  `json:"eval_duration,omitempty"`
}

// readChunk reads and parses a single line from the stream.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Process a final unterminated line before surfacing EOF.
		if len(line) == 0 {
			return nil, err
		}
	}

	if len(line) == 0 {
		return nil, nil
	}

	var resp streamLine
	if err := json.Unmarshal(line, &resp); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	if resp.Model != "" {
		s.model = resp.Model
	}

	content := resp.Message.Content
	if content == "" {
		content = resp.Response
	}
	if content != "" {
		s.accumulator.WriteString(content)
		s.chunkCount++
	}

	chunk := &StreamChunk{
		Content:    content,
		Done:       resp.Done,
		DoneReason: resp.DoneReason,
		Model:      s.model,
	}

	if resp.Done {
		chunk.TotalDuration = time.Duration(resp.TotalDuration)
		chunk.LoadDuration = time.Duration(resp.LoadDuration)
		chunk.PromptEvalDuration = time.Duration(resp.PromptEvalDuration)
		chunk.EvalDuration = time.Duration(resp.EvalDuration)
		chunk.PromptTokens = resp.PromptEvalCount
		chunk.CompletionTokens = resp.EvalCount
	}

	return chunk, nil
}

// Accumulated returns all content received so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// ChunkCount returns the number of content-bearing chunks received.
func (s *StreamReader) ChunkCount() int {
	return s.chunkCount
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Durations reported by Ollama on the final chunk
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	PromptTokens     int
	CompletionTokens int

	// Computed
	TTFT            time.Duration // time to first token
	TokensPerSecond float64
}

// NewStreamStats creates a new StreamStats with start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks the time of first token arrival.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes final statistics from the last chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.TotalDuration = chunk.TotalDuration
	s.LoadDuration = chunk.LoadDuration
	s.PromptEvalDuration = chunk.PromptEvalDuration
	s.EvalDuration = chunk.EvalDuration
	s.PromptTokens = chunk.PromptTokens
	s.CompletionTokens = chunk.CompletionTokens

	if s.EvalDuration > 0 {
		s.TokensPerSecond = float64(s.CompletionTokens) / s.EvalDuration.Seconds()
	}
}

// Format returns a one-line summary for the status bar.
func (s *StreamStats) Format() string {
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		formatStatsDuration(s.TotalDuration),
		s.CompletionTokens,
		s.TokensPerSecond,
		s.TTFT.Milliseconds())
}

func formatStatsDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming chunks and builds statistics.
type StreamAccumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content strings.Builder
	Stats   *StreamStats
	Done    bool
	Error   error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		Stats: NewStreamStats(),
	}
}

// Add processes a new chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Error != nil {
		a.Error = chunk.Error
		a.Done = true
		return
	}

	if chunk.Content != "" && a.content.Len() == 0 {
		a.Stats.RecordFirstToken()
	}
	a.content.WriteString(chunk.Content)

	if chunk.Done {
		a.Done = true
		a.Stats.Finalize(chunk)
	}
}

// Content returns the accumulated content.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}
