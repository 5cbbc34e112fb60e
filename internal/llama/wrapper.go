// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llama

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// WrapperError represents an error from the llama.cpp wrapper.
type WrapperError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *WrapperError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *WrapperError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes wrapper errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeBinaryNotFound
	ErrTypeModelNotFound
	ErrTypeStartFailed
	ErrTypeExitFailure
	ErrTypeCanceled
)

// Sentinel errors for easy checking.
var (
	ErrModelNotFound = &WrapperError{Type: ErrTypeModelNotFound, Message: "model file not found"}
	ErrCanceled      = &WrapperError{Type: ErrTypeCanceled, Message: "generation canceled"}
)

// IsCanceled checks if an error indicates a canceled generation.
func IsCanceled(err error) bool {
	var we *WrapperError
	if errors.As(err, &we) {
		return we.Type == ErrTypeCanceled
	}
	return errors.Is(err, context.Canceled)
}

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request describes one generation.
type Request struct {
	// ModelPath is the .gguf model file to load
	ModelPath string
	// Prompt is the user prompt (without role framing)
	Prompt string
	// MaxTokens limits generation length (default 512)
	MaxTokens int
	// Temperature is the sampling temperature (default 0.7)
	Temperature float64
	// ContextSize is the context window in tokens (default 2048)
	ContextSize int
	// Threads is the CPU thread count (default 4)
	Threads int
	// GPULayers is the number of layers to offload (simple-chat flavor only)
	GPULayers int
}

func (r *Request) applyDefaults() {
	if r.MaxTokens <= 0 {
		r.MaxTokens = 512
	}
	if r.Temperature <= 0 {
		r.Temperature = 0.7
	}
	if r.ContextSize <= 0 {
		r.ContextSize = 2048
	}
	if r.Threads <= 0 {
		r.Threads = 4
	}
}

// Result holds the outcome of a completed generation.
type Result struct {
	// Text is the full filtered response
	Text string
	// Duration is wall time from process start to completion
	Duration time.Duration
	// TTFT is the time to the first emitted line
	TTFT time.Duration
}

// TokenCallback receives each cleaned output line as it arrives.
type TokenCallback func(text string)

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes a llama.cpp binary for one generation at a time. A call
// arriving while another generation holds the slot waits for it to release,
// bounded by the caller's context; cancelling the active generation's
// context frees the slot once its process has been reaped.
type Runner struct {
	// BinaryPath is the llama.cpp executable to run
	BinaryPath string

	mu         sync.Mutex
	cmd        *exec.Cmd
	generating bool
	released   chan struct{} // closed when the active generation releases the slot
}

// NewRunner creates a runner for the given binary. The binary must exist.
func NewRunner(binaryPath string) (*Runner, error) {
	path, err := Locate(binaryPath)
	if err != nil {
		return nil, err
	}
	return &Runner{BinaryPath: path}, nil
}

// CheckModelFile verifies that path names an existing .gguf file.
func CheckModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &WrapperError{
			Type:    ErrTypeModelNotFound,
			Message: fmt.Sprintf("model not found: %s", path),
		}
	}
	if filepath.Ext(path) != ".gguf" {
		return &WrapperError{
			Type:    ErrTypeModelNotFound,
			Message: fmt.Sprintf("not a .gguf model: %s", path),
		}
	}
	return nil
}

// IsGenerating reports whether a generation is currently running.
func (r *Runner) IsGenerating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generating
}

// acquire claims the runner's single generation slot. A superseded
// generation still winding down (context cancelled, process not yet reaped)
// does not fail the new call; it waits for the slot instead, so
// cancel-then-resubmit works without a handshake.
func (r *Runner) acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		if !r.generating {
			r.generating = true
			r.released = make(chan struct{})
			r.mu.Unlock()
			return nil
		}
		released := r.released
		r.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return &WrapperError{Type: ErrTypeCanceled, Message: "generation canceled", Cause: ctx.Err()}
		}
	}
}

// release frees the generation slot and wakes any waiting call.
func (r *Runner) release() {
	r.mu.Lock()
	r.cmd = nil
	r.generating = false
	close(r.released)
	r.mu.Unlock()
}

// buildArgs assembles the argv for the configured binary flavor.
// Returns the args and whether the prompt goes to stdin.
func (r *Runner) buildArgs(req *Request) (args []string, stdinPrompt bool) {
	if IsSimpleChat(r.BinaryPath) {
		return []string{
			"-m", req.ModelPath,
			"-c", strconv.Itoa(req.ContextSize),
			"-ngl", strconv.Itoa(req.GPULayers),
		}, true
	}
	return []string{
		"--model", req.ModelPath,
		"--prompt", "User: " + req.Prompt + "\nAssistant:",
		"--n-predict", strconv.Itoa(req.MaxTokens),
		"--temp", strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		"--ctx-size", strconv.Itoa(req.ContextSize),
		"--threads", strconv.Itoa(req.Threads),
		"--log-disable",
	}, false
}

// GenerateStream runs one generation, invoking the callback for each cleaned
// output line, and returns the assembled result. Cancel via the context; the
// process receives SIGTERM and, after a grace period, SIGKILL.
func (r *Runner) GenerateStream(ctx context.Context, req Request, callback TokenCallback) (*Result, error) {
	if err := CheckModelFile(req.ModelPath); err != nil {
		return nil, err
	}
	req.applyDefaults()

	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	args, stdinPrompt := r.buildArgs(&req)

	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)
	setProcAttrs(cmd)
	cmd.Cancel = func() error { return terminateProcess(cmd) }
	cmd.WaitDelay = 2 * time.Second

	if stdinPrompt {
		cmd.Stdin = strings.NewReader("User: " + req.Prompt + "\nAssistant:")
	}

	// Merge stderr into stdout: llama.cpp interleaves progress and content
	// across both streams depending on build flags.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &WrapperError{Type: ErrTypeStartFailed, Message: "failed to create pipe", Cause: err}
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	start := time.Now()
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &WrapperError{
			Type:    ErrTypeStartFailed,
			Message: fmt.Sprintf("failed to start %s", r.BinaryPath),
			Cause:   err,
		}
	}
	pw.Close()

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	filter := NewOutputFilter()
	var out strings.Builder
	var ttft time.Duration
	var rawTail []string
	stoppedAtStats := false

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		rawTail = append(rawTail, line)
		if len(rawTail) > 10 {
			rawTail = rawTail[1:]
		}

		clean, stop := filter.Process(line)
		if stop {
			stoppedAtStats = true
			break
		}
		if clean == "" {
			continue
		}
		if ttft == 0 {
			ttft = time.Since(start)
		}
		if out.Len() > 0 && clean != "\n" {
			out.WriteString("\n")
		}
		if clean != "\n" {
			out.WriteString(clean)
		} else {
			out.WriteString("\n")
		}
		if callback != nil {
			callback(clean)
		}
	}

	if stoppedAtStats {
		// The response is complete; stop the process instead of letting it
		// idle at an interactive prompt.
		terminateProcess(cmd)
	}
	pr.Close()

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, &WrapperError{Type: ErrTypeCanceled, Message: "generation canceled", Cause: ctx.Err()}
	}
	if waitErr != nil && !stoppedAtStats {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &WrapperError{
				Type:    ErrTypeExitFailure,
				Message: fmt.Sprintf("llama.cpp exited with code %d: %s", exitErr.ExitCode(), strings.Join(rawTail, " | ")),
				Cause:   waitErr,
			}
		}
		return nil, &WrapperError{Type: ErrTypeUnknown, Message: "llama.cpp failed", Cause: waitErr}
	}

	return &Result{
		Text:     strings.TrimSpace(out.String()),
		Duration: time.Since(start),
		TTFT:     ttft,
	}, nil
}

// Generate runs one generation to completion and returns the full text.
func (r *Runner) Generate(ctx context.Context, req Request) (string, error) {
	res, err := r.GenerateStream(ctx, req, nil)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Stop terminates the running generation, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	cmd := r.cmd
	r.mu.Unlock()
	if cmd != nil {
		terminateProcess(cmd)
	}
}
