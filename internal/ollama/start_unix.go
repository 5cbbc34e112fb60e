// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package ollama

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// findOllamaExecutable searches for ollama in common installation paths
// on Unix and macOS.
func findOllamaExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	possiblePaths := []string{
		"/usr/local/bin/ollama",
		"/usr/bin/ollama",
		"/opt/ollama/ollama",
	}
	if home := os.Getenv("HOME"); home != "" {
		possiblePaths = append(possiblePaths,
			filepath.Join(home, ".local", "bin", "ollama"),
			filepath.Join(home, "bin", "ollama"),
		)
	}
	// macOS application bundle
	possiblePaths = append(possiblePaths,
		"/Applications/Ollama.app/Contents/Resources/ollama",
	)

	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("ollama not found in PATH or common installation directories. " +
		"Install it from https://ollama.com/download")
}

// startOllamaProcess launches `ollama serve` in the background and waits
// for the daemon to answer.
func (c *Client) startOllamaProcess(ctx context.Context) error {
	ollamaPath, err := findOllamaExecutable()
	if err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "failed to find Ollama executable",
			Cause:   err,
		}
	}

	cmd := exec.Command(ollamaPath, "serve")

	// Pass the environment through so GPU-related variables reach the daemon.
	cmd.Env = os.Environ()

	// New process group: the daemon must outlive us and not receive our
	// terminal signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: fmt.Sprintf("failed to start Ollama (path: %s)", ollamaPath),
			Cause:   err,
		}
	}

	// Release so the daemon keeps running after we exit.
	if cmd.Process != nil {
		cmd.Process.Release()
	}

	return c.waitForReady(ctx, ollamaPath)
}

// waitForReady polls the daemon until it answers or StartupTimeout elapses.
func (c *Client) waitForReady(ctx context.Context, ollamaPath string) error {
	deadline := time.Now().Add(c.config.StartupTimeout)
	startTime := time.Now()
	var lastErr error

	fmt.Fprintf(os.Stderr, "Starting Ollama...\n")

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return &ClientError{
				Type:    ErrTypeConnection,
				Message: "Ollama startup cancelled",
				Cause:   ctx.Err(),
			}
		default:
		}

		checkCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		lastErr = c.CheckRunning(checkCtx)
		cancel()

		if lastErr == nil {
			fmt.Fprintf(os.Stderr, "Ollama started (%.1fs)\n", time.Since(startTime).Seconds())
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}

	return &ClientError{
		Type: ErrTypeConnection,
		Message: fmt.Sprintf("Ollama started but not responding after %s (path: %s)",
			c.config.StartupTimeout, ollamaPath),
		Cause: lastErr,
	}
}
