// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llama

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// binaryNames lists the llama.cpp executables we know how to drive, in
// preference order.
var binaryNames = []string{
	"llama-cli",
	"llama-simple-chat",
	"llama-simple",
	"main", // older llama.cpp builds
}

// Locate finds a usable llama.cpp binary.
//
// An explicit path wins when it exists. Otherwise the known binary names are
// searched on PATH, then in common installation directories.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if info, err := os.Stat(explicit); err == nil && !info.IsDir() {
			return explicit, nil
		}
		return "", &WrapperError{
			Type:    ErrTypeBinaryNotFound,
			Message: fmt.Sprintf("llama.cpp binary not found at: %s", explicit),
		}
	}

	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	possibleDirs := []string{
		"/usr/local/bin",
		"/usr/bin",
		"/opt/homebrew/bin",
		"/opt/llama.cpp/bin",
	}
	if home := os.Getenv("HOME"); home != "" {
		possibleDirs = append(possibleDirs,
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "bin"),
			filepath.Join(home, "llama.cpp", "build", "bin"),
		)
	}

	for _, dir := range possibleDirs {
		for _, name := range binaryNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}

	return "", &WrapperError{
		Type: ErrTypeBinaryNotFound,
		Message: "no llama.cpp binary found in PATH or common installation directories. " +
			"Install llama.cpp or set llama.binary_path in the config",
	}
}

// IsSimpleChat reports whether the binary is the simple-chat flavor, which
// reads the prompt from stdin instead of argv.
func IsSimpleChat(binaryPath string) bool {
	return strings.Contains(filepath.Base(binaryPath), "simple-chat")
}
