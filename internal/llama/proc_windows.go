// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package llama

import "os/exec"

// setProcAttrs is a no-op on Windows; process groups are Unix-specific.
func setProcAttrs(cmd *exec.Cmd) {}

// terminateProcess kills the child. Windows has no SIGTERM equivalent for
// console-less children, so this goes straight to Kill.
func terminateProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
