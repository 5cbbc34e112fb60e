// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/morganforge/memai/internal/backend"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// tokenMsg carries one streamed piece of response text.
type tokenMsg struct {
	gen  int // generation sequence; stale tokens are dropped
	text string
}

// doneMsg marks a completed generation.
type doneMsg struct {
	gen    int
	result *backend.Result
}

// genErrMsg reports a failed generation.
type genErrMsg struct {
	gen int
	err error
}

// statusMsg sets a transient status-line message.
type statusMsg string

// modelsChangedMsg signals that .gguf files appeared or disappeared in the
// watched models directory.
type modelsChangedMsg struct{}
