// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for memai: atomic file writes
// and string formatting utilities used by the config, history, and CLI layers.
package util
