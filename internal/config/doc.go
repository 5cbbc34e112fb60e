// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for memai.
//
// The configuration covers backend selection (local llama.cpp subprocess,
// Ollama daemon, or the HuggingFace Inference API), sampling parameters,
// conversation history settings, and terminal UI preferences.
package config
