// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llama runs llama.cpp command-line binaries as subprocesses and
// streams their output.
//
// Two binary flavors are supported: llama-cli style binaries take the prompt
// as an argument, llama-simple-chat style binaries read it from stdin. The
// flavor is detected from the binary name. Raw output is noisy (loader
// metadata, ANSI colors, chat template tokens), so everything passes through
// an OutputFilter before reaching the caller.
package llama
