// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the memai command-line interface.
//
// Commands are dispatched from a single Parse call in main; each command
// has a Handle* entry point that returns an error for main to report.
// Flag parsing is unified through ArgParser so every command handles
// --flag value, --flag=value, and boolean flags the same way.
package cli
