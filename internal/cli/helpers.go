// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helper functions used across CLI commands.

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// promptInput prompts the user for a line of input.
func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// confirm asks a yes/no question. Non-interactive sessions must pass the
// --confirm flag instead; destructive commands refuse to guess.
func confirm(question string, confirmFlag bool) bool {
	if confirmFlag {
		return true
	}
	if !CanPrompt() {
		fmt.Fprintln(os.Stderr, "not a terminal; pass --confirm to proceed")
		return false
	}
	answer := strings.ToLower(promptInput(question + " [y/N] "))
	return answer == "y" || answer == "yes"
}
