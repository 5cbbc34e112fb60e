// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration inspection and editing.

package cli

import (
	"fmt"
	"os"

	"github.com/morganforge/memai/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show", "list":
		return configShow(args.JSON)
	case "get":
		return configGet(parser)
	case "set":
		return configSet(parser)
	case "path":
		return configPath()
	case "keys":
		return configKeys()
	default:
		return NewUsageError("config", fmt.Sprintf("unknown subcommand %q (show, get, set, path, keys)", parser.Subcommand()))
	}
}

func configShow(asJSON bool) error {
	cfg := config.Global()
	if asJSON {
		// String() redacts the API key; reuse it rather than marshalling
		// the raw struct.
		fmt.Println(cfg.String())
		return nil
	}

	fmt.Println(TitleStyle.Render("memai configuration"))
	fmt.Println(cfg.String())
	return nil
}

func configGet(parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return NewUsageError("config", "usage: memai config get <key>")
	}

	value, err := config.Global().Get(key)
	if err != nil {
		return NewNotFoundError("config", fmt.Sprintf("key %q", key))
	}

	if key == "huggingface.api_key" && value != "" {
		value = "[REDACTED]"
	}
	fmt.Println(value)
	return nil
}

func configSet(parser *ArgParser) error {
	key := parser.Positional(1)
	value := parser.Positional(2)
	if key == "" || value == "" {
		return NewUsageError("config", "usage: memai config set <key> <value>")
	}

	cfg := config.Global()
	if err := cfg.Set(key, value); err != nil {
		return WrapError("config", "could not set value", err, ExitConfigError)
	}
	if err := cfg.Validate(); err != nil {
		return WrapError("config", "rejected: resulting config is invalid", err, ExitConfigError)
	}
	if err := config.Save(cfg); err != nil {
		return WrapError("config", "could not save config", err, ExitConfigError)
	}

	fmt.Println(SuccessStyle.Render("set ") + key)
	return nil
}

func configPath() error {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return WrapError("config", "could not resolve config path", err, ExitConfigError)
	}

	fmt.Println(tomlPath)
	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		fmt.Println(MutedStyle.Render("(not created yet; defaults are in effect)"))
	}
	return nil
}

func configKeys() error {
	for _, key := range config.GetAllKeys() {
		fmt.Println(key)
	}
	return nil
}
