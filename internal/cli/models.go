// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - Model registry management: list, add, remove, rename, scan.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/morganforge/memai/internal/config"
	"github.com/morganforge/memai/internal/detect"
	"github.com/morganforge/memai/internal/models"
)

// HandleModels dispatches the models subcommands.
func HandleModels(args Args) error {
	parser := NewArgParser(args.Raw)

	registry, err := models.NewRegistry()
	if err != nil {
		return WrapError("models", "could not open model registry", err, ExitConfigError)
	}

	switch parser.Subcommand() {
	case "", "list", "ls":
		return modelsList(registry, args.JSON)
	case "add":
		return modelsAdd(registry, parser)
	case "remove", "rm":
		return modelsRemove(registry, parser)
	case "rename", "mv":
		return modelsRename(registry, parser)
	case "scan":
		return modelsScan(registry, parser)
	default:
		return NewUsageError("models", fmt.Sprintf("unknown subcommand %q (list, add, remove, rename, scan)", parser.Subcommand()))
	}
}

func modelsList(registry *models.Registry, asJSON bool) error {
	refs := registry.List()

	if asJSON {
		return outputJSON(refs)
	}

	if len(refs) == 0 {
		fmt.Println("No models registered.")
		fmt.Println(MutedStyle.Render("Add one with: memai models add <path-to-gguf>"))
		return nil
	}

	host := detect.Probe()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Size", "Fit", "Path")
	for _, ref := range refs {
		fit, _ := host.CheckModelFileFit(ref.Path)
		table.Append(ref.Name, ref.FormatSize(), fit.String(), ref.Path)
	}
	table.Render()

	fmt.Println()
	fmt.Println(MutedStyle.Render(host.Summary()))
	return nil
}

func modelsAdd(registry *models.Registry, parser *ArgParser) error {
	path := parser.Positional(1)
	if path == "" {
		return NewUsageError("models", "usage: memai models add <path> [--name <name>]")
	}

	ref, err := registry.Add(path, parser.Flag("name"))
	if err != nil {
		return WrapError("models", "could not register model", err, ExitGeneralError)
	}

	fmt.Println(SuccessStyle.Render("registered ") + fmt.Sprintf("%s (%s)", ref.Name, ref.FormatSize()))

	host := detect.Probe()
	if fit, err := host.CheckModelFileFit(ref.Path); err == nil && fit == detect.FitTooLarge {
		fmt.Println(WarningStyle.Render("warning: ") + "this model likely exceeds available memory on this machine")
	}
	return nil
}

func modelsRemove(registry *models.Registry, parser *ArgParser) error {
	target := parser.Positional(1)
	if target == "" {
		return NewUsageError("models", "usage: memai models remove <name-or-path>")
	}

	ref := resolveModelRef(registry, target)
	if ref == nil {
		return NewNotFoundError("models", fmt.Sprintf("model %q", target))
	}

	if err := registry.Remove(ref.Path); err != nil {
		return WrapError("models", "could not remove model", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render("removed ") + ref.Name + MutedStyle.Render(" (file kept on disk)"))
	return nil
}

func modelsRename(registry *models.Registry, parser *ArgParser) error {
	target := parser.Positional(1)
	newName := parser.Positional(2)
	if target == "" || newName == "" {
		return NewUsageError("models", "usage: memai models rename <name-or-path> <new-name>")
	}

	ref := resolveModelRef(registry, target)
	if ref == nil {
		return NewNotFoundError("models", fmt.Sprintf("model %q", target))
	}

	if err := registry.Rename(ref.Path, newName); err != nil {
		return WrapError("models", "could not rename model", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render("renamed ") + fmt.Sprintf("%s -> %s", target, newName))
	return nil
}

func modelsScan(registry *models.Registry, parser *ArgParser) error {
	dir := parser.Positional(1)
	if dir == "" {
		dir = config.Global().Llama.ModelsDir
	}

	added, err := registry.Sync(dir)
	if err != nil {
		return WrapError("models", "scan failed", err, ExitGeneralError)
	}

	if added == 0 {
		fmt.Printf("No new models found in %s\n", dir)
	} else {
		fmt.Println(SuccessStyle.Render(fmt.Sprintf("registered %d new model(s) from %s", added, dir)))
	}
	return nil
}

// resolveModelRef finds a registry entry by display name or path.
func resolveModelRef(registry *models.Registry, target string) *models.Ref {
	if ref := registry.Get(target); ref != nil {
		return ref
	}
	for _, ref := range registry.List() {
		if strings.EqualFold(ref.Name, target) {
			r := ref
			return &r
		}
	}
	return nil
}
