// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompts_cmd.go - System prompt management: list, show, use, add, delete.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/morganforge/memai/internal/prompts"
)

// HandlePrompts dispatches the prompts subcommands.
func HandlePrompts(args Args) error {
	parser := NewArgParser(args.Raw)

	pm, err := prompts.NewManager()
	if err != nil {
		return WrapError("prompts", "could not load prompts", err, ExitConfigError)
	}

	switch parser.Subcommand() {
	case "", "list", "ls":
		return promptsList(pm, args.JSON)
	case "show":
		return promptsShow(pm, parser)
	case "use", "select", "set":
		return promptsUse(pm, parser)
	case "add", "new":
		return promptsAdd(pm, parser)
	case "delete", "rm":
		return promptsDelete(pm, parser)
	case "reset":
		return promptsReset(pm, parser)
	default:
		return NewUsageError("prompts", fmt.Sprintf("unknown subcommand %q (list, show, use, add, delete, reset)", parser.Subcommand()))
	}
}

func promptsList(pm *prompts.Manager, asJSON bool) error {
	all := pm.All()

	if asJSON {
		return outputJSON(all)
	}

	activeID := pm.ActiveID()
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("", "ID", "Name", "Kind")
	for _, p := range all {
		marker := ""
		if p.ID == activeID {
			marker = "*"
		}
		kind := "custom"
		if p.Builtin {
			kind = "built-in"
		}
		table.Append(marker, p.ID, p.Icon+" "+p.Name, kind)
	}
	table.Render()
	fmt.Println()
	fmt.Println(MutedStyle.Render("* marks the active prompt; switch with: memai prompts use <id>"))
	return nil
}

func promptsShow(pm *prompts.Manager, parser *ArgParser) error {
	id := parser.Positional(1)

	var p prompts.Prompt
	if id == "" {
		p = pm.Active()
	} else {
		found := pm.Get(id)
		if found == nil {
			return NewNotFoundError("prompts", fmt.Sprintf("prompt %q", id))
		}
		p = *found
	}

	fmt.Println(TitleStyle.Render(p.Icon + " " + p.Name))
	fmt.Println(MutedStyle.Render("id: " + p.ID))
	fmt.Println()
	fmt.Println(WrapText(p.Text, 0))
	return nil
}

func promptsUse(pm *prompts.Manager, parser *ArgParser) error {
	target := JoinPositionalArgs(parser, 1)
	if target == "" {
		return NewUsageError("prompts", "usage: memai prompts use <id-or-name>")
	}

	for _, p := range pm.All() {
		if p.ID == target || strings.EqualFold(p.Name, target) {
			if err := pm.SetActive(p.ID); err != nil {
				return WrapError("prompts", "could not save selection", err, ExitGeneralError)
			}
			fmt.Println(SuccessStyle.Render("active prompt: ") + p.Name)
			return nil
		}
	}
	return NewNotFoundError("prompts", fmt.Sprintf("prompt %q", target))
}

func promptsAdd(pm *prompts.Manager, parser *ArgParser) error {
	name := parser.Flag("name")
	text := parser.Flag("text")
	if name == "" || text == "" {
		return NewUsageError("prompts", `usage: memai prompts add --name <name> --text "instructions"`)
	}
	icon := parser.FlagOrDefault("icon", "◆")

	p, err := pm.Add(name, icon, text)
	if err != nil {
		return WrapError("prompts", "could not add prompt", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render("added ") + fmt.Sprintf("%s (%s)", p.Name, p.ID))
	return nil
}

func promptsDelete(pm *prompts.Manager, parser *ArgParser) error {
	id := parser.Positional(1)
	if id == "" {
		return NewUsageError("prompts", "usage: memai prompts delete <id>")
	}

	p := pm.Get(id)
	if p == nil {
		return NewNotFoundError("prompts", fmt.Sprintf("prompt %q", id))
	}

	if !confirm(fmt.Sprintf("Delete prompt %q?", p.Name), parser.BoolFlag("confirm")) {
		fmt.Println("aborted")
		return nil
	}

	ok, err := pm.Delete(id)
	if err != nil {
		return WrapError("prompts", "delete failed", err, ExitGeneralError)
	}
	if !ok {
		return NewNotFoundError("prompts", fmt.Sprintf("prompt %q", id))
	}
	fmt.Println(SuccessStyle.Render("deleted ") + p.Name)
	return nil
}

func promptsReset(pm *prompts.Manager, parser *ArgParser) error {
	id := parser.Positional(1)
	if id == "" {
		return NewUsageError("prompts", "usage: memai prompts reset <builtin-id>")
	}
	if err := pm.ResetBuiltin(id); err != nil {
		return WrapError("prompts", "reset failed", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render("restored built-in ") + id)
	return nil
}
