// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Saved conversation management: list, show, search,
// export, delete, clear.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/morganforge/memai/internal/export"
	"github.com/morganforge/memai/internal/history"
	"github.com/morganforge/memai/internal/util"
)

// HandleHistory dispatches the history subcommands.
func HandleHistory(args Args) error {
	parser := NewArgParser(args.Raw)

	store, err := history.NewStore()
	if err != nil {
		return WrapError("history", "could not open history store", err, ExitConfigError)
	}

	switch parser.Subcommand() {
	case "", "list", "ls":
		return historyList(store, args.JSON)
	case "show", "view":
		return historyShow(store, parser)
	case "search", "find":
		return historySearch(store, parser, args.JSON)
	case "export":
		return historyExport(store, parser)
	case "delete", "rm":
		return historyDelete(store, parser)
	case "clear":
		return historyClear(store, parser)
	default:
		return NewUsageError("history", fmt.Sprintf("unknown subcommand %q (list, show, search, export, delete, clear)", parser.Subcommand()))
	}
}

func historyList(store *history.Store, asJSON bool) error {
	metas, err := store.List()
	if err != nil {
		return WrapError("history", "could not list conversations", err, ExitGeneralError)
	}

	if asJSON {
		return outputJSON(metas)
	}

	if len(metas) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Title", "Model", "Msgs", "Updated")
	now := time.Now()
	for i, meta := range metas {
		table.Append(
			strconv.Itoa(i),
			meta.Title,
			meta.Model,
			strconv.Itoa(meta.MessageCount),
			util.RelativeDate(meta.UpdatedAt, now),
		)
	}
	table.Render()
	return nil
}

func historyShow(store *history.Store, parser *ArgParser) error {
	conv, err := loadConversationArg(store, parser.Positional(1))
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(conv.Title))
	fmt.Println(MutedStyle.Render(fmt.Sprintf("%s · %s · %d messages", conv.Model, conv.ID, len(conv.Messages))))
	fmt.Println()

	for _, msg := range conv.Messages {
		label := msg.Role.DisplayName()
		switch msg.Role {
		case history.RoleUser:
			fmt.Println(SectionStyle.Render(label))
		default:
			fmt.Println(SuccessStyle.Render(label))
		}
		fmt.Println(WrapText(msg.Content, 0))
		if msg.TokenCount > 0 {
			fmt.Println(MutedStyle.Render(fmt.Sprintf("%d tokens · %.1f tok/s", msg.TokenCount, msg.TokensPerSec)))
		}
		fmt.Println()
	}
	return nil
}

func historySearch(store *history.Store, parser *ArgParser, asJSON bool) error {
	query := JoinPositionalArgs(parser, 1)
	if query == "" {
		return NewUsageError("history", "usage: memai history search <query>")
	}

	metas, err := store.Search(query)
	if err != nil {
		return WrapError("history", "search failed", err, ExitGeneralError)
	}

	if asJSON {
		return outputJSON(metas)
	}

	if len(metas) == 0 {
		fmt.Printf("No conversations matching %q\n", query)
		return nil
	}

	for _, meta := range metas {
		fmt.Printf("%s  %s\n", SuccessStyle.Render(meta.ID), meta.Title)
		if meta.Preview != "" {
			fmt.Println("  " + MutedStyle.Render(meta.Preview))
		}
	}
	return nil
}

func historyExport(store *history.Store, parser *ArgParser) error {
	conv, err := loadConversationArg(store, parser.Positional(1))
	if err != nil {
		return err
	}

	format := parser.FlagOrDefault("format", "markdown")
	opts := export.DefaultOptions()
	if dir := parser.Flag("output"); dir != "" {
		opts.OutputDir = dir
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return NewUsageError("history", err.Error())
	}

	path, err := export.ToFile(conv, exporter, opts)
	if err != nil {
		return WrapError("history", "export failed", err, ExitGeneralError)
	}

	fmt.Println(SuccessStyle.Render("exported to ") + path)
	return nil
}

func historyDelete(store *history.Store, parser *ArgParser) error {
	conv, err := loadConversationArg(store, parser.Positional(1))
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete %q?", conv.Title), parser.BoolFlag("confirm")) {
		fmt.Println("aborted")
		return nil
	}

	if err := store.Delete(conv.ID); err != nil {
		return WrapError("history", "delete failed", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render("deleted ") + conv.Title)
	return nil
}

func historyClear(store *history.Store, parser *ArgParser) error {
	metas, err := store.List()
	if err != nil {
		return WrapError("history", "could not list conversations", err, ExitGeneralError)
	}
	if len(metas) == 0 {
		fmt.Println("Nothing to clear.")
		return nil
	}

	if !confirm(fmt.Sprintf("Delete all %d conversations?", len(metas)), parser.BoolFlag("confirm")) {
		fmt.Println("aborted")
		return nil
	}

	if err := store.Clear(); err != nil {
		return WrapError("history", "clear failed", err, ExitGeneralError)
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("deleted %d conversations", len(metas))))
	return nil
}

// loadConversationArg loads a conversation by ID or list index. A bare
// number is treated as the index shown by `history list`.
func loadConversationArg(store *history.Store, arg string) (*history.Conversation, error) {
	if arg == "" {
		return nil, NewUsageError("history", "a conversation ID or list index is required")
	}

	if index, err := strconv.Atoi(arg); err == nil {
		conv, err := store.LoadByIndex(index)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return nil, NewNotFoundError("history", fmt.Sprintf("conversation #%d", index))
			}
			return nil, WrapError("history", "could not load conversation", err, ExitGeneralError)
		}
		return conv, nil
	}

	conv, err := store.Load(arg)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return nil, NewNotFoundError("history", fmt.Sprintf("conversation %q", arg))
		}
		return nil, WrapError("history", "could not load conversation", err, ExitGeneralError)
	}
	return conv, nil
}
