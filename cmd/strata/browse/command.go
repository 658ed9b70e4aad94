// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package browse holds the interactive dataset browser command. It
// lives in its own package so the terminal UI stack is linked only
// where it is used, keeping the plain command packages lean.
package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/browse"
)

// Command returns the "browse" subcommand.
func Command() *cli.Command {
	var configPath string
	var limit int

	return &cli.Command{
		Name:    "browse",
		Summary: "Browse datasets and their version history interactively",
		Description: `Open a full-screen browser over the registry: a fuzzy-filterable
dataset list on the left, the selected dataset's version history on
the right.

Histories load on demand as the selection moves, one gateway walk
per dataset, so browsing a large registry stays cheap. Version
descriptions render as markdown in the detail pane.

Keys: j/k or arrows navigate, / filters, Tab switches panes, [ and ]
resize the split, r refreshes, q quits.`,
		Usage: "strata browse [flags]",
		Examples: []cli.Example{
			{
				Description: "Browse every dataset the registry knows",
				Command:     "strata browse",
			},
			{
				Description: "Walk deeper version chains in the detail pane",
				Command:     "strata browse --limit 200",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("browse", &configPath)
			flagSet.IntVarP(&limit, "limit", "n", 50, "maximum versions to walk per dataset")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("browse takes no arguments, got %d", len(args))
			}

			stack, err := cli.NewStack(configPath)
			if err != nil {
				return err
			}

			source := &browse.ChainSource{
				Resolver: stack.Resolver,
				Gateway:  stack.Gateway,
				Walker:   stack.Walker,
			}
			model := browse.NewModel(source)
			model.SetHistoryLimit(limit)

			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("running browser: %w", err)
			}
			return nil
		},
	}
}
