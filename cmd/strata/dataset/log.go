// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/dataset"
)

func logCommand() *cli.Command {
	var configPath string
	var jsonOutput bool
	var limit int

	return &cli.Command{
		Name:    "log",
		Summary: "List a dataset's version history, newest first",
		Description: `Walk a dataset's version chain from the current head and list the
snapshots found, newest first.

Every listed snapshot costs one gateway fetch (or a local cache
hit), so deep listings take time proportional to their length. The
default limit keeps casual invocations cheap; pass --limit 0 to
walk the whole retained chain. A chain longer than the walk budget
is listed up to the budget and truncated with a warning.`,
		Usage: "strata dataset log <key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Twenty most recent versions",
				Command:     "strata dataset log ds/ocean-temp",
			},
			{
				Description: "The whole retained history",
				Command:     "strata dataset log ds/ocean-temp --limit 0",
			},
			{
				Description: "Machine-readable history",
				Command:     "strata dataset log ds/ocean-temp --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("log", &configPath)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			flagSet.IntVarP(&limit, "limit", "n", 20, "maximum versions to list (0 for the whole chain)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one dataset key, got %d arguments", len(args))
			}
			key := dataset.Key(args[0])

			stack, err := cli.NewStack(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			pointer, err := stack.Resolver.Resolve(ctx, key)
			if err != nil {
				return err
			}
			head, err := stack.Gateway.Head(ctx, pointer)
			if err != nil {
				return err
			}
			snapshots, err := stack.Walker.History(ctx, head, limit)
			if err != nil {
				return err
			}

			views := make([]snapshotView, len(snapshots))
			for index, snapshot := range snapshots {
				views[index] = viewOf(snapshot)
			}

			if jsonOutput {
				return cli.WriteJSON(views)
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "CREATED\tID\tSIZE\tDESCRIPTION\n")
			for _, view := range views {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
					view.CreatedAt,
					view.ID.Short(),
					formatBytes(view.Size),
					truncate(firstLine(view.Description), 60),
				)
			}
			return writer.Flush()
		},
	}
}
