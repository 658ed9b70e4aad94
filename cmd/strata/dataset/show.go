// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/dataset"
)

func showCommand() *cli.Command {
	var configPath string
	var jsonOutput bool
	var asOf string

	return &cli.Command{
		Name:    "show",
		Summary: "Show one version of a dataset",
		Description: `Fetch and display a dataset's version snapshot: its content id,
creation time, payload reference, and description.

Without --as-of this is the current head. With --as-of it is the
most recent version published at or before the given instant,
found by walking the chain backward from the head. An instant
before the oldest retained snapshot fails with a not-found error
naming the oldest version that survives.`,
		Usage: "strata dataset show <key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Current version",
				Command:     "strata dataset show ds/ocean-temp",
			},
			{
				Description: "The version current at midnight UTC on a date",
				Command:     "strata dataset show ds/ocean-temp --as-of 2026-03-01",
			},
			{
				Description: "The version current a week ago",
				Command:     "strata dataset show ds/ocean-temp --as-of 7d",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("show", &configPath)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			flagSet.StringVar(&asOf, "as-of", "", "resolve at this instant (duration, RFC3339, or date)")
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

			var snapshot *dataset.VersionSnapshot
			if asOf == "" {
				snapshot, err = stack.Walker.Head(ctx, head)
			} else {
				var instant time.Time
				instant, err = parseAsOf(asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				snapshot, err = stack.Walker.ResolveAsOf(ctx, head, instant)
			}
			if err != nil {
				return err
			}

			view := viewOf(snapshot)
			if jsonOutput {
				return cli.WriteJSON(view)
			}

			fmt.Printf("Dataset:   %s\n", key)
			fmt.Printf("Snapshot:  %s\n", view.ID)
			fmt.Printf("Created:   %s\n", view.CreatedAt)
			fmt.Printf("Payload:   %s\n", view.Payload)
			fmt.Printf("Size:      %s\n", formatBytes(view.Size))
			if view.Previous != "" {
				fmt.Printf("Previous:  %s\n", view.Previous)
			} else {
				fmt.Printf("Previous:  none (root snapshot)\n")
			}
			if view.Description != "" {
				fmt.Printf("\n%s\n", view.Description)
			}
			return nil
		},
	}
}
