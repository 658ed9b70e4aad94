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

func headCommand() *cli.Command {
	var configPath string
	var jsonOutput bool

	return &cli.Command{
		Name:    "head",
		Summary: "Print a dataset's current head snapshot id",
		Description: `Resolve a dataset key and ask the gateway for the pointer's
current head. Prints the head snapshot's content id without
fetching the snapshot itself; use "dataset show" for the full
version record.

The head moves every time the producer publishes a new version, so
two invocations may print different ids. Everything below the head
is immutable.`,
		Usage: "strata dataset head <key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Current head of a dataset",
				Command:     "strata dataset head ds/ocean-temp",
			},
			{
				Description: "Head with its resolution chain",
				Command:     "strata dataset head ds/ocean-temp --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("head", &configPath)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
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

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pointer, err := stack.Resolver.Resolve(ctx, key)
			if err != nil {
				return err
			}
			head, err := stack.Gateway.Head(ctx, pointer)
			if err != nil {
				return err
			}

			if jsonOutput {
				return cli.WriteJSON(struct {
					Key     dataset.Key       `json:"key"`
					Pointer dataset.Pointer   `json:"pointer"`
					Head    dataset.ContentID `json:"head"`
				}{key, pointer, head})
			}
			fmt.Println(head)
			return nil
		},
	}
}
