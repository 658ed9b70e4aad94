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

func resolveCommand() *cli.Command {
	var configPath string
	var jsonOutput bool

	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve a dataset key to its gateway pointer",
		Description: `Look up a dataset key in the registry and print the gateway
pointer it maps to.

The registry is authoritative, but every successful lookup also
refreshes the local cache, and the cache answers when the registry
is unreachable. A key that neither source knows fails with a
not-found error.`,
		Usage: "strata dataset resolve <key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Resolve a dataset key",
				Command:     "strata dataset resolve ds/ocean-temp",
			},
			{
				Description: "Machine-readable output",
				Command:     "strata dataset resolve ds/ocean-temp --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("resolve", &configPath)
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

			if jsonOutput {
				return cli.WriteJSON(struct {
					Key     dataset.Key     `json:"key"`
					Pointer dataset.Pointer `json:"pointer"`
				}{key, pointer})
			}
			fmt.Println(pointer)
			return nil
		},
	}
}
