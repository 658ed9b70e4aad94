// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
)

func listCommand() *cli.Command {
	var configPath string
	var jsonOutput bool

	return &cli.Command{
		Name:    "list",
		Summary: "List the dataset keys the registry knows",
		Description: `Print every dataset key the registry publishes, sorted. When the
registry is unreachable the list comes from the local cache, which
holds whatever the last successful registry fetch returned.`,
		Usage: "strata dataset list [flags]",
		Examples: []cli.Example{
			{
				Description: "List known datasets",
				Command:     "strata dataset list",
			},
			{
				Description: "Machine-readable output",
				Command:     "strata dataset list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("list", &configPath)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			stack, err := cli.NewStack(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			keys, err := stack.Resolver.Datasets(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return cli.WriteJSON(keys)
			}
			if len(keys) == 0 {
				stack.Logger.Info("no datasets known")
				return nil
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
}
