// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import "github.com/strata-data/strata/cmd/strata/cli"

// Command returns the "dataset" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "dataset",
		Summary: "Resolve, list, and inspect versioned datasets",
		Description: `Work with versioned datasets published through a strata gateway.

A dataset key (like "ds/ocean-temp") resolves through the registry
to a gateway pointer. The pointer names the dataset's current head
snapshot, and each snapshot links back to its predecessor, so the
full version history is reachable from the head.

Commands verify everything they fetch: snapshot documents must hash
to the content id they were requested under. Registry lookups fall
back to the local cache when the registry is unreachable, so reads
keep working offline against previously seen datasets.`,
		Subcommands: []*cli.Command{
			resolveCommand(),
			listCommand(),
			headCommand(),
			logCommand(),
			showCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List every dataset the registry knows",
				Command:     "strata dataset list",
			},
			{
				Description: "Show the current version of a dataset",
				Command:     "strata dataset show ds/ocean-temp",
			},
			{
				Description: "Show the version that was current on a date",
				Command:     "strata dataset show ds/ocean-temp --as-of 2026-03-01",
			},
			{
				Description: "List the ten most recent versions",
				Command:     "strata dataset log ds/ocean-temp --limit 10",
			},
		},
	}
}
