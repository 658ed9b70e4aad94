// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the strata CLI command tree.
package commands

import (
	"fmt"

	browsecmd "github.com/strata-data/strata/cmd/strata/browse"
	chunkcmd "github.com/strata-data/strata/cmd/strata/chunk"
	"github.com/strata-data/strata/cmd/strata/cli"
	datasetcmd "github.com/strata-data/strata/cmd/strata/dataset"
	keycmd "github.com/strata-data/strata/cmd/strata/key"
	"github.com/strata-data/strata/lib/version"
)

// Root builds and returns the complete strata CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "strata",
		Description: `strata: content-addressed, versioned dataset tooling.

Resolve dataset names through the registry, walk version history
from a content gateway, and run chunks through the compression and
encryption codec pipeline.`,
		Subcommands: []*cli.Command{
			datasetcmd.Command(),
			browsecmd.Command(),
			chunkcmd.Command(),
			keycmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("strata %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "List every dataset the registry knows",
				Command:     "strata dataset list",
			},
			{
				Description: "Browse datasets and their history interactively",
				Command:     "strata browse",
			},
			{
				Description: "Show the version of a dataset current on a date",
				Command:     "strata dataset show ds/ocean-temp --as-of 2026-03-01",
			},
			{
				Description: "Generate a chunk encryption key",
				Command:     "strata key generate --out chunk.key",
			},
			{
				Description: "Encrypt a chunk with the configured pipeline",
				Command:     "strata chunk encode chunk.raw --out chunk.enc",
			},
		},
	}
}
