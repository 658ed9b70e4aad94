// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package key

import "github.com/strata-data/strata/cmd/strata/cli"

// Command returns the "key" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "key",
		Summary: "Generate, seal, and inspect chunk encryption keys",
		Description: `Manage the key material the chunk codec encrypts with.

A chunk key is 32 random bytes, written as 64 hex characters. Keys
at rest should be sealed: "key seal" encrypts a keyfile to one or
more age recipients, and the machine holding the matching identity
unseals it at process start. "key identity" generates such an
identity.

Nothing here ever prints key material once it is on disk; "key
inspect" reports a file's kind and a fingerprint only.`,
		Subcommands: []*cli.Command{
			generateCommand(),
			identityCommand(),
			sealCommand(),
			inspectCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Generate a chunk key",
				Command:     "strata key generate --out chunk.key",
			},
			{
				Description: "Generate an age identity for unsealing",
				Command:     "strata key identity --out machine.identity",
			},
			{
				Description: "Seal the key to that identity's public half",
				Command:     "strata key seal chunk.key --recipient age1... --out chunk.key.sealed",
			},
			{
				Description: "Check what a key file holds",
				Command:     "strata key inspect chunk.key.sealed",
			},
		},
	}
}
