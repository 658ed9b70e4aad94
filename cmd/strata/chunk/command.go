// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import "github.com/strata-data/strata/cmd/strata/cli"

// Command returns the "chunk" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "chunk",
		Summary: "Encode and decode chunk frames",
		Description: `Run data through the chunk codec pipeline: compression first,
then XChaCha20-Poly1305 encryption, by default. Encode produces the
framed bytes a storage layer would persist; decode verifies and
reverses them.

The pipeline comes from the --pipeline flag, the config file's
pipeline path, or the built-in default (zstd, then encryption).
Pipeline files are JSONC arrays of codec configurations and carry
transform parameters only — the encryption key always arrives
out-of-band, through --keyfile, the config file, the STRATA_KEY
environment variable, or an interactive prompt.`,
		Subcommands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Encrypt a chunk with the configured pipeline",
				Command:     "strata chunk encode chunk.raw --out chunk.enc",
			},
			{
				Description: "Decrypt from stdin to stdout",
				Command:     "strata chunk decode < chunk.enc > chunk.raw",
			},
			{
				Description: "Encode with an explicit pipeline and keyfile",
				Command:     "strata chunk encode --pipeline pipeline.jsonc --keyfile chunk.key chunk.raw",
			},
		},
	}
}
