// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/config"
)

func encodeCommand() *cli.Command {
	var configPath string
	var pipelinePath string
	var keyfile string
	var outPath string

	return &cli.Command{
		Name:    "encode",
		Summary: "Run a chunk through the codec pipeline",
		Description: `Read a chunk, run it through every pipeline codec in order, and
write the framed result. With the default pipeline the output is a
zstd-compressed, XChaCha20-Poly1305-encrypted frame; feeding it
back through "chunk decode" with the same key recovers the input
exactly.

Reads the positional file argument, or stdin when none is given.
Writes to --out, or stdout.`,
		Usage: "strata chunk encode [input-file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Encode a file",
				Command:     "strata chunk encode chunk.raw --out chunk.enc",
			},
			{
				Description: "Encode a stream",
				Command:     "strata chunk encode < chunk.raw > chunk.enc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("encode", &configPath)
			flagSet.StringVar(&pipelinePath, "pipeline", "", "pipeline file (JSONC) overriding the configured one")
			flagSet.StringVar(&keyfile, "keyfile", "", "file holding the chunk encryption key")
			flagSet.StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one input file, got %d arguments", len(args))
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cli.ProvisionKey(cfg, keyfile); err != nil {
				return err
			}
			pipeline, err := loadPipeline(pipelinePath, cfg)
			if err != nil {
				return err
			}

			input, err := readInput(args)
			if err != nil {
				return err
			}
			frame, err := pipeline.Encode(input)
			if err != nil {
				return err
			}
			return writeOutput(outPath, frame)
		},
	}
}
