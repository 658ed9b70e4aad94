// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/config"
)

func decodeCommand() *cli.Command {
	var configPath string
	var pipelinePath string
	var keyfile string
	var outPath string

	return &cli.Command{
		Name:    "decode",
		Summary: "Reverse the codec pipeline on a chunk frame",
		Description: `Read an encoded frame, run it back through the pipeline codecs in
reverse order, and write the recovered chunk. Authentication
happens before any plaintext is produced: a wrong key, a wrong
pipeline header, or a tampered frame fails with an integrity error
and writes nothing.

The pipeline must match the one the frame was encoded with. Reads
the positional file argument, or stdin when none is given. Writes
to --out, or stdout.`,
		Usage: "strata chunk decode [input-file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Decode a file",
				Command:     "strata chunk decode chunk.enc --out chunk.raw",
			},
			{
				Description: "Decode a stream",
				Command:     "strata chunk decode < chunk.enc > chunk.raw",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.ConfigFlags("decode", &configPath)
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

			frame, err := readInput(args)
			if err != nil {
				return err
			}
			chunk, err := pipeline.Decode(frame)
			if err != nil {
				return err
			}
			return writeOutput(outPath, chunk)
		},
	}
}
