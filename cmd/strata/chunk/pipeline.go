// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"
	"io"
	"os"

	"github.com/strata-data/strata/lib/chunkcodec"
	"github.com/strata-data/strata/lib/config"
)

// defaultPipeline is the built-in codec pipeline used when neither the
// --pipeline flag nor the config file names one: compress, then
// encrypt.
var defaultPipeline = []chunkcodec.Config{
	{ID: chunkcodec.ZstdID},
	{ID: chunkcodec.XChaChaID},
}

// loadPipeline builds the codec pipeline from the first configured
// source: the --pipeline flag, then the config file, then the built-in
// default.
func loadPipeline(flagPath string, cfg *config.Config) (*chunkcodec.Pipeline, error) {
	switch {
	case flagPath != "":
		return chunkcodec.LoadPipeline(flagPath)
	case cfg.Pipeline != "":
		return chunkcodec.LoadPipeline(cfg.Pipeline)
	}
	return chunkcodec.BuildPipeline(defaultPipeline)
}

// readInput reads the chunk from the positional file argument, or from
// stdin when no argument (or "-") is given.
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

// writeOutput writes the result to the --out path, or to stdout when
// the path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
