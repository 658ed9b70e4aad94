// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package key

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/keyring"
	"github.com/strata-data/strata/lib/secret"
)

func generateCommand() *cli.Command {
	var outPath string

	return &cli.Command{
		Name:    "generate",
		Summary: "Generate a fresh chunk encryption key",
		Description: `Draw 32 random bytes from the system CSPRNG and write them as 64
hex characters.

With --out the key lands in a new file with 0600 permissions; an
existing file is never overwritten. Without --out the key goes to
stdout, which is only sensible when piping somewhere safe.`,
		Usage: "strata key generate [flags]",
		Examples: []cli.Example{
			{
				Description: "Generate into a keyfile",
				Command:     "strata key generate --out chunk.key",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flagSet.StringVarP(&outPath, "out", "o", "", "keyfile to create (default stdout)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			material, err := keyring.GenerateKey()
			if err != nil {
				return err
			}
			defer secret.Zero(material)

			encoded := make([]byte, hex.EncodedLen(len(material)), hex.EncodedLen(len(material))+1)
			hex.Encode(encoded, material)
			encoded = append(encoded, '\n')
			defer secret.Zero(encoded)

			if outPath == "" {
				_, err := os.Stdout.Write(encoded)
				return err
			}
			if err := writeNewFile(outPath, encoded); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote key to %s\n", outPath)
			return nil
		},
	}
}

// writeNewFile creates path with 0600 permissions, refusing to replace
// an existing file. Key material on disk is never silently clobbered.
func writeNewFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists; refusing to overwrite it", path)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
