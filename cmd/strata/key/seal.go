// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package key

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/keyring"
	"github.com/strata-data/strata/lib/sealed"
	"github.com/strata-data/strata/lib/secret"
)

func sealCommand() *cli.Command {
	var outPath string
	var recipients []string

	return &cli.Command{
		Name:    "seal",
		Summary: "Seal a keyfile to age recipients",
		Description: `Encrypt a chunk keyfile to one or more age recipients. The result
is standard age binary ciphertext: strata unseals it through the
config file's sealed_keyfile and identity_file settings, and the
standalone age tool can open it too.

The input must be a valid chunk key (32 raw bytes or 64 hex
characters); sealing the wrong file fails before anything is
written. The plaintext keyfile is left in place — delete it
yourself once the sealed copy is where it belongs.`,
		Usage: "strata key seal <keyfile> --recipient <age1...> [flags]",
		Examples: []cli.Example{
			{
				Description: "Seal to one recipient",
				Command:     "strata key seal chunk.key --recipient age1... --out chunk.key.sealed",
			},
			{
				Description: "Seal to a second machine as well",
				Command:     "strata key seal chunk.key -r age1aaa... -r age1bbb... --out chunk.key.sealed",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("seal", pflag.ContinueOnError)
			flagSet.StringArrayVarP(&recipients, "recipient", "r", nil, "age recipient public key (repeatable)")
			flagSet.StringVarP(&outPath, "out", "o", "", "sealed file to create (default stdout)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one keyfile, got %d arguments", len(args))
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --recipient is required")
			}
			for _, recipient := range recipients {
				if err := sealed.ParseRecipient(recipient); err != nil {
					return err
				}
			}

			material, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading keyfile: %w", err)
			}
			defer secret.Zero(material)

			// Validate the key shape against a throwaway keyring before
			// sealing; a config file or certificate sealed by mistake
			// should fail here, not at first decode months later.
			if err := keyring.New().SetKey(normalizeShape(material)); err != nil {
				return fmt.Errorf("%s does not hold a chunk key: %w", args[0], err)
			}

			ciphertext, err := sealed.Seal(material, recipients)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err := os.Stdout.Write(ciphertext)
				return err
			}
			if err := writeNewFile(outPath, ciphertext); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "sealed %s to %d recipient(s) at %s\n", args[0], len(recipients), outPath)
			return nil
		},
	}
}

// normalizeShape prepares raw file bytes for key-shape validation: a
// file of exactly the raw key size passes through untouched, anything
// else is treated as hex and stripped of surrounding whitespace.
func normalizeShape(material []byte) []byte {
	if len(material) == keyring.KeySize {
		return material
	}
	return bytes.TrimSpace(material)
}
