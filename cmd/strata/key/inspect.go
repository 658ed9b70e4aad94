// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package key

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/keyring"
	"github.com/strata-data/strata/lib/secret"
)

// ageIntro is the first line of age's binary ciphertext format.
var ageIntro = []byte("age-encryption.org/v1")

// inspection is the report for one inspected file. Fingerprint is the
// short BLAKE3 hash of the key material — enough to tell two keys
// apart, never enough to recover one.
type inspection struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Bytes       int64  `json:"bytes"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

func inspectCommand() *cli.Command {
	var jsonOutput bool

	return &cli.Command{
		Name:    "inspect",
		Summary: "Report what a key file holds, without printing it",
		Description: `Classify a key file: a raw 32-byte chunk key, its 64-character hex
form, an age-sealed keyfile, or an age identity file.

For unsealed chunk keys the report includes a fingerprint (a short
hash of the material) so two keyfiles can be compared without ever
displaying either. Sealed files and identities report their kind
only.`,
		Usage: "strata key inspect <path> [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a keyfile before pointing config at it",
				Command:     "strata key inspect chunk.key",
			},
			{
				Description: "Verify a sealed copy is actually sealed",
				Command:     "strata key inspect chunk.key.sealed --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one path, got %d arguments", len(args))
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			defer secret.Zero(data)

			report := inspect(args[0], data)

			if jsonOutput {
				return cli.WriteJSON(report)
			}
			fmt.Printf("Path:         %s\n", report.Path)
			fmt.Printf("Kind:         %s\n", report.Kind)
			fmt.Printf("Bytes:        %d\n", report.Bytes)
			if report.Fingerprint != "" {
				fmt.Printf("Fingerprint:  %s\n", report.Fingerprint)
			}
			return nil
		},
	}
}

// inspect classifies file contents. It never copies key material into
// the report.
func inspect(path string, data []byte) inspection {
	report := inspection{
		Path:  path,
		Bytes: int64(len(data)),
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(data, ageIntro):
		report.Kind = "sealed key (age)"
	case bytes.Contains(data, []byte("AGE-SECRET-KEY-1")):
		report.Kind = "age identity"
	case len(data) == keyring.KeySize:
		report.Kind = "raw key"
		report.Fingerprint = fingerprint(data)
	case len(trimmed) == hex.EncodedLen(keyring.KeySize) && isHex(trimmed):
		decoded := make([]byte, keyring.KeySize)
		if _, err := hex.Decode(decoded, trimmed); err == nil {
			report.Kind = "hex key"
			report.Fingerprint = fingerprint(decoded)
			secret.Zero(decoded)
		}
	}
	if report.Kind == "" {
		report.Kind = "unrecognized"
	}
	return report
}

func fingerprint(material []byte) string {
	return dataset.ContentIDFor(material).Short()
}

func isHex(data []byte) bool {
	for _, b := range data {
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		default:
			return false
		}
	}
	return true
}
