// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package key

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/cmd/strata/cli"
	"github.com/strata-data/strata/lib/sealed"
	"github.com/strata-data/strata/lib/secret"
)

func identityCommand() *cli.Command {
	var outPath string

	return &cli.Command{
		Name:    "identity",
		Summary: "Generate an age identity for sealing keys",
		Description: `Generate an age x25519 keypair. The private half goes to --out (or
stdout) in the standard age identity file format, so the file works
with both strata and the standalone age tool. The public half — the
recipient to seal keys to — is printed to stderr and embedded as a
comment in the identity file.

Point the config file's identity_file at the result to let strata
unseal keys sealed to this identity.`,
		Usage: "strata key identity [flags]",
		Examples: []cli.Example{
			{
				Description: "Generate a machine identity",
				Command:     "strata key identity --out machine.identity",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("identity", pflag.ContinueOnError)
			flagSet.StringVarP(&outPath, "out", "o", "", "identity file to create (default stdout)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			identity, err := sealed.GenerateIdentity()
			if err != nil {
				return err
			}
			defer identity.Close()

			contents := []byte(fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
				time.Now().Format(time.RFC3339), identity.Public, identity.Private.String()))
			defer secret.Zero(contents)

			if outPath == "" {
				fmt.Fprintf(os.Stderr, "Public key: %s\n", identity.Public)
				_, err := os.Stdout.Write(contents)
				return err
			}
			if err := writeNewFile(outPath, contents); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote identity to %s\n", outPath)
			fmt.Printf("Public key: %s\n", identity.Public)
			return nil
		},
	}
}
