// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/strata-data/strata/lib/config"
	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/keyring"
	"github.com/strata-data/strata/lib/secret"
)

// KeyEnvVar is the environment variable carrying a hex-encoded chunk
// key. File-based provisioning is preferred; the variable exists for
// CI and one-off invocations.
const KeyEnvVar = "STRATA_KEY"

// ProvisionKey loads the chunk encryption key into the process keyring
// from the first available source:
//
//   - keyfileFlag, the --keyfile flag value, when given
//   - the config keyfile or sealed keyfile
//   - the STRATA_KEY environment variable (hex)
//   - an interactive hidden prompt, when stdin is a terminal
//
// With no source available it fails with kind Misconfigured rather
// than letting a later codec call fail further from the cause.
func ProvisionKey(cfg *config.Config, keyfileFlag string) error {
	keys := keyring.Shared()

	switch {
	case keyfileFlag != "":
		return keys.SetKeyFromFile(keyfileFlag)
	case cfg.Keyfile != "":
		return keys.SetKeyFromFile(cfg.Keyfile)
	case cfg.SealedKeyfile != "":
		return keys.SetKeyFromSealedFile(cfg.SealedKeyfile, cfg.IdentityFile)
	}

	if hexKey := os.Getenv(KeyEnvVar); hexKey != "" {
		return keys.SetKey([]byte(hexKey))
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "chunk key (64 hex characters): ")
		line, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading key from terminal: %w", err)
		}
		defer secret.Zero(line)
		return keys.SetKey(bytes.TrimSpace(line))
	}

	return dataset.Errorf(dataset.KindMisconfigured,
		"no chunk key available: pass --keyfile, set keyfile in the config file, or set %s", KeyEnvVar)
}
