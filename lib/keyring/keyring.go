// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyring manages the chunk encryption key. A Keyring is an
// explicit key-management context: codecs are constructed against one
// and read the key at call time, so there is no hidden global state
// to rotate out from under in-flight operations.
//
// The key is set at most once per keyring. A second set with
// identical material is a no-op (concurrent initializers that agree
// don't fight); different material is refused, which preserves the
// "set once per process" contract while making rotation attempts loud
// instead of silently racing active encode/decode calls.
//
// Key material is exactly 32 raw bytes or its 64-character hex
// encoding. Anything else is rejected at provisioning time — shape
// errors should surface at startup, not on the first chunk.
package keyring

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/sealed"
	"github.com/strata-data/strata/lib/secret"
)

// KeySize is the chunk encryption key size in bytes (XChaCha20-Poly1305).
const KeySize = 32

// Keyring holds one chunk encryption key in protected memory. The
// zero value is not usable; construct with New.
type Keyring struct {
	mu  sync.Mutex
	key *secret.Buffer
}

// New returns an empty keyring.
func New() *Keyring {
	return &Keyring{}
}

// shared is the process-default keyring. Library callers prefer
// explicit contexts; the shared keyring exists because persisted
// pipeline configuration cannot carry key material, so codecs built
// from configuration bind to it and the key arrives out-of-band.
var shared = New()

// Shared returns the process-default keyring.
func Shared() *Keyring {
	return shared
}

// normalize converts raw or hex key material into a fresh 32-byte
// slice. The caller owns zeroing the returned slice.
func normalize(material []byte) ([]byte, error) {
	switch len(material) {
	case KeySize:
		key := make([]byte, KeySize)
		copy(key, material)
		return key, nil
	case hex.EncodedLen(KeySize):
		key := make([]byte, KeySize)
		if _, err := hex.Decode(key, material); err != nil {
			return nil, dataset.Errorf(dataset.KindInvalidKey,
				"64-character key material is not valid hex: %w", err)
		}
		return key, nil
	default:
		return nil, dataset.Errorf(dataset.KindInvalidKey,
			"key must be %d raw bytes or %d hex characters, got %d bytes",
			KeySize, hex.EncodedLen(KeySize), len(material))
	}
}

// SetKey provisions the key from 32 raw bytes or 64 hex characters.
// The material is copied; the caller should zero its own copy after
// the call. Setting the identical key again is a no-op; different
// material fails with a misconfiguration error.
func (k *Keyring) SetKey(material []byte) error {
	key, err := normalize(material)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		same := k.key.Equal(key)
		secret.Zero(key)
		if same {
			return nil
		}
		return dataset.Errorf(dataset.KindMisconfigured,
			"encryption key already set; refusing to replace it")
	}

	buffer, err := secret.NewFromBytes(key)
	if err != nil {
		secret.Zero(key)
		return fmt.Errorf("protecting encryption key: %w", err)
	}
	k.key = buffer
	return nil
}

// SetKeyFromFile provisions the key from a file holding either
// exactly 32 raw bytes or a hex string (surrounding whitespace
// tolerated on the hex form only — trimming raw bytes could truncate
// a key that happens to end in 0x0a).
func (k *Keyring) SetKeyFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataset.Errorf(dataset.KindMisconfigured, "reading keyfile: %w", err)
	}
	defer secret.Zero(data)

	if len(data) == KeySize {
		return k.SetKey(data)
	}
	return k.SetKey(bytes.TrimSpace(data))
}

// SetKeyFromSealedFile provisions the key from an age-sealed keyfile
// and the identity file that can open it. The identity file is a
// standard age identity file: comment lines are ignored and the first
// AGE-SECRET-KEY-1 line is used.
func (k *Keyring) SetKeyFromSealedFile(sealedPath, identityPath string) error {
	identity, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}
	defer identity.Close()

	ciphertext, err := os.ReadFile(sealedPath)
	if err != nil {
		return dataset.Errorf(dataset.KindMisconfigured, "reading sealed keyfile: %w", err)
	}

	plaintext, err := sealed.Unseal(ciphertext, identity)
	if err != nil {
		return dataset.Errorf(dataset.KindMisconfigured, "unsealing keyfile: %w", err)
	}
	defer plaintext.Close()

	material := plaintext.Bytes()
	if len(material) != KeySize {
		material = bytes.TrimSpace(material)
	}
	return k.SetKey(material)
}

// Key returns the configured key. The slice is borrowed from
// protected memory and valid for the keyring's lifetime; callers must
// not modify or retain it. Fails with a misconfiguration error when
// no key has been set.
func (k *Keyring) Key() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key == nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured,
			"no encryption key set; provision one before using the chunk codec")
	}
	return k.key.Bytes(), nil
}

// IsSet reports whether a key has been provisioned.
func (k *Keyring) IsSet() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key != nil
}

// GenerateKey returns 32 fresh random bytes from the system CSPRNG.
// The caller owns the slice and should zero it once stored.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

// loadIdentity reads an age identity file into protected memory,
// skipping blank lines and # comments.
func loadIdentity(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "reading identity file: %w", err)
	}
	defer secret.Zero(data)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "AGE-SECRET-KEY-1") {
			return secret.NewFromBytes([]byte(line))
		}
	}
	return nil, dataset.Errorf(dataset.KindMisconfigured,
		"no AGE-SECRET-KEY-1 line in identity file %s", path)
}
