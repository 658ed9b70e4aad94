// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps filippo.io/age for strata keyfiles at rest. A
// chunk encryption key written to disk is sealed to one or more age
// x25519 recipients; the machine that mounts the dataset holds the
// matching identity and unseals the key at process start.
//
// Ciphertext uses age's native binary format, so sealed keyfiles are
// interoperable with the standalone age tool. Identities and unsealed
// plaintext travel in *secret.Buffer values (mmap-backed, locked
// against swap, zeroed on close) — never in plain heap slices.
package sealed

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/strata-data/strata/lib/secret"
)

// Identity holds an age x25519 keypair. The private half lives in a
// secret.Buffer; the public half is a plain string, safe to publish.
// The caller must Close the identity when done.
type Identity struct {
	// Private is the secret key in AGE-SECRET-KEY-1... form. Never
	// log it, never pass it on a command line.
	Private *secret.Buffer

	// Public is the matching recipient in age1... form.
	Public string
}

// Close releases the private key memory. Idempotent.
func (id *Identity) Close() error {
	if id.Private != nil {
		return id.Private.Close()
	}
	return nil
}

// GenerateIdentity creates a new age x25519 keypair, private half
// already moved into protected memory.
func GenerateIdentity() (*Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}

	// Move the private key into mmap-backed memory immediately. The
	// string returned by the age API stays on the heap until GC; the
	// buffer is the durable copy.
	private, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}

	return &Identity{
		Private: private,
		Public:  identity.Recipient().String(),
	}, nil
}

// Seal encrypts plaintext to one or more recipients given as age
// public key strings (age1... form). At least one recipient is
// required. The returned bytes are the age binary ciphertext,
// suitable for writing to a keyfile.
func Seal(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}

	return ciphertext.Bytes(), nil
}

// Unseal decrypts age ciphertext with the given private key. The
// identity buffer is borrowed, not closed. The plaintext is returned
// in a fresh secret.Buffer the caller must Close.
func Unseal(ciphertext []byte, privateKey *secret.Buffer) (*secret.Buffer, error) {
	// The age API requires a string at this boundary; the heap copy
	// is brief and request-scoped.
	identity, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed file contained no plaintext")
	}

	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("protecting decrypted plaintext: %w", err)
	}
	return buffer, nil
}

// ParseRecipient validates an age public key string before it is
// accepted into a seal operation or a config file.
func ParseRecipient(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}
