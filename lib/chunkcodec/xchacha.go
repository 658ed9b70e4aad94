// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/keyring"
)

// XChaChaID is the registered identifier of the AEAD chunk codec.
const XChaChaID = "xchacha20poly1305"

// DefaultHeader is the associated-data string used when a codec is
// built without an explicit header. Frames written under one header
// never decode under another, even with the same key.
const DefaultHeader = "strata-chunk"

// FrameOverhead is the fixed byte overhead of an encrypted frame:
// 24-byte nonce plus 16-byte Poly1305 tag. A frame shorter than this
// cannot authenticate and is rejected before any cipher work.
const FrameOverhead = chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// XChaCha encrypts chunks with XChaCha20-Poly1305. The frame layout
// is fixed:
//
//	[Nonce: 24 bytes (random)] [Tag: 16 bytes] [Ciphertext: N bytes]
//
// The header string is authenticated as associated data on every
// call. Datasets sharing one key but carrying distinct headers cannot
// have chunks substituted between them: the tag check fails.
//
// The key is read from the keyring at call time, never cached, so a
// key provisioned after codec construction is picked up by the next
// call. Calls without a provisioned key fail with a misconfiguration
// error; nothing is ever emitted or accepted unencrypted.
type XChaCha struct {
	keys   *keyring.Keyring
	header []byte
}

// NewXChaCha returns an AEAD codec bound to the given keyring. A nil
// keyring binds the process-default keyring; an empty header selects
// DefaultHeader.
func NewXChaCha(keys *keyring.Keyring, header string) *XChaCha {
	if keys == nil {
		keys = keyring.Shared()
	}
	if header == "" {
		header = DefaultHeader
	}
	return &XChaCha{keys: keys, header: []byte(header)}
}

func init() {
	Register(XChaChaID, func(config Config) (Codec, error) {
		// Configuration carries the header only. The key arrives
		// out-of-band through the process-default keyring.
		return NewXChaCha(keyring.Shared(), config.Header), nil
	})
}

// ID returns "xchacha20poly1305".
func (c *XChaCha) ID() string { return XChaChaID }

// Header returns the associated-data string this codec authenticates
// frames under.
func (c *XChaCha) Header() string { return string(c.header) }

func (c *XChaCha) aead() (cipher.AEAD, error) {
	key, err := c.keys.Key()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		// Unreachable with a keyring-provisioned key; the keyring
		// enforces the 32-byte size.
		return nil, dataset.Errorf(dataset.KindMisconfigured,
			"creating XChaCha20-Poly1305 cipher: %w", err)
	}
	return aead, nil
}

// Encode encrypts plaintext into a frame. Every call draws a fresh
// random nonce from the system CSPRNG; nonces are never derived from
// content, so key reuse across many chunks never reuses a nonce.
func (c *XChaCha) Encode(plaintext []byte) ([]byte, error) {
	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	frame := make([]byte, FrameOverhead+len(plaintext))
	nonce := frame[:chacha20poly1305.NonceSizeX]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	// Seal emits ciphertext followed by the tag; the frame stores
	// the tag first so decoders split at fixed offsets.
	sealed := aead.Seal(nil, nonce, plaintext, c.header)
	ciphertext := sealed[:len(plaintext)]
	tag := sealed[len(plaintext):]
	copy(frame[chacha20poly1305.NonceSizeX:], tag)
	copy(frame[FrameOverhead:], ciphertext)
	return frame, nil
}

// Decode verifies and decrypts a frame. Tag verification happens
// before any plaintext is produced: on a wrong key, a wrong header,
// or a tampered frame, the result is an integrity error and out (when
// supplied) is left zeroed, never holding unverified bytes.
func (c *XChaCha) Decode(frame []byte, out []byte) ([]byte, error) {
	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	if len(frame) < FrameOverhead {
		return nil, dataset.Errorf(dataset.KindIntegrity,
			"frame is %d bytes, shorter than the %d-byte nonce and tag",
			len(frame), FrameOverhead)
	}

	nonce := frame[:chacha20poly1305.NonceSizeX]
	tag := frame[chacha20poly1305.NonceSizeX:FrameOverhead]
	ciphertext := frame[FrameOverhead:]

	// Open expects ciphertext followed by the tag.
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(out[:0], nonce, sealed, c.header)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindIntegrity,
			"chunk authentication failed (wrong key, wrong header, or tampered frame): %w", err)
	}
	return plaintext, nil
}
