// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset defines the domain types shared by every strata
// component: dataset keys, mutable pointers, immutable content ids,
// version snapshot documents, and the tagged error model used across
// package boundaries.
package dataset

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Key is the stable, globally-unique, human-readable name of a dataset
// (for example "ghcnd-daily" or "era5/precipitation-hourly"). Keys are
// assigned by the registry operator and never reused for different
// data.
type Key string

// Pointer is a mutable name handle in the content network. The
// registry maps each dataset key to a pointer; resolving the pointer
// against a gateway yields the content id of the current head
// snapshot, which changes as new versions are published. The pointer
// string itself is opaque to this library.
type Pointer string

// ContentID identifies one immutable document in the content network:
// the BLAKE3-256 hash of exactly the bytes it names. Anyone holding
// the bytes can recompute the id, which makes gateway responses
// tamper-evident without trusting the transport.
type ContentID [32]byte

// ContentIDFor computes the content id for a document's bytes.
func ContentIDFor(document []byte) ContentID {
	return ContentID(blake3.Sum256(document))
}

// ParseContentID parses the canonical text form of a content id:
// exactly 64 hex characters.
func ParseContentID(s string) (ContentID, error) {
	if len(s) != 64 {
		return ContentID{}, fmt.Errorf("content id must be 64 hex characters, got %d", len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid content id %q: %w", s, err)
	}
	var id ContentID
	copy(id[:], raw)
	return id, nil
}

// String returns the canonical 64-character lowercase hex form.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 12 hex characters, for logs and tables.
func (id ContentID) Short() string {
	return id.String()[:12]
}

// IsZero reports whether id is the zero value, meaning "no id".
func (id ContentID) IsZero() bool {
	return id == ContentID{}
}

// MarshalText implements encoding.TextMarshaler. JSON documents and
// CBOR cache entries carry content ids in the hex form.
func (id ContentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ContentID) UnmarshalText(text []byte) error {
	parsed, err := ParseContentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
