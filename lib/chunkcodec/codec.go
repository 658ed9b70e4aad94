// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkcodec transforms storage chunks on their way to and
// from disk or gateway. A Codec is one reversible transform; a
// Pipeline is an ordered list of them (compress, then encrypt, is the
// usual shape). Codecs register under stable string identifiers so a
// storage layer can reconstruct a pipeline from persisted
// configuration; the configuration carries transform parameters only,
// never key material.
package chunkcodec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/strata-data/strata/lib/dataset"
)

// Codec is one chunk transform. Implementations are safe for
// concurrent use: all per-call state lives on the stack.
type Codec interface {
	// ID returns the stable identifier the codec registers under.
	ID() string

	// Encode transforms plaintext into a framed chunk.
	Encode(plaintext []byte) ([]byte, error)

	// Decode reverses Encode. When out has sufficient capacity it is
	// reused as the destination; out must not overlap frame. On any
	// failure the returned slice is nil and out never holds
	// unverified plaintext.
	Decode(frame []byte, out []byte) ([]byte, error)
}

// Config describes one codec in persisted pipeline configuration.
// Fields beyond ID apply only to the codecs that document them;
// unknown JSON fields are rejected at parse time so configuration
// can never smuggle key material past review.
type Config struct {
	// ID selects the codec ("xchacha20poly1305", "zstd", "lz4",
	// "shuffle").
	ID string `json:"id"`

	// Header is the associated-data string for the AEAD codec.
	// Empty selects DefaultHeader.
	Header string `json:"header,omitempty"`

	// Level is the zstd compression level. Zero selects the
	// library's speed-default level.
	Level int `json:"level,omitempty"`

	// Width is the element width in bytes for the shuffle codec.
	// Zero selects 4 (float32 layout).
	Width int `json:"width,omitempty"`
}

// BuilderFunc constructs a codec from its configuration.
type BuilderFunc func(config Config) (Codec, error)

var (
	buildersMu sync.RWMutex
	builders   = map[string]BuilderFunc{}
)

// Register adds a codec builder under an identifier. Codecs in this
// package register themselves in init; external packages may add
// their own. Registering the same identifier twice panics, since it
// indicates two transforms competing for one persisted name.
func Register(id string, build BuilderFunc) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if _, exists := builders[id]; exists {
		panic(fmt.Sprintf("chunkcodec: codec %q registered twice", id))
	}
	builders[id] = build
}

// Build constructs the codec named by config.ID.
func Build(config Config) (Codec, error) {
	buildersMu.RLock()
	build, ok := builders[config.ID]
	buildersMu.RUnlock()
	if !ok {
		return nil, dataset.Errorf(dataset.KindMisconfigured,
			"unknown codec %q (registered: %v)", config.ID, registeredIDs())
	}
	return build(config)
}

func registeredIDs() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	ids := make([]string, 0, len(builders))
	for id := range builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
