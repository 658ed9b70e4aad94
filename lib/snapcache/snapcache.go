// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapcache caches fetched snapshot documents on local disk.
// Snapshots are immutable and content-addressed, so an entry never
// expires: once the cached bytes hash to their id, they are the
// snapshot, forever. The cache therefore has no eviction, only
// verification — an entry that fails to decode or no longer hashes to
// its id is discarded and refetched, never surfaced as an error.
//
// Entries are CBOR envelopes carrying the exact document bytes plus
// fetch provenance, laid out in two-level sharded directories so a
// long history does not pile thousands of files into one directory.
// Writes go through a temp file and rename, so a crashed process
// never leaves a truncated entry behind.
package snapcache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/strata-data/strata/lib/clock"
	"github.com/strata-data/strata/lib/codec"
	"github.com/strata-data/strata/lib/dataset"
)

const (
	snapshotDir = "snapshot"
	tmpDir      = "tmp"
)

// entry is the on-disk envelope for one cached snapshot document.
type entry struct {
	// Document is the snapshot's exact bytes as served by the
	// gateway. Stored verbatim so the content-id check keeps working
	// on every read.
	Document []byte `cbor:"document"`

	// FetchedAt records when the document was fetched.
	FetchedAt dataset.Timestamp `cbor:"fetched_at"`

	// Origin names where the document came from, normally the
	// gateway base URL. Informational.
	Origin string `cbor:"origin,omitempty"`
}

// Config holds configuration for creating a cache Store.
type Config struct {
	// Root is the cache directory. Created if absent. Required.
	Root string

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Clock timestamps entries. Defaults to the system clock.
	Clock clock.Clock
}

// Store is a local snapshot document cache.
type Store struct {
	root   string
	logger *slog.Logger
	clock  clock.Clock
}

// New opens (creating if needed) a cache rooted at config.Root.
func New(config Config) (*Store, error) {
	if config.Root == "" {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "snapshot cache root is required")
	}
	for _, dir := range []string{
		filepath.Join(config.Root, snapshotDir),
		filepath.Join(config.Root, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{root: config.Root, logger: logger, clock: clk}, nil
}

// entryPath returns the sharded path for an id: two levels of two hex
// characters, then the full hex name.
func (s *Store) entryPath(id dataset.ContentID) string {
	hex := id.String()
	return filepath.Join(s.root, snapshotDir, hex[:2], hex[2:4], hex+".cbor")
}

// Get returns the cached document bytes for id. A missing, corrupt,
// or mismatched entry is a miss, never an error; bad entries are
// removed so the follow-up Put rewrites them.
func (s *Store) Get(id dataset.ContentID) ([]byte, bool) {
	path := s.entryPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var cached entry
	if err := codec.Unmarshal(data, &cached); err != nil {
		s.logger.Debug("discarding undecodable cache entry", "id", id.Short(), "error", err)
		os.Remove(path)
		return nil, false
	}
	if dataset.ContentIDFor(cached.Document) != id {
		s.logger.Debug("discarding cache entry that fails verification", "id", id.Short())
		os.Remove(path)
		return nil, false
	}
	return cached.Document, true
}

// Put stores a document under its id. The caller has already verified
// that the document hashes to the id; Put re-verifies on the next Get
// rather than here. Identical existing entries are left in place.
func (s *Store) Put(id dataset.ContentID, document []byte, origin string) error {
	encoded, err := codec.Marshal(entry{
		Document:  document,
		FetchedAt: dataset.NewTimestamp(s.clock.Now()),
		Origin:    origin,
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "snapshot-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(encoded); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing cache entry: %w", err)
	}

	finalPath := s.entryPath(id)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("creating cache shard directory: %w", err)
	}

	// Same id means same document bytes; an existing entry is already
	// correct and the staged temp file is surplus.
	if _, err := os.Stat(finalPath); err == nil {
		return nil
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming cache entry: %w", err)
	}
	success = true
	return nil
}

// DocumentSource fetches verified snapshot document bytes;
// gateway.Client implements it.
type DocumentSource interface {
	SnapshotDocument(ctx context.Context, id dataset.ContentID) ([]byte, error)
}

// CachingStore is a fetch-through snapshot store: reads hit the local
// cache first and fall back to the source, writing what they fetched.
// It implements chain.SnapshotStore.
type CachingStore struct {
	store  *Store
	source DocumentSource
	origin string
}

// Wrap returns a CachingStore reading through s to source. The origin
// string is recorded in entries for provenance, normally the gateway
// base URL.
func (s *Store) Wrap(source DocumentSource, origin string) *CachingStore {
	return &CachingStore{store: s, source: source, origin: origin}
}

// Snapshot returns the snapshot for id, from cache when possible. A
// cache write failure is logged and otherwise ignored: the caller
// asked for the snapshot, not for durable caching.
func (c *CachingStore) Snapshot(ctx context.Context, id dataset.ContentID) (*dataset.VersionSnapshot, error) {
	if document, ok := c.store.Get(id); ok {
		return dataset.ParseSnapshot(id, document)
	}

	document, err := c.source.SnapshotDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(id, document, c.origin); err != nil {
		c.store.logger.Warn("snapshot fetched but not cached", "id", id.Short(), "error", err)
	}
	return dataset.ParseSnapshot(id, document)
}
