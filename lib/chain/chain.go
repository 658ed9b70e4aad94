// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package chain walks the backward-linked list of version snapshots
// to answer point-in-time queries. The walk is a linear backward scan
// by design: each hop requires fetching one snapshot document, and
// the chain is not locally indexable, so there is nothing to binary
// search over. Hop and wall-time budgets bound the scan so a
// corrupted chain (or an as-of far before the retained history) fails
// loudly instead of walking forever.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/strata-data/strata/lib/clock"
	"github.com/strata-data/strata/lib/dataset"
)

// SnapshotStore fetches immutable snapshot documents by content id.
// lib/gateway implements it over HTTP; lib/snapcache wraps any
// implementation with a local cache; tests use in-memory maps.
type SnapshotStore interface {
	Snapshot(ctx context.Context, id dataset.ContentID) (*dataset.VersionSnapshot, error)
}

// DefaultMaxHops bounds a walk when Walker.MaxHops is zero. A chain
// this long means either an as-of far before the retained history or
// a corrupted chain; both should fail rather than hammer the gateway
// one snapshot at a time.
const DefaultMaxHops = 1024

// Walker resolves version chains over a SnapshotStore. The zero
// value needs only Store; every other field has a usable default.
type Walker struct {
	// Store fetches snapshots. Required.
	Store SnapshotStore

	// MaxHops caps the snapshots fetched in one walk. Zero or
	// negative selects DefaultMaxHops.
	MaxHops int

	// MaxElapsed caps the wall time of one walk, measured with
	// Clock. Zero means no time cap.
	MaxElapsed time.Duration

	// Clock measures MaxElapsed. Nil selects the system clock.
	Clock clock.Clock

	// Logger receives walk diagnostics. Nil selects slog.Default().
	Logger *slog.Logger
}

// Head fetches the head snapshot directly, the no-as-of form of a
// resolution.
func (w *Walker) Head(ctx context.Context, head dataset.ContentID) (*dataset.VersionSnapshot, error) {
	snapshot, err := w.Store.Snapshot(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("fetching head snapshot %s: %w", head.Short(), err)
	}
	return snapshot, nil
}

// ResolveAsOf returns the most recent snapshot whose creation time is
// at or before asOf (inclusive: an exact match returns that
// snapshot). It fetches the head and follows predecessor links while
// the snapshot in hand is newer than asOf. A chain exhausted before
// the condition holds fails with a no-metadata-found error; a walk
// exceeding the hop or time budget fails with a chain-too-deep error.
func (w *Walker) ResolveAsOf(ctx context.Context, head dataset.ContentID, asOf time.Time) (*dataset.VersionSnapshot, error) {
	walk := w.newWalk()

	snapshot, err := walk.fetch(ctx, head)
	if err != nil {
		return nil, err
	}
	for snapshot.CreatedAt.Time().After(asOf) {
		previous, ok := snapshot.Previous()
		if !ok {
			return nil, dataset.Errorf(dataset.KindNoMetadataFound,
				"no version at or before %s: the oldest retained snapshot is %s from %s",
				dataset.NewTimestamp(asOf), snapshot.ID.Short(), snapshot.CreatedAt)
		}
		snapshot, err = walk.fetch(ctx, previous)
		if err != nil {
			return nil, err
		}
	}

	walk.logger.Debug("resolved as-of query",
		"as_of", dataset.NewTimestamp(asOf).String(),
		"snapshot", snapshot.ID.Short(),
		"created_at", snapshot.CreatedAt.String(),
		"hops", walk.hops,
	)
	return snapshot, nil
}

// History lists snapshots newest to oldest starting at head: the
// first limit entries, or the whole chain when limit is zero or
// negative. A full-chain listing that hits the walk budget returns
// the snapshots gathered so far (enumeration may be truncated;
// resolution may not), logging the truncation. Fetch failures abort.
func (w *Walker) History(ctx context.Context, head dataset.ContentID, limit int) ([]*dataset.VersionSnapshot, error) {
	walk := w.newWalk()

	var snapshots []*dataset.VersionSnapshot
	id := head
	for {
		if limit > 0 && len(snapshots) == limit {
			return snapshots, nil
		}
		snapshot, err := walk.fetch(ctx, id)
		if err != nil {
			if dataset.IsKind(err, dataset.KindChainTooDeep) && len(snapshots) > 0 {
				walk.logger.Warn("history truncated by walk budget",
					"snapshots", len(snapshots), "head", head.Short())
				return snapshots, nil
			}
			return nil, err
		}
		snapshots = append(snapshots, snapshot)

		previous, ok := snapshot.Previous()
		if !ok {
			return snapshots, nil
		}
		id = previous
	}
}

// walkState carries one walk's budget accounting.
type walkState struct {
	store   SnapshotStore
	maxHops int
	budget  time.Duration
	clock   clock.Clock
	start   time.Time
	logger  *slog.Logger
	hops    int
}

func (w *Walker) newWalk() *walkState {
	maxHops := w.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	clk := w.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &walkState{
		store:   w.Store,
		maxHops: maxHops,
		budget:  w.MaxElapsed,
		clock:   clk,
		start:   clk.Now(),
		logger:  logger,
	}
}

// fetch retrieves one snapshot, charging it against the hop and time
// budgets. Budget checks run before the network call so a walk never
// overshoots by more than the fetch already in flight.
func (s *walkState) fetch(ctx context.Context, id dataset.ContentID) (*dataset.VersionSnapshot, error) {
	if s.hops >= s.maxHops {
		return nil, dataset.Errorf(dataset.KindChainTooDeep,
			"chain walk exceeded %d hops (corrupted chain, or an as-of far before retained history)", s.maxHops)
	}
	if s.budget > 0 {
		if elapsed := s.clock.Now().Sub(s.start); elapsed > s.budget {
			return nil, dataset.Errorf(dataset.KindChainTooDeep,
				"chain walk exceeded its %s time budget after %d hops", s.budget, s.hops)
		}
	}

	snapshot, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot %s: %w", id.Short(), err)
	}
	s.hops++
	return snapshot, nil
}
