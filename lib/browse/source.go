// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"context"

	"github.com/strata-data/strata/lib/chain"
	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/gateway"
	"github.com/strata-data/strata/lib/registry"
)

// History is the version chain of one dataset as loaded for display:
// the resolved pointer plus the snapshots reachable from its head,
// newest first.
type History struct {
	Key       dataset.Key
	Pointer   dataset.Pointer
	Snapshots []*dataset.VersionSnapshot
}

// Head returns the newest snapshot, or nil for an empty history.
func (h History) Head() *dataset.VersionSnapshot {
	if len(h.Snapshots) == 0 {
		return nil
	}
	return h.Snapshots[0]
}

// Source abstracts dataset access for the TUI. The live implementation
// is [ChainSource]; tests substitute an in-memory fake. Both methods
// are called from bubbletea commands, never from the update loop, so
// they may block on the network.
type Source interface {
	// Datasets returns all known dataset keys, sorted.
	Datasets(ctx context.Context) ([]dataset.Key, error)

	// History resolves key and walks its version chain from the head,
	// newest first, up to limit snapshots.
	History(ctx context.Context, key dataset.Key, limit int) (History, error)
}

// ChainSource implements [Source] on the live resolution stack:
// registry for the key list, gateway for head pointers, walker for
// the chains.
type ChainSource struct {
	Resolver *registry.Resolver
	Gateway  *gateway.Client
	Walker   *chain.Walker
}

// Datasets lists every dataset key the registry (or its cache) knows.
func (source *ChainSource) Datasets(ctx context.Context) ([]dataset.Key, error) {
	return source.Resolver.Datasets(ctx)
}

// History resolves the key to a pointer, asks the gateway for the
// pointer's current head, and walks the chain backward.
func (source *ChainSource) History(ctx context.Context, key dataset.Key, limit int) (History, error) {
	pointer, err := source.Resolver.Resolve(ctx, key)
	if err != nil {
		return History{}, err
	}
	head, err := source.Gateway.Head(ctx, pointer)
	if err != nil {
		return History{}, err
	}
	snapshots, err := source.Walker.History(ctx, head, limit)
	if err != nil {
		return History{}, err
	}
	return History{Key: key, Pointer: pointer, Snapshots: snapshots}, nil
}
