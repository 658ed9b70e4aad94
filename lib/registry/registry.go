// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry resolves dataset keys to content-network pointers.
//
// The authoritative source is a remote registry serving one JSON
// object that maps every dataset key to its pointer. Each successful
// fetch refreshes a local cache file of the same shape, and when the
// registry is unreachable the resolver degrades to that cache without
// surfacing the failure: a field deployment with spotty connectivity
// keeps resolving the datasets it has seen before. Only when both
// sources are unusable does resolution fail.
//
// The cache file is rewritten atomically (temp file + rename), so a
// concurrent reader never observes a partial mapping. Writes are not
// locked against other processes; concurrent resolvers race to write
// identical fresh content, making last-writer-wins harmless.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/netutil"
)

// Config configures a Resolver.
type Config struct {
	// RegistryURL is the full URL of the registry mapping document.
	// Required.
	RegistryURL string

	// CachePath is the local cache file holding the last mapping
	// fetched from the registry. Required. The file and its parent
	// directory are created on the first successful fetch.
	CachePath string

	// HTTPClient is the client for registry fetches. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives fallback and cache-maintenance events. Defaults
	// to slog.Default().
	Logger *slog.Logger
}

// Resolver maps dataset keys to pointers, preferring the remote
// registry and falling back to the local cache.
type Resolver struct {
	registryURL string
	cachePath   string
	client      *http.Client
	logger      *slog.Logger
}

// NewResolver validates the configuration and returns a Resolver.
func NewResolver(config Config) (*Resolver, error) {
	if config.RegistryURL == "" {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "registry URL is required")
	}
	if config.CachePath == "" {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "registry cache path is required")
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registryURL: config.RegistryURL,
		cachePath:   config.CachePath,
		client:      client,
		logger:      logger,
	}, nil
}

// Resolve returns the pointer for a dataset key.
//
// A reachable registry is authoritative: the key is looked up in the
// fresh mapping and the cache is refreshed as a side effect. When the
// registry is unreachable or returns a malformed mapping, the lookup
// falls back to the cache. A key absent from whichever source answered
// fails with kind DatasetNotFound — so does a registry failure with no
// usable cache, since at that point the key is unknown to both.
func (r *Resolver) Resolve(ctx context.Context, key dataset.Key) (dataset.Pointer, error) {
	mapping, err := r.fetchRegistry(ctx)
	if err != nil {
		r.logger.Debug("registry unreachable, falling back to cache",
			"url", r.registryURL,
			"error", err,
		)
		cached, cacheErr := r.readCache()
		if cacheErr != nil {
			r.logger.Debug("registry cache unusable",
				"path", r.cachePath,
				"error", cacheErr,
			)
			return "", dataset.Errorf(dataset.KindDatasetNotFound,
				"dataset %q: registry unreachable and no usable cache", key)
		}
		pointer, ok := cached[key]
		if !ok {
			return "", dataset.Errorf(dataset.KindDatasetNotFound,
				"dataset %q: not in cache and registry unreachable", key)
		}
		return pointer, nil
	}

	r.refreshCache(mapping)

	pointer, ok := mapping[key]
	if !ok {
		return "", dataset.Errorf(dataset.KindDatasetNotFound,
			"dataset %q: not in registry", key)
	}
	return pointer, nil
}

// Datasets returns every known dataset key, sorted. The fallback
// policy matches Resolve; when both the registry and the cache are
// unusable the error kind is Unavailable, since with no mapping at all
// there is no particular dataset to report missing.
func (r *Resolver) Datasets(ctx context.Context) ([]dataset.Key, error) {
	mapping, err := r.fetchRegistry(ctx)
	if err != nil {
		r.logger.Debug("registry unreachable, listing from cache",
			"url", r.registryURL,
			"error", err,
		)
		cached, cacheErr := r.readCache()
		if cacheErr != nil {
			return nil, dataset.Errorf(dataset.KindUnavailable,
				"listing datasets: registry unreachable and no usable cache")
		}
		mapping = cached
	} else {
		r.refreshCache(mapping)
	}

	keys := make([]dataset.Key, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// fetchRegistry retrieves and parses the full registry mapping. Every
// failure mode — transport error, non-2xx status, malformed JSON — is
// a plain error: callers treat them all as "registry unusable" and
// never surface them directly.
func (r *Resolver) fetchRegistry(ctx context.Context) (map[dataset.Key]dataset.Pointer, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, r.registryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building registry request: %w", err)
	}
	response, err := r.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching registry: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %s: %s",
			response.Status, netutil.ErrorBody(response.Body))
	}

	var mapping map[dataset.Key]dataset.Pointer
	if err := netutil.DecodeResponse(response.Body, &mapping); err != nil {
		return nil, fmt.Errorf("decoding registry mapping: %w", err)
	}
	return mapping, nil
}

// readCache parses the local cache file. Errors here are meaningful
// only after a registry failure; on the registry-success path the
// caller treats them as an empty cache.
func (r *Resolver) readCache() (map[dataset.Key]dataset.Pointer, error) {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		return nil, err
	}
	var mapping map[dataset.Key]dataset.Pointer
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("decoding registry cache %s: %w", r.cachePath, err)
	}
	return mapping, nil
}

// refreshCache rewrites the cache file when the fresh mapping differs
// from the cached one. The comparison is on parsed maps, so key order
// and whitespace differences alone never trigger a rewrite; a missing
// or unreadable cache counts as empty. Write failures are logged and
// swallowed — the caller already holds a fresh mapping, and a stale
// cache only matters on some future offline run.
func (r *Resolver) refreshCache(fresh map[dataset.Key]dataset.Pointer) {
	cached, err := r.readCache()
	if err == nil && maps.Equal(cached, fresh) {
		return
	}
	if err := r.writeCache(fresh); err != nil {
		r.logger.Warn("registry cache not updated",
			"path", r.cachePath,
			"error", err,
		)
		return
	}
	r.logger.Debug("registry cache updated",
		"path", r.cachePath,
		"datasets", len(fresh),
	)
}

// writeCache atomically replaces the cache file: write to a temp file
// in the same directory, then rename over the final path.
func (r *Resolver) writeCache(mapping map[dataset.Key]dataset.Pointer) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry cache: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "registry-*.json")
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

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing cache data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, r.cachePath); err != nil {
		return fmt.Errorf("renaming cache file to %s: %w", r.cachePath, err)
	}

	success = true
	return nil
}
