// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/strata-data/strata/lib/chain"
	"github.com/strata-data/strata/lib/config"
	"github.com/strata-data/strata/lib/gateway"
	"github.com/strata-data/strata/lib/registry"
	"github.com/strata-data/strata/lib/snapcache"
)

// ConfigFlags returns a flag set pre-populated with the --config flag,
// the one flag every configuration-loading command shares. Commands
// add their own flags to the returned set.
func ConfigFlags(name string, configPath *string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.StringVar(configPath, "config", "",
		"config file path (overrides "+config.EnvVar+")")
	return flags
}

// Stack is the wired resolution stack shared by dataset commands:
// registry resolver with cache fallback, gateway client, and chain
// walker reading through the local snapshot cache.
type Stack struct {
	Config   *config.Config
	Logger   *slog.Logger
	Resolver *registry.Resolver
	Gateway  *gateway.Client
	Walker   *chain.Walker
}

// NewStack loads configuration from configPath (the --config flag
// value, empty for the default chain) and wires the full stack.
func NewStack(configPath string) (*Stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.SlogLevel())

	if cfg.RegistryURL == "" {
		return nil, fmt.Errorf("registry_url is not configured (set it in the config file)")
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("gateway_url is not configured (set it in the config file)")
	}

	resolver, err := registry.NewResolver(registry.Config{
		RegistryURL: cfg.RegistryURL,
		CachePath:   cfg.RegistryCachePath(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL: cfg.GatewayURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	// The walker reads snapshots through the local cache when it is
	// usable; a cache that cannot be opened (read-only filesystem,
	// permissions) costs repeated fetches, not functionality.
	var store chain.SnapshotStore = client
	cache, err := snapcache.New(snapcache.Config{
		Root:   cfg.SnapshotCacheRoot(),
		Logger: logger,
	})
	if err != nil {
		logger.Warn("snapshot cache unavailable, fetching uncached",
			"root", cfg.SnapshotCacheRoot(),
			"error", err,
		)
	} else {
		store = cache.Wrap(client, cfg.GatewayURL)
	}

	return &Stack{
		Config:   cfg,
		Logger:   logger,
		Resolver: resolver,
		Gateway:  client,
		Walker:   &chain.Walker{Store: store, Logger: logger},
	}, nil
}
