// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the strata CLI configuration.
//
// Configuration is a single YAML file. The path is resolved in order:
//
//   - the --config flag, when given
//   - the STRATA_CONFIG environment variable
//   - $XDG_CONFIG_HOME/strata/config.yaml (usually ~/.config/strata)
//
// An explicitly named file must exist; a missing file at the default
// path is a normal cold start and yields the defaults. Environment
// variables never override individual config values — the file is the
// single source of truth, and the only expansion performed is ${HOME}
// and similar variables inside path fields for portability.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the config file.
const EnvVar = "STRATA_CONFIG"

// Config is the strata CLI configuration.
type Config struct {
	// RegistryURL is the URL of the registry mapping document that
	// names every known dataset. Required by dataset commands.
	RegistryURL string `yaml:"registry_url"`

	// GatewayURL is the base URL of the content gateway serving
	// pointers, snapshots, and blobs. Required by dataset commands.
	GatewayURL string `yaml:"gateway_url"`

	// CacheDir is the root directory for local caches: the registry
	// mapping copy and the snapshot document cache.
	// Default: $XDG_CACHE_HOME/strata (usually ~/.cache/strata).
	CacheDir string `yaml:"cache_dir"`

	// Pipeline is the path of the JSONC chunk pipeline definition
	// used by chunk commands.
	Pipeline string `yaml:"pipeline"`

	// Keyfile is the path of a plaintext keyfile: 32 raw bytes or 64
	// hex characters. Mutually exclusive with SealedKeyfile.
	Keyfile string `yaml:"keyfile"`

	// SealedKeyfile is the path of an age-sealed keyfile. Requires
	// IdentityFile.
	SealedKeyfile string `yaml:"sealed_keyfile"`

	// IdentityFile is the path of the age identity file that unseals
	// SealedKeyfile.
	IdentityFile string `yaml:"identity_file"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration. These are the values a
// cold start with no config file runs with; the URLs stay empty
// because there is no meaningful default registry or gateway.
func Default() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = ".strata-cache"
	}
	return &Config{
		CacheDir: filepath.Join(cacheDir, "strata"),
		LogLevel: "info",
	}
}

// DefaultPath returns the default config file location:
// $XDG_CONFIG_HOME/strata/config.yaml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(configDir, "strata", "config.yaml"), nil
}

// Load resolves the config file path and loads it. explicitPath is the
// --config flag value, empty when the flag was not given. An explicit
// path (flag or STRATA_CONFIG) must exist; a missing file at the
// default path yields Default().
func Load(explicitPath string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path != "" {
		return LoadFile(path)
	}

	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.expandVariables()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file, merging it over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of %v, got %q", levels, c.LogLevel))
	}

	if c.CacheDir == "" {
		errs = append(errs, fmt.Errorf("cache_dir is required"))
	}

	if c.Keyfile != "" && c.SealedKeyfile != "" {
		errs = append(errs, fmt.Errorf("keyfile and sealed_keyfile are mutually exclusive"))
	}
	if c.SealedKeyfile != "" && c.IdentityFile == "" {
		errs = append(errs, fmt.Errorf("sealed_keyfile requires identity_file"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to its slog level. Unknown values (already
// rejected by Validate) fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RegistryCachePath is the registry mapping cache file under CacheDir.
func (c *Config) RegistryCachePath() string {
	return filepath.Join(c.CacheDir, "registry.json")
}

// SnapshotCacheRoot is the snapshot document cache root under
// CacheDir. The snapshot store manages its own subdirectories.
func (c *Config) SnapshotCacheRoot() string {
	return filepath.Join(c.CacheDir, "snapshots")
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields.
func (c *Config) expandVariables() {
	c.CacheDir = expandVars(c.CacheDir)
	c.Pipeline = expandVars(c.Pipeline)
	c.Keyfile = expandVars(c.Keyfile)
	c.SealedKeyfile = expandVars(c.SealedKeyfile)
	c.IdentityFile = expandVars(c.IdentityFile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
