// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; endpoints carrying credentials go
// to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/xdg"
)

// EnvStore overrides the configured store endpoint.
const EnvStore = "ASSETTRACK_STORE"

// DefaultPageSize is the number of rows list shows per page.
const DefaultPageSize = 20

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel string       `json:"log_level"`
	PageSize int          `json:"page_size"`
	Tables   asset.Tables `json:"tables"`
	Store    StoreConfig  `json:"store"`
}

// StoreConfig holds the row store endpoint when it carries no secret.
type StoreConfig struct {
	Endpoint string `json:"endpoint"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		PageSize: DefaultPageSize,
		Tables:   asset.DefaultTables(),
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults. Zero values in
// the file fall back to the defaults too.
func Load() (Config, error) {
	c := Default()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), err
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Source names where an endpoint was found.
type Source string

const (
	SourceFlag     Source = "--store flag"
	SourceEnv      Source = EnvStore + " environment variable"
	SourceKeychain Source = "OS keychain"
	SourceConfig   Source = "config file"
)

// ResolveEndpoint picks the store endpoint: flag, then environment, then
// keychain, then config file. keychain may be nil when secure storage is
// unavailable.
func ResolveEndpoint(flag string, keychain func() (string, error), c Config) (string, Source, error) {
	if v := strings.TrimSpace(flag); v != "" {
		return v, SourceFlag, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvStore)); v != "" {
		return v, SourceEnv, nil
	}
	if keychain != nil {
		if v, err := keychain(); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), SourceKeychain, nil
		}
	}
	if v := strings.TrimSpace(c.Store.Endpoint); v != "" {
		return v, SourceConfig, nil
	}
	return "", "", ErrNoEndpoint
}

// ErrNoEndpoint is returned when no store endpoint is configured anywhere.
var ErrNoEndpoint = errors.New("no row store configured")
