// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves XDG Base Directory paths for assettrack.
//
// Fallbacks follow the XDG specification when the environment variables are
// unset. Directories are created private (0700) since the config directory
// may hold store endpoints.
package xdg

import (
	"os"
	"path/filepath"
)

// App is the directory name used under each XDG base.
const App = "assettrack"

// ConfigDir returns the XDG config directory for assettrack.
// It falls back to ~/.config/assettrack when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory, where the default SQLite store
// lives. It falls back to ~/.local/share/assettrack.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func dir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	d := filepath.Join(base, App)
	if err := os.MkdirAll(d, 0o700); err != nil { // private dir
		return "", err
	}
	return d, nil
}
