// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for
// assettrack. It stores store endpoints that carry credentials (Postgres DSNs
// with passwords, script URLs with keys) in the OS credential store so they
// never land in the config file.
//
// macOS uses the security command when present and falls back to the keyring
// library; Windows uses Credential Manager; Linux uses the Secret Service or
// pass.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "assettrack"

// KeyStoreEndpoint is the key holding the row store endpoint.
const KeyStoreEndpoint = "store_endpoint"

// ErrNotFound is returned when no endpoint is stored.
var ErrNotFound = errors.New("no endpoint in keychain")

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewWithRing(ring), nil
}

// NewWithRing creates a manager over an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
// There is no encrypted-file fallback.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux":
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveEndpoint stores the row store endpoint.
func (m *Manager) SaveEndpoint(endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyStoreEndpoint, endpoint)
	}
	return m.ring.Set(keyring.Item{Key: KeyStoreEndpoint, Data: []byte(endpoint)})
}

// LoadEndpoint retrieves the row store endpoint. It returns ErrNotFound
// when nothing is stored.
func (m *Manager) LoadEndpoint() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var value string
	if m.backend != nil {
		v, err := m.backend.Get(KeyStoreEndpoint)
		if err != nil {
			return "", err
		}
		value = v
	} else {
		it, err := m.ring.Get(KeyStoreEndpoint)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", err
		}
		value = string(it.Data)
	}
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// ClearEndpoint removes the stored endpoint. Missing entries are not an error.
func (m *Manager) ClearEndpoint() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(KeyStoreEndpoint)
	}
	if err := m.ring.Remove(KeyStoreEndpoint); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
