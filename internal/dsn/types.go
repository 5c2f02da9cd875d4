// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn recognizes and normalizes row store endpoints. An endpoint is
// a URL-like string whose scheme selects the backend: the script web app,
// PostgreSQL, a local SQLite file, a gRPC row store server or the in-process
// memory store.
package dsn

import "fmt"

// Kind is the backend an endpoint points at.
type Kind string

const (
	KindScript   Kind = "script"
	KindPostgres Kind = "postgresql"
	KindSQLite   Kind = "sqlite"
	KindGRPC     Kind = "grpc"
	KindMemory   Kind = "memory"
	KindUnknown  Kind = "unknown"
)

// Info contains parsed information from an endpoint string.
type Info struct {
	Kind     Kind
	Host     string
	Port     string
	User     string
	Password string
	// Database is the Postgres database name.
	Database string
	// Path is the SQLite file or the script URL path.
	Path string
	// Secure is set for TLS transports.
	Secure   bool
	Params   map[string]string
	Original string
}

// String returns the endpoint as given.
func (i *Info) String() string {
	return i.Original
}

// Secret reports whether the endpoint carries a credential and belongs in the
// OS keychain rather than the config file.
func (i *Info) Secret() bool {
	if i.Password != "" {
		return true
	}
	for _, k := range []string{"key", "token", "password"} {
		if i.Params[k] != "" {
			return true
		}
	}
	return false
}

// Resolver parses and normalizes endpoints of one kind.
type Resolver interface {
	// Parse parses an endpoint string
	Parse(endpoint string) (*Info, error)

	// Normalize converts parsed info back to a canonical endpoint string
	Normalize(info *Info) (string, error)
}

// ParseError represents an error that occurred during endpoint parsing
type ParseError struct {
	Endpoint string
	Reason   string
	Hint     string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid store endpoint: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid store endpoint: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(endpoint, reason, hint string) *ParseError {
	return &ParseError{
		Endpoint: endpoint,
		Reason:   reason,
		Hint:     hint,
	}
}
