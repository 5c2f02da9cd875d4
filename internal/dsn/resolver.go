// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

const supportedHint = "use https://script.google.com/macros/s/<id>/exec, postgres://, sqlite://<path>, grpc://host:port or memory:"

// DetectKind detects the backend from an endpoint string
func DetectKind(endpoint string) Kind {
	lower := strings.ToLower(strings.TrimSpace(endpoint))

	switch {
	case strings.HasPrefix(lower, "https://"):
		return KindScript
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"):
		return KindSQLite
	case strings.HasPrefix(lower, "grpc://"), strings.HasPrefix(lower, "grpcs://"):
		return KindGRPC
	case lower == "memory:", strings.HasPrefix(lower, "memory://"):
		return KindMemory
	}
	return KindUnknown
}

func resolverFor(endpoint string) (Resolver, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, NewParseError(endpoint, "empty endpoint", supportedHint)
	}
	switch DetectKind(endpoint) {
	case KindScript:
		return ScriptResolver{}, nil
	case KindPostgres:
		return NewPostgreSQLResolver(), nil
	case KindSQLite:
		return SQLiteResolver{}, nil
	case KindGRPC:
		return GRPCResolver{}, nil
	case KindMemory:
		return memoryResolver{}, nil
	}
	if strings.HasPrefix(strings.ToLower(endpoint), "http://") {
		return nil, NewParseError(endpoint, "plain http is not supported", "use the https:// web app URL")
	}
	return nil, NewParseError(endpoint, "unknown endpoint type", supportedHint)
}

// Parse parses an endpoint and returns its normalized form.
// This is the main entry point for endpoint parsing
func Parse(endpoint string) (string, error) {
	r, err := resolverFor(endpoint)
	if err != nil {
		return "", err
	}
	info, err := r.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", err
	}
	return r.Normalize(info)
}

// Validate validates an endpoint without normalizing it
func Validate(endpoint string) error {
	_, err := ParseInfo(endpoint)
	return err
}

// ParseInfo parses an endpoint and returns detailed info
func ParseInfo(endpoint string) (*Info, error) {
	r, err := resolverFor(endpoint)
	if err != nil {
		return nil, err
	}
	return r.Parse(strings.TrimSpace(endpoint))
}

type memoryResolver struct{}

func (memoryResolver) Parse(endpoint string) (*Info, error) {
	return &Info{Kind: KindMemory, Params: map[string]string{}, Original: endpoint}, nil
}

func (memoryResolver) Normalize(*Info) (string, error) { return "memory:", nil }
