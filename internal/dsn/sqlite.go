// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"path/filepath"
	"strings"
)

// SQLiteResolver handles sqlite://path and file:path endpoints.
type SQLiteResolver struct{}

// Parse extracts the database path. sqlite:///abs/path and sqlite://rel/path
// are both accepted.
func (SQLiteResolver) Parse(endpoint string) (*Info, error) {
	var path string
	switch lower := strings.ToLower(endpoint); {
	case strings.HasPrefix(lower, "sqlite://"):
		path = endpoint[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"):
		path = strings.TrimPrefix(endpoint[len("file:"):], "//")
	default:
		return nil, NewParseError(endpoint, "missing or invalid scheme", "use sqlite://<path>")
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.TrimSpace(path) == "" {
		return nil, NewParseError(endpoint, "missing database path", "use sqlite://<path>, for example sqlite://assets.db")
	}
	return &Info{Kind: KindSQLite, Path: filepath.Clean(path), Params: map[string]string{}, Original: endpoint}, nil
}

// Normalize returns sqlite://<cleaned path>.
func (SQLiteResolver) Normalize(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil endpoint info", "")
	}
	return "sqlite://" + info.Path, nil
}
