// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpstore talks to a spreadsheet published through a script web app.
//
// Reads are GET <endpoint>?sheet=NAME&t=<unix ms> and return a JSON array of
// row arrays, optionally starting with the header row. Mutations are
// multipart POSTs carrying sheet, action and row fields plus one form field
// per column keyed by the column's header label; the script answers with
// {"status": "...", "message": "..."}. The sheet keeps its header in row 1,
// so row position p is sheet row p+1.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

// headerRows is the number of sheet rows above the first data row.
const headerRows = 1

// Store implements rowstore.Store over the script web app protocol.
type Store struct {
	// endpoint is the deployed web app URL ending in /exec
	endpoint string
	// catalog maps table names to their column layout
	catalog *asset.Catalog
	// client is the underlying HTTP client with configured timeout
	client *http.Client
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option { return func(s *Store) { s.client = c } }

// New creates a store for endpoint. Requests time out after 30 seconds;
// script cold starts regularly take several.
func New(endpoint string, catalog *asset.Catalog, opts ...Option) *Store {
	s := &Store{
		endpoint: strings.TrimRight(endpoint, "/"),
		catalog:  catalog,
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FetchAll reads every data row of table.
func (s *Store) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, "invalid store endpoint", err)
	}
	q := u.Query()
	q.Set("sheet", table)
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, "read "+table, err)
	}
	body, err := s.do(req, "read "+table)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return nil, rejection("read "+table, trimmed)
	}
	var cells [][]any
	if err := json.Unmarshal(trimmed, &cells); err != nil {
		return nil, aterrors.Wrap(aterrors.RemoteRejection, "read "+table+": unexpected response", err)
	}
	schema, _ := s.catalog.Schema(table)
	return decodeRows(schema, cells), nil
}

// Create appends a row using the table's create action.
func (s *Store) Create(ctx context.Context, table string, fields rowstore.Fields) error {
	schema, _ := s.catalog.Schema(table)
	return s.post(ctx, table, schema.CreateAction, 0, encodeFields(schema, fields))
}

// UpdateAt overwrites the row at position.
func (s *Store) UpdateAt(ctx context.Context, table string, position int, fields rowstore.Fields) error {
	schema, _ := s.catalog.Schema(table)
	return s.post(ctx, table, "edit", position, encodeFields(schema, fields))
}

// DeleteAt removes the row at position.
func (s *Store) DeleteAt(ctx context.Context, table string, position int) error {
	return s.post(ctx, table, "delete", position, nil)
}

func (s *Store) post(ctx context.Context, table, action string, position int, form []formField) error {
	op := fmt.Sprintf("%s %s", action, table)
	if position > 0 {
		op = fmt.Sprintf("%s row %d", op, position)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("sheet", table)
	_ = w.WriteField("action", action)
	if position > 0 {
		_ = w.WriteField("row", strconv.Itoa(position+headerRows))
	}
	for _, f := range form {
		_ = w.WriteField(f.key, f.value)
	}
	if err := w.Close(); err != nil {
		return aterrors.Wrap(aterrors.TransportFailure, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &buf)
	if err != nil {
		return aterrors.Wrap(aterrors.TransportFailure, op, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := s.do(req, op)
	if err != nil {
		return err
	}
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return aterrors.Wrap(aterrors.RemoteRejection, op+": unexpected response", err)
	}
	if !accepted(out.Status) {
		msg := out.Message
		if msg == "" {
			msg = "status " + strconv.Quote(out.Status)
		}
		return aterrors.New(aterrors.RemoteRejection, op+": "+msg)
	}
	return nil
}

func (s *Store) do(req *http.Request, op string) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, op+": reading response", err)
	}
	switch {
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, aterrors.Newf(aterrors.TransportFailure, "%s: %s", op, resp.Status)
	case resp.StatusCode >= 300:
		return nil, aterrors.Newf(aterrors.RemoteRejection, "%s: %s", op, resp.Status)
	}
	return body, nil
}

func accepted(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "ok":
		return true
	}
	return false
}

func rejection(op string, body []byte) error {
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Message == "" {
		return aterrors.New(aterrors.RemoteRejection, op+": unexpected response")
	}
	return aterrors.New(aterrors.RemoteRejection, op+": "+out.Message)
}

type formField struct {
	key   string
	value string
}

// encodeFields keys values by header label in column order. Read-only
// columns are left to the script; fields outside the schema are sent under
// their own names.
func encodeFields(schema asset.Schema, fields rowstore.Fields) []formField {
	var out []formField
	known := make(map[string]struct{}, len(schema.Columns))
	for _, c := range schema.Columns {
		known[c.Field] = struct{}{}
		if c.ReadOnly {
			continue
		}
		if v, ok := fields[c.Field]; ok {
			out = append(out, formField{key: c.Header, value: v})
		}
	}
	for _, k := range fields.Keys() {
		if _, ok := known[k]; !ok {
			out = append(out, formField{key: k, value: fields[k]})
		}
	}
	return out
}

// decodeRows maps row arrays onto schema fields by column index. For a table
// without a schema the first row is taken as the header.
func decodeRows(schema asset.Schema, cells [][]any) []rowstore.Fields {
	names := schema.Fields()
	if len(cells) > 0 && isHeader(schema, cells[0]) {
		cells = cells[1:]
	} else if len(names) == 0 && len(cells) > 0 {
		for _, c := range cells[0] {
			names = append(names, cellString(c))
		}
		cells = cells[1:]
	}

	out := make([]rowstore.Fields, 0, len(cells))
	for _, row := range cells {
		f := make(rowstore.Fields, len(names))
		for i, name := range names {
			if i < len(row) {
				f[name] = cellString(row[i])
			} else {
				f[name] = ""
			}
		}
		out = append(out, f)
	}
	return out
}

func isHeader(schema asset.Schema, row []any) bool {
	if len(schema.Columns) == 0 || len(row) == 0 {
		return false
	}
	for i, c := range schema.Columns {
		if i >= len(row) {
			break
		}
		if strings.TrimSpace(cellString(row[i])) != c.Header {
			return false
		}
	}
	return true
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
