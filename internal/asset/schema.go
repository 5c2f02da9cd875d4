// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package asset describes the four tables the asset tracker works with:
// registered inventory, items pending verification, the status log and staff
// accounts. A Schema tells the rest of the CLI which fields a table has, in
// which sheet column they live, what must be filled in before a row may be
// submitted, and which fields a text search covers.
package asset

import (
	"strings"

	"assettrack/cli/internal/rowstore"
)

// Blank is the placeholder the sheet uses for "not chosen yet".
const Blank = "-"

// Column maps a field name to its sheet header label.
type Column struct {
	Field  string
	Header string
	// ReadOnly columns are filled in by the sheet script (running numbers,
	// timestamps) and are never sent on create or update.
	ReadOnly bool
}

// Schema describes one table.
type Schema struct {
	// Table is the remote table (sheet) name.
	Table string
	// Columns lists the table's columns in sheet order.
	Columns []Column
	// Required fields must be non-blank before a row is submitted.
	Required []string
	// Search lists the fields covered by free-text search.
	Search []string
	// Defaults are applied to new rows for fields left blank.
	Defaults rowstore.Fields
	// CreateAction is the sheet script action that appends a row.
	CreateAction string
}

// Fields returns the field names in column order.
func (s Schema) Fields() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Field
	}
	return out
}

// Writable returns the columns that may be sent to the store.
func (s Schema) Writable() []Column {
	var out []Column
	for _, c := range s.Columns {
		if !c.ReadOnly {
			out = append(out, c)
		}
	}
	return out
}

// HasField reports whether the schema has a column named field.
func (s Schema) HasField(field string) bool {
	for _, c := range s.Columns {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Missing returns the required fields that are blank in f.
func (s Schema) Missing(f rowstore.Fields) []string {
	return MissingOf(f, s.Required)
}

// WithDefaults fills blank fields of f from the schema defaults.
func (s Schema) WithDefaults(f rowstore.Fields) rowstore.Fields {
	out := f.Clone()
	for k, v := range s.Defaults {
		if IsBlank(out[k]) {
			out[k] = v
		}
	}
	return out
}

// IsBlank reports whether v is empty, whitespace or the "-" placeholder.
func IsBlank(v string) bool {
	t := strings.TrimSpace(v)
	return t == "" || t == Blank
}

// MissingOf returns the names in required that are blank in f.
func MissingOf(f rowstore.Fields, required []string) []string {
	var missing []string
	for _, name := range required {
		if IsBlank(f[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Tables names the four tables of one deployment.
type Tables struct {
	Inventory string `json:"inventory"`
	Pending   string `json:"pending"`
	Log       string `json:"log"`
	Users     string `json:"users"`
}

// DefaultTables returns the stock sheet names.
func DefaultTables() Tables {
	return Tables{Inventory: "DATA", Pending: "WAIT", Log: "LOG", Users: "LOGIN"}
}

// Catalog holds the schema of every known table keyed by table name.
type Catalog struct {
	Tables  Tables
	schemas map[string]Schema
}

// NewCatalog builds the schemas for the given table names.
func NewCatalog(t Tables) *Catalog {
	d := DefaultTables()
	if t.Inventory == "" {
		t.Inventory = d.Inventory
	}
	if t.Pending == "" {
		t.Pending = d.Pending
	}
	if t.Log == "" {
		t.Log = d.Log
	}
	if t.Users == "" {
		t.Users = d.Users
	}
	c := &Catalog{Tables: t, schemas: make(map[string]Schema)}
	for _, s := range []Schema{
		inventorySchema(t.Inventory),
		movementSchema(t.Pending, "add"),
		movementSchema(t.Log, "addLog"),
		usersSchema(t.Users),
	} {
		c.schemas[s.Table] = s
	}
	return c
}

// Schema returns the schema of table. Unknown tables get a permissive schema
// with no columns, required fields or search fields.
func (c *Catalog) Schema(table string) (Schema, bool) {
	s, ok := c.schemas[table]
	if !ok {
		return Schema{Table: table, CreateAction: "add"}, false
	}
	return s, true
}

// Names returns every known table name.
func (c *Catalog) Names() []string {
	return []string{c.Tables.Inventory, c.Tables.Pending, c.Tables.Log, c.Tables.Users}
}

func inventorySchema(table string) Schema {
	return Schema{
		Table: table,
		Columns: []Column{
			{Field: "no", Header: "ลำดับ", ReadOnly: true},
			{Field: "code", Header: "รหัส"},
			{Field: "name", Header: "ชื่อ"},
			{Field: "category", Header: "ที่อยู่"},
			{Field: "status", Header: "สถานะ"},
			{Field: "detail", Header: "รายละเอียด"},
		},
		Required:     []string{"code", "name"},
		Search:       []string{"code", "name", "category"},
		Defaults:     rowstore.Fields{"category": Blank, "status": StatusUsable, "detail": Blank},
		CreateAction: "add",
	}
}

// movementSchema covers the pending table and the log, which share columns.
func movementSchema(table, createAction string) Schema {
	return Schema{
		Table: table,
		Columns: []Column{
			{Field: "code", Header: "รหัส"},
			{Field: "name", Header: "ชื่อ"},
			{Field: "location", Header: "ที่อยู่"},
			{Field: "status", Header: "สถานะ"},
			{Field: "note", Header: "หมายเหตุ"},
			{Field: "date", Header: "วันที่", ReadOnly: true},
			{Field: "time", Header: "เวลา", ReadOnly: true},
		},
		Required:     []string{"code", "name"},
		Search:       []string{"code", "name", "location", "status"},
		CreateAction: createAction,
	}
}

func usersSchema(table string) Schema {
	return Schema{
		Table: table,
		Columns: []Column{
			{Field: "id", Header: "ID"},
			{Field: "pass", Header: "Pass"},
			{Field: "role", Header: "Status"},
			{Field: "name", Header: "Name"},
		},
		Required:     []string{"id", "pass", "name"},
		Search:       []string{"id", "name", "role"},
		Defaults:     rowstore.Fields{"role": "user"},
		CreateAction: "add",
	}
}

// MoveRequired lists the destination fields an approval must supply.
var MoveRequired = []string{"location", "status"}
