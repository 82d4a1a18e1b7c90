// Package db provides access to the sales database together with the schema
// introspection the SQL-generation prompts depend on.
//
// Two backends implement Manager: SQLite for the demo deployment and
// PostgreSQL for production-shaped installs. Both render their schema into the
// same prompt-ready string, so the chains never care which engine is behind
// them.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTable is returned when a caller-supplied table name does not match
// any table in the database.
var ErrUnknownTable = errors.New("unknown table")

// defaultSampleLimit is how many rows SampleRows returns when the caller does
// not ask for a specific count.
const defaultSampleLimit = 5

// Column describes a single table column.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	Nullable   bool
}

// ForeignKey describes a single foreign-key relationship.
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Table describes one table of the sales database.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Manager is the interface the chains use to run queries and describe the
// database.
type Manager interface {
	// Query executes a read query and returns each row as a column-name map.
	Query(ctx context.Context, query string) ([]map[string]any, error)
	// Tables lists the user tables of the database.
	Tables(ctx context.Context) ([]string, error)
	// Schema describes every table with its columns and foreign keys.
	Schema(ctx context.Context) ([]Table, error)
	// SchemaString renders the schema for embedding into prompts.
	SchemaString(ctx context.Context) (string, error)
	// SampleRows returns up to limit rows from a table so users can preview
	// its contents. A non-positive limit selects a small default.
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
	Close() error
}

// checkTable ensures a caller-supplied table name refers to an actual table
// before it is interpolated into a query.
func checkTable(ctx context.Context, m Manager, table string) error {
	tables, err := m.Tables(ctx)
	if err != nil {
		return err
	}
	for _, name := range tables {
		if name == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownTable, table)
}

// RenderSchema renders tables into the textual schema description used in
// prompts.
func RenderSchema(tables []Table) string {
	var b strings.Builder
	b.WriteString("Database Schema:\n\n")

	for _, table := range tables {
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		b.WriteString("Columns:\n")
		for _, col := range table.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " (Primary Key)"
			}
			nullable := ""
			if col.Nullable {
				nullable = " (Nullable)"
			}
			fmt.Fprintf(&b, "  - %s (%s)%s%s\n", col.Name, col.Type, pk, nullable)
		}

		if len(table.ForeignKeys) > 0 {
			b.WriteString("Foreign Keys:\n")
			for _, fk := range table.ForeignKeys {
				fmt.Fprintf(&b, "  - %s references %s(%s)\n", fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
