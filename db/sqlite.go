package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteManager implements Manager over a SQLite database file.
type SQLiteManager struct {
	db *sql.DB
}

var _ Manager = (*SQLiteManager)(nil)

// OpenSQLite opens the SQLite database at path (":memory:" works for tests).
func OpenSQLite(path string) (*SQLiteManager, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite database %s: %w", path, err)
	}
	return &SQLiteManager{db: conn}, nil
}

// NewSQLiteManager wraps an existing connection; the caller keeps ownership of
// closing it through this manager.
func NewSQLiteManager(conn *sql.DB) *SQLiteManager {
	return &SQLiteManager{db: conn}
}

// DB exposes the underlying connection, used by the seeder.
func (m *SQLiteManager) DB() *sql.DB {
	return m.db
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return m.db.Close()
}

// Query executes a read query and returns each row as a column-name map.
// []byte column values are converted to strings so results serialize cleanly.
func (m *SQLiteManager) Query(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return results, nil
}

// Tables lists the user tables, skipping SQLite's internal bookkeeping tables.
func (m *SQLiteManager) Tables(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Schema describes every table via PRAGMA introspection.
func (m *SQLiteManager) Schema(ctx context.Context) ([]Table, error) {
	names, err := m.Tables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := m.tableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		foreignKeys, err := m.foreignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: columns, ForeignKeys: foreignKeys})
	}
	return tables, nil
}

// SchemaString renders the schema for embedding into prompts.
func (m *SQLiteManager) SchemaString(ctx context.Context) (string, error) {
	tables, err := m.Schema(ctx)
	if err != nil {
		return "", err
	}
	return RenderSchema(tables), nil
}

// SampleRows returns up to limit rows from a table for previewing.
func (m *SQLiteManager) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = defaultSampleLimit
	}
	if err := checkTable(ctx, m, table); err != nil {
		return nil, err
	}
	return m.Query(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT %d", table, limit))
}

func (m *SQLiteManager) tableColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		columns = append(columns, Column{
			Name:       name,
			Type:       typ,
			PrimaryKey: pk > 0,
			Nullable:   notNull == 0,
		})
	}
	return columns, rows.Err()
}

func (m *SQLiteManager) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	var foreignKeys []ForeignKey
	for rows.Next() {
		var (
			id, seq                    int
			refTable, from, to         string
			onUpdate, onDelete, match_ string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match_); err != nil {
			return nil, fmt.Errorf("scan foreign_key_list %s: %w", table, err)
		}
		foreignKeys = append(foreignKeys, ForeignKey{
			Column:           from,
			ReferencedTable:  refTable,
			ReferencedColumn: to,
		})
	}
	return foreignKeys, rows.Err()
}
