package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool is the subset of pgxpool.Pool the manager needs, kept as an interface
// so tests can substitute pgxmock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresManager implements Manager over a PostgreSQL database.
type PostgresManager struct {
	pool   DBPool
	schema string
}

var _ Manager = (*PostgresManager)(nil)

// OpenPostgres connects to the database at connString and introspects the
// public schema.
func OpenPostgres(ctx context.Context, connString string) (*PostgresManager, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return NewPostgresManager(pool, ""), nil
}

// NewPostgresManager wraps an existing pool. An empty schema means "public".
// Useful for testing with mocks.
func NewPostgresManager(pool DBPool, schema string) *PostgresManager {
	if schema == "" {
		schema = "public"
	}
	return &PostgresManager{pool: pool, schema: schema}
}

// Close closes the connection pool.
func (m *PostgresManager) Close() error {
	m.pool.Close()
	return nil
}

// Query executes a read query and returns each row as a column-name map.
func (m *PostgresManager) Query(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := m.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, field := range fields {
			row[string(field.Name)] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return results, nil
}

// Tables lists the base tables of the configured schema.
func (m *PostgresManager) Tables(ctx context.Context) ([]string, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, m.schema)
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

// Schema describes every table via information_schema.
func (m *PostgresManager) Schema(ctx context.Context) ([]Table, error) {
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
func (m *PostgresManager) SchemaString(ctx context.Context) (string, error) {
	tables, err := m.Schema(ctx)
	if err != nil {
		return "", err
	}
	return RenderSchema(tables), nil
}

// SampleRows returns up to limit rows from a table for previewing.
func (m *PostgresManager) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = defaultSampleLimit
	}
	if err := checkTable(ctx, m, table); err != nil {
		return nil, err
	}
	return m.Query(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT %d", table, limit))
}

func (m *PostgresManager) tableColumns(ctx context.Context, table string) ([]Column, error) {
	primaryKeys, err := m.primaryKeyColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := m.pool.Query(ctx,
		`SELECT column_name, data_type, is_nullable FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`, m.schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		columns = append(columns, Column{
			Name:       name,
			Type:       dataType,
			PrimaryKey: primaryKeys[name],
			Nullable:   isNullable == "YES",
		})
	}
	return columns, rows.Err()
}

func (m *PostgresManager) primaryKeyColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT kcu.column_name
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		 WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2`,
		m.schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe primary key of %s: %w", table, err)
	}
	defer rows.Close()

	primaryKeys := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key of %s: %w", table, err)
		}
		primaryKeys[name] = true
	}
	return primaryKeys, rows.Err()
}

func (m *PostgresManager) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT kcu.column_name, ccu.table_name, ccu.column_name
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		 JOIN information_schema.constraint_column_usage ccu
		   ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		 WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2`,
		m.schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var foreignKeys []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key of %s: %w", table, err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	return foreignKeys, rows.Err()
}
