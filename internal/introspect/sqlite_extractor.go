package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// SQLiteExtractor reads tables from a SQLite database.
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a SQLite extractor.
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{client: client}
}

// ExtractSchema extracts the given tables, or every user table when tables
// is empty.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	names, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	out := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := e.extractTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		out = append(out, t)
	}
	return schema.New(out...), nil
}

func (e *SQLiteExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.client.DB().QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// extractTable reads table_info once; it carries both columns and the
// primary key order.
func (e *SQLiteExtractor) extractTable(ctx context.Context, name string) (*schema.Table, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	defer rows.Close()

	parts := tableParts{name: name}
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:     colName,
			Type:     strings.ToUpper(colType),
			Nullable: notNull == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue, _ = normalizeDefault(defaultValue.String)
		}
		if pk > 0 {
			parts.primaryKey = append(parts.primaryKey, colName)
		}
		parts.columns = append(parts.columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	unique, err := e.uniqueColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique constraints: %w", err)
	}
	for i := range parts.columns {
		parts.columns[i].IsUnique = unique[parts.columns[i].Name]
	}

	if parts.foreignKeys, err = e.foreignKeys(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	return parts.table(), nil
}

// uniqueColumns returns the columns covered by a single-column unique index.
// Indexes that back the primary key are skipped.
func (e *SQLiteExtractor) uniqueColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}

	var indexes []string
	for rows.Next() {
		var (
			seq             int
			name, origin    string
			unique, partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		if unique == 1 && origin != "pk" {
			indexes = append(indexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make(map[string]bool)
	for _, idx := range indexes {
		cols, err := e.indexColumns(ctx, idx)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			out[cols[0]] = true
		}
	}
	return out, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (e *SQLiteExtractor) foreignKeys(ctx context.Context, table string) (map[string]*schema.ForeignKey, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]*schema.ForeignKey)
	for rows.Next() {
		var (
			id, seq                   int
			target, from              string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		// A reference without a column list targets the parent's primary key.
		column := to.String
		if !to.Valid || column == "" {
			column = "id"
		}
		if _, ok := fks[from]; !ok {
			fks[from] = &schema.ForeignKey{Table: target, Column: column}
		}
	}
	return fks, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
