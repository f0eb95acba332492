package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// MySQLExtractor reads tables from one MySQL database.
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates an extractor for the named database.
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{client: client, schemaName: schemaName}
}

// ExtractSchema extracts the given tables, or every base table when tables
// is empty.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	names, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	out := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		parts := tableParts{name: name}
		if parts.columns, err = e.columns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract table %s: columns: %w", name, err)
		}
		if parts.primaryKey, err = e.primaryKey(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract table %s: primary key: %w", name, err)
		}
		if parts.foreignKeys, err = e.foreignKeys(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract table %s: foreign keys: %w", name, err)
		}
		out = append(out, parts.table())
	}
	return schema.New(out...), nil
}

func (e *MySQLExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.client.DB().QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schemaName)
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

func (e *MySQLExtractor) columns(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := e.client.DB().QueryContext(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.table_schema = ?
					AND tc.table_name = ?
					AND tc.constraint_type = 'UNIQUE'
					AND kcu.column_name = c.column_name
			) THEN true ELSE false END AS is_unique,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, e.schemaName, table, e.schemaName, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			col        schema.Column
			columnType string
			nullable   string
			defaultVal sql.NullString
			extra      string
		)
		if err := rows.Scan(&col.Name, &columnType, &nullable, &defaultVal, &col.IsUnique, &extra); err != nil {
			return nil, err
		}

		col.Type = mysqlType(columnType, extra)
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.DefaultValue, _ = normalizeDefault(defaultVal.String)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *MySQLExtractor) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := e.client.DB().QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`, e.schemaName, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		pk = append(pk, col)
	}
	return pk, rows.Err()
}

func (e *MySQLExtractor) foreignKeys(ctx context.Context, table string) (map[string]*schema.ForeignKey, error) {
	rows, err := e.client.DB().QueryContext(ctx, `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position
	`, e.schemaName, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]*schema.ForeignKey)
	for rows.Next() {
		var col string
		fk := &schema.ForeignKey{}
		if err := rows.Scan(&col, &fk.Table, &fk.Column); err != nil {
			return nil, err
		}
		if _, ok := fks[col]; !ok {
			fks[col] = fk
		}
	}
	return fks, rows.Err()
}

// mysqlType upper-cases the column type and turns auto-increment integers
// into serial types.
func mysqlType(columnType, extra string) string {
	t := strings.ToUpper(strings.TrimSpace(columnType))
	if !strings.Contains(strings.ToLower(extra), "auto_increment") {
		return t
	}
	switch {
	case strings.HasPrefix(t, "BIGINT"):
		return "BIGSERIAL"
	case strings.HasPrefix(t, "INT"), strings.HasPrefix(t, "MEDIUMINT"):
		return "SERIAL"
	case strings.HasPrefix(t, "SMALLINT"):
		return "SMALLSERIAL"
	}
	return t
}
