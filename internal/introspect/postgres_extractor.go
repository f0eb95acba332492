package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// PostgresExtractor reads tables from one PostgreSQL schema.
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates an extractor for the named schema, usually "public".
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{client: client, schema: schemaName}
}

// ExtractSchema extracts the given tables, or every base table when tables
// is empty.
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
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

func (e *PostgresExtractor) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.client.Conn().Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schema)
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

func (e *PostgresExtractor) extractTable(ctx context.Context, name string) (*schema.Table, error) {
	parts := tableParts{name: name}

	var err error
	if parts.columns, err = e.columns(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if parts.primaryKey, err = e.primaryKey(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if parts.foreignKeys, err = e.foreignKeys(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	return parts.table(), nil
}

func (e *PostgresExtractor) columns(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := e.client.Conn().Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.constraint_column_usage ccu
					ON tc.constraint_name = ccu.constraint_name
					AND tc.table_schema = ccu.table_schema
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND ccu.column_name = c.column_name
			) THEN true ELSE false END AS is_unique,
			c.udt_name,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, e.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			col           schema.Column
			nullable      string
			defaultVal    *string
			dataType      string
			udtName       string
			charMaxLength *int
		)
		if err := rows.Scan(&col.Name, &dataType, &nullable, &defaultVal, &col.IsUnique, &udtName, &charMaxLength); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Type = postgresType(dataType, udtName, charMaxLength)
		if defaultVal != nil {
			def, plain := normalizeDefault(*defaultVal)
			if !plain {
				col.Type = serialType(col.Type)
			}
			col.DefaultValue = def
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *PostgresExtractor) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := e.client.Conn().Query(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`, e.schema, table)
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

func (e *PostgresExtractor) foreignKeys(ctx context.Context, table string) (map[string]*schema.ForeignKey, error) {
	rows, err := e.client.Conn().Query(ctx, `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`, e.schema, table)
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
		// A column in a composite foreign key keeps its first target.
		if _, ok := fks[col]; !ok {
			fks[col] = fk
		}
	}
	return fks, rows.Err()
}

// postgresType maps information_schema type names to the short upper-case
// names used in designs.
func postgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "TIMESTAMPTZ"
	case "timestamp without time zone":
		return "TIMESTAMP"
	case "time with time zone":
		return "TIMETZ"
	case "time without time zone":
		return "TIME"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *charMaxLength)
		}
		return "VARCHAR"
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("CHAR(%d)", *charMaxLength)
		}
		return "CHAR"
	case "ARRAY":
		// udt_name carries a leading underscore for arrays, e.g. "_int4"
		if strings.HasPrefix(udtName, "_") {
			return udtAlias(udtName[1:]) + "[]"
		}
		return "ARRAY"
	case "USER-DEFINED":
		return udtName
	}
	return strings.ToUpper(dataType)
}

func udtAlias(udt string) string {
	switch udt {
	case "int4":
		return "INTEGER"
	case "int8":
		return "BIGINT"
	case "int2":
		return "SMALLINT"
	case "float4":
		return "REAL"
	case "float8":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	}
	return strings.ToUpper(udt)
}

// serialType folds a sequence default into the matching serial type.
func serialType(t string) string {
	switch t {
	case "INTEGER":
		return "SERIAL"
	case "BIGINT":
		return "BIGSERIAL"
	case "SMALLINT":
		return "SMALLSERIAL"
	}
	return t
}
