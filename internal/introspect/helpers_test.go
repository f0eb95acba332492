package introspect

import (
	"testing"

	"github.com/tordrt/schemadraft/internal/schema"
)

func verifyTablesExist(t *testing.T, s *schema.Schema, expected []string) {
	t.Helper()
	for _, name := range expected {
		if !s.Has(name) {
			t.Errorf("expected table %s not found", name)
		}
	}
}

func verifyColumns(t *testing.T, table *schema.Table, expected []string) {
	t.Helper()
	if table == nil {
		t.Fatal("table is nil")
	}
	if len(table.Columns) != len(expected) {
		t.Fatalf("table %s: expected %d columns, got %d", table.Name, len(expected), len(table.Columns))
	}
	for i, name := range expected {
		if table.Columns[i].Name != name {
			t.Errorf("table %s: column %d = %s, want %s", table.Name, i, table.Columns[i].Name, name)
		}
	}
}

func verifyPrimaryKey(t *testing.T, table *schema.Table, expected []string) {
	t.Helper()
	if table == nil {
		t.Fatal("table is nil")
	}
	pk := table.PrimaryKey()
	if len(pk) != len(expected) {
		t.Fatalf("table %s: expected %d primary key columns, got %d", table.Name, len(expected), len(pk))
	}
	for i, name := range expected {
		if pk[i].Name != name {
			t.Errorf("table %s: primary key column %d = %s, want %s", table.Name, i, pk[i].Name, name)
		}
	}
}

func verifyUniqueConstraint(t *testing.T, s *schema.Schema, tableName, columnName string) {
	t.Helper()
	table, ok := s.Get(tableName)
	if !ok {
		t.Fatalf("table %s not found", tableName)
	}
	col, ok := table.Column(columnName)
	if !ok {
		t.Fatalf("column %s.%s not found", tableName, columnName)
	}
	if !col.IsUnique {
		t.Errorf("expected %s.%s to be unique", tableName, columnName)
	}
}

func verifyForeignKey(t *testing.T, s *schema.Schema, tableName, sourceColumn, targetTable string) {
	t.Helper()
	table, ok := s.Get(tableName)
	if !ok {
		t.Fatalf("table %s not found", tableName)
	}
	col, ok := table.Column(sourceColumn)
	if !ok {
		t.Fatalf("column %s.%s not found", tableName, sourceColumn)
	}
	if col.ForeignKey == nil || col.ForeignKey.Table != targetTable {
		t.Errorf("expected %s.%s to reference %s, got %+v", tableName, sourceColumn, targetTable, col.ForeignKey)
	}
}
