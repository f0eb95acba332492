package codegen

import (
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// SQL renders one CREATE TABLE statement per table, separated by a blank
// line. Identifiers and defaults are emitted verbatim. Foreign keys are
// emitted whether or not the referenced table exists.
func SQL(s *schema.Schema) string {
	schema.MustNotBeNil(s)

	tables := s.Tables()
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, sqlTable(t))
	}
	return strings.Join(stmts, "\n\n")
}

func sqlTable(t *schema.Table) string {
	lines := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		lines = append(lines, sqlColumn(col))
	}
	for _, col := range t.Columns {
		if col.ForeignKey == nil {
			continue
		}
		lines = append(lines, "  FOREIGN KEY ("+col.Name+") REFERENCES "+col.ForeignKey.Table+"("+col.ForeignKey.Column+")")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(t.Name)
	b.WriteString(" (\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")
	return b.String()
}

func sqlColumn(col schema.Column) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(col.Name)
	b.WriteString(" ")
	b.WriteString(col.Type)

	if !col.RendersNullable() {
		b.WriteString(" NOT NULL")
	}
	if col.HasDefault() {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.DefaultValue)
	}
	if col.IsPrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	// A primary key is already unique.
	if col.IsUnique && !col.IsPrimaryKey {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}
