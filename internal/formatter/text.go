// Package formatter writes human-readable summaries of a schema and exports
// every generated code format to a directory.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	schema.MustNotBeNil(s)

	for i, table := range s.Tables() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(s, table)
	}
	return nil
}

func (f *TextFormatter) formatTable(s *schema.Schema, table *schema.Table) {
	pkStr := ""
	if pk := primaryKeyNames(table); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	refs := references(table)
	if len(refs) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "  REFERENCES:")
	for _, ref := range refs {
		marker := ""
		if !s.Resolves(ref.ForeignKey) {
			marker = " (missing)"
		}
		_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s%s\n", ref.Name, ref.ForeignKey.Table, ref.ForeignKey.Column, marker)
	}
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", col.Type}

	if col.IsUnique && !col.IsPrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if !col.RendersNullable() {
		parts = append(parts, "NOT NULL")
	}
	if col.HasDefault() {
		parts = append(parts, "DEFAULT "+col.DefaultValue)
	}

	return strings.Join(parts, " ")
}

func primaryKeyNames(t *schema.Table) []string {
	var names []string
	for _, c := range t.PrimaryKey() {
		names = append(names, c.Name)
	}
	return names
}

// references returns the columns of t that carry a foreign key.
func references(t *schema.Table) []schema.Column {
	var cols []schema.Column
	for _, c := range t.Columns {
		if c.ForeignKey != nil {
			cols = append(cols, c)
		}
	}
	return cols
}
