package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	schema.MustNotBeNil(s)

	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range s.Tables() {
		f.FormatTable(s, table)
	}
	return nil
}

// FormatTable writes one table section, including the tables that reference it.
func (f *MarkdownFormatter) FormatTable(s *schema.Schema, table *schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		if c := constraints(col); c != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.Type, c)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.Type)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if refs := references(table); len(refs) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, col := range refs {
			line := fmt.Sprintf("- %s → %s.%s", col.Name, col.ForeignKey.Table, col.ForeignKey.Column)
			if !s.Resolves(col.ForeignKey) {
				line += " _(not in schema)_"
			}
			_, _ = fmt.Fprintln(f.writer, line)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if incoming := referencedBy(s, table.Name); len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, in := range incoming {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s\n", in.table, in.column, in.target)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func constraints(col schema.Column) string {
	var out []string
	if col.IsPrimaryKey {
		out = append(out, "PK")
	}
	if col.IsUnique {
		out = append(out, "UNIQUE")
	}
	if !col.RendersNullable() {
		out = append(out, "NOT NULL")
	}
	if col.HasDefault() {
		out = append(out, "DEFAULT "+col.DefaultValue)
	}
	return strings.Join(out, ", ")
}

type incomingRef struct {
	table, column, target string
}

// referencedBy finds every foreign key in s that points at the named table.
func referencedBy(s *schema.Schema, name string) []incomingRef {
	var refs []incomingRef
	for _, t := range s.Tables() {
		for _, col := range t.Columns {
			if col.ForeignKey != nil && col.ForeignKey.Table == name {
				refs = append(refs, incomingRef{table: t.Name, column: col.Name, target: col.ForeignKey.Column})
			}
		}
	}
	return refs
}
