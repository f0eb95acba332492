package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	fieldSep  = "\x1f"
	columnSep = "\x1e"
)

// Fingerprint summarizes a column list as a deterministic string. Equal
// fingerprints mean no semantic change, whether or not the columns are the
// same objects.
func Fingerprint(columns []Column) string {
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteString(columnSep)
		}
		b.WriteString(c.Name)
		b.WriteString(fieldSep)
		b.WriteString(c.Type)
		b.WriteString(fieldSep)
		b.WriteString(strconv.FormatBool(c.Nullable))
		b.WriteString(fieldSep)
		b.WriteString(strconv.FormatBool(c.IsPrimaryKey))
		b.WriteString(fieldSep)
		b.WriteString(strconv.FormatBool(c.IsUnique))
		b.WriteString(fieldSep)
		b.WriteString(c.DefaultValue)
		b.WriteString(fieldSep)
		if c.ForeignKey != nil {
			b.WriteString(c.ForeignKey.Table)
			b.WriteString(".")
			b.WriteString(c.ForeignKey.Column)
		}
	}
	return b.String()
}

// Fingerprint returns the fingerprint of the table's columns.
func (t *Table) Fingerprint() string {
	return Fingerprint(t.Columns)
}

// Digest is a compact xxhash form of the table's fingerprint, suitable for
// logging and cache keys.
func (t *Table) Digest() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(t.Name+columnSep+t.Fingerprint()))
}

// Digest hashes the table digests in order. Two schemas with the same digest
// generate the same code.
func (s *Schema) Digest() string {
	h := xxhash.New()
	for _, t := range s.tables {
		_, _ = h.WriteString(t.Digest())
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
