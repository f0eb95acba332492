// Package codegen renders a schema as copy-paste source in three dialects:
// SQL DDL, a Prisma schema, and a Drizzle pg-core module.
//
// Every generator is a pure function of its input. Malformed data degrades
// the output (unknown types fall back to a passthrough, dangling relations
// are left out where they can be checked) but never produces an error. A nil
// *schema.Schema is a caller bug and panics with schema.ErrNilSchema.
package codegen

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// ErrUnknownFormat is returned for a format name with no generator.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output dialect.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatPrisma  Format = "prisma"
	FormatDrizzle Format = "drizzle"
)

type generator struct {
	render   func(*schema.Schema) string
	fileName string
}

var generators = map[Format]generator{
	FormatSQL:     {render: SQL, fileName: "schema.sql"},
	FormatPrisma:  {render: Prisma, fileName: "schema.prisma"},
	FormatDrizzle: {render: Drizzle, fileName: "schema.ts"},
}

// Formats lists the supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatSQL, FormatPrisma, FormatDrizzle}
}

// ParseFormat resolves a user-supplied format name. "ts" and "typescript"
// are accepted for Drizzle, "ddl" for SQL.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sql", "ddl":
		return FormatSQL, nil
	case "prisma":
		return FormatPrisma, nil
	case "drizzle", "ts", "typescript":
		return FormatDrizzle, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: sql, prisma, drizzle)", ErrUnknownFormat, name)
	}
}

// Generate renders s in the given format.
func Generate(f Format, s *schema.Schema) (string, error) {
	g, ok := generators[f]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return g.render(s), nil
}

// Write renders s in the given format to w.
func Write(w io.Writer, f Format, s *schema.Schema) error {
	out, err := Generate(f, s)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

// FileName is the conventional file name for a format's output.
func FileName(f Format) string {
	return generators[f].fileName
}

// baseType returns the portion of a type tag before any parenthesis,
// upper-cased for map lookup: "varchar(255)" becomes "VARCHAR".
func baseType(t string) string {
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	return strings.ToUpper(strings.TrimSpace(t))
}
