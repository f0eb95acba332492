package codegen

import (
	"sort"
	"strings"

	"github.com/tordrt/schemadraft/internal/naming"
	"github.com/tordrt/schemadraft/internal/schema"
)

const drizzleModule = "drizzle-orm/pg-core"

// drizzleBuilders maps a base type to its pg-core builder function.
var drizzleBuilders = map[string]string{
	"SERIAL":    "serial",
	"INTEGER":   "integer",
	"VARCHAR":   "varchar",
	"TEXT":      "text",
	"TIMESTAMP": "timestamp",
	"UUID":      "uuid",
}

// drizzleWriter collects the builder imports used while rendering.
type drizzleWriter struct {
	s       *schema.Schema
	imports map[string]struct{}
}

// Drizzle renders a Drizzle pg-core module: a single import of the builder
// functions actually used, then one pgTable constant per table. Constants are
// emitted in schema order; references between them rely on the lazy
// `() => table.column` form rather than declaration order.
func Drizzle(s *schema.Schema) string {
	schema.MustNotBeNil(s)

	w := &drizzleWriter{s: s, imports: make(map[string]struct{})}

	tables := s.Tables()
	decls := make([]string, 0, len(tables))
	for _, t := range tables {
		decls = append(decls, w.table(t))
	}

	return w.importLine() + "\n\n" + strings.Join(decls, "\n\n")
}

func (w *drizzleWriter) use(builder string) {
	w.imports[builder] = struct{}{}
}

func (w *drizzleWriter) importLine() string {
	names := make([]string, 0, len(w.imports))
	for name := range w.imports {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return "import {} from '" + drizzleModule + "';"
	}
	return "import { " + strings.Join(names, ", ") + " } from '" + drizzleModule + "';"
}

func (w *drizzleWriter) table(t *schema.Table) string {
	w.use("pgTable")
	composite := t.HasCompositeKey()

	cols := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		cols = append(cols, w.column(col, composite))
	}

	var b strings.Builder
	b.WriteString("export const ")
	b.WriteString(naming.ToCamelCase(t.Name))
	b.WriteString(" = pgTable('")
	b.WriteString(t.Name)
	b.WriteString("', {\n")
	b.WriteString(strings.Join(cols, ",\n"))
	b.WriteString("\n}")

	if composite {
		w.use("primaryKey")
		pk := t.PrimaryKey()
		refs := make([]string, len(pk))
		for i, c := range pk {
			refs[i] = "table." + naming.ToCamelCase(c.Name)
		}
		b.WriteString(", (table) => {\n  return {\n    pk: primaryKey({ columns: [")
		b.WriteString(strings.Join(refs, ", "))
		b.WriteString("] }),\n  };\n}")
	}

	b.WriteString(");")
	return b.String()
}

func (w *drizzleWriter) column(col schema.Column, compositeKey bool) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(naming.ToCamelCase(col.Name))
	b.WriteString(": ")
	b.WriteString(w.builderCall(col))

	if col.IsPrimaryKey && !compositeKey {
		b.WriteString(".primaryKey()")
	}
	if !col.RendersNullable() {
		b.WriteString(".notNull()")
	}
	if col.IsUnique {
		b.WriteString(".unique()")
	}
	switch {
	case col.DefaultValue == schema.CurrentTimestamp:
		b.WriteString(".defaultNow()")
	case col.HasDefault():
		b.WriteString(".default(")
		b.WriteString(col.DefaultValue)
		b.WriteString(")")
	}
	if fk := col.ForeignKey; fk != nil && w.s.Resolves(fk) {
		b.WriteString(".references(() => ")
		b.WriteString(naming.ToCamelCase(fk.Table))
		b.WriteString(".")
		b.WriteString(naming.ToCamelCase(fk.Column))
		b.WriteString(")")
	}
	return b.String()
}

// builderCall renders the column constructor, e.g. integer('user_id').
// Unmapped types become custom('<raw type>')('<name>').
func (w *drizzleWriter) builderCall(col schema.Column) string {
	builder, ok := drizzleBuilders[baseType(col.Type)]
	if !ok {
		return "custom('" + col.Type + "')('" + col.Name + "')"
	}

	w.use(builder)
	if builder == "varchar" {
		return "varchar('" + col.Name + "', { length: 255 })"
	}
	return builder + "('" + col.Name + "')"
}
