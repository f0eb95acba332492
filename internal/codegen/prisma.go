package codegen

import (
	"strings"

	"github.com/tordrt/schemadraft/internal/naming"
	"github.com/tordrt/schemadraft/internal/schema"
)

const prismaPreamble = `generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

`

var prismaTypes = map[string]string{
	"SERIAL":    "Int",
	"INTEGER":   "Int",
	"VARCHAR":   "String",
	"TEXT":      "String",
	"TIMESTAMP": "DateTime",
	"UUID":      "String",
}

func prismaType(t string) string {
	if mapped, ok := prismaTypes[baseType(t)]; ok {
		return mapped
	}
	return "String"
}

// Prisma renders a Prisma schema: the client/datasource preamble followed by
// one model per table. Relation fields are only emitted for foreign keys
// whose target exists in s.
func Prisma(s *schema.Schema) string {
	schema.MustNotBeNil(s)

	tables := s.Tables()
	models := make([]string, 0, len(tables))
	for _, t := range tables {
		models = append(models, prismaModel(s, t))
	}
	return prismaPreamble + strings.Join(models, "\n\n")
}

func prismaModel(s *schema.Schema, t *schema.Table) string {
	fields := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		fields = append(fields, prismaField(s, col))
	}

	var b strings.Builder
	b.WriteString("model ")
	b.WriteString(naming.ToPascalCase(t.Name))
	b.WriteString(" {\n")
	b.WriteString(strings.Join(fields, "\n"))

	if pk := t.PrimaryKey(); len(pk) > 1 {
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = naming.ToCamelCase(c.Name)
		}
		b.WriteString("\n  @@id([")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("])")
	}
	if naming.ToCamelCase(t.Name) != t.Name {
		b.WriteString("\n  @@map(\"")
		b.WriteString(t.Name)
		b.WriteString("\")")
	}

	b.WriteString("\n}")
	return b.String()
}

func prismaField(s *schema.Schema, col schema.Column) string {
	field := naming.ToCamelCase(col.Name)

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(field)
	b.WriteString(" ")
	b.WriteString(prismaType(col.Type))
	if col.RendersNullable() {
		b.WriteString("?")
	}

	if col.IsPrimaryKey {
		b.WriteString(" @id")
	}
	if col.IsUnique {
		b.WriteString(" @unique")
	}
	switch {
	case col.DefaultValue == schema.CurrentTimestamp:
		b.WriteString(" @default(now())")
	case col.HasDefault():
		b.WriteString(" @default(")
		b.WriteString(col.DefaultValue)
		b.WriteString(")")
	}
	if field != col.Name {
		b.WriteString(" @map(\"")
		b.WriteString(col.Name)
		b.WriteString("\")")
	}

	if fk := col.ForeignKey; fk != nil && s.Resolves(fk) {
		b.WriteString("\n  ")
		b.WriteString(naming.ToCamelCase(fk.Table))
		b.WriteString(" ")
		b.WriteString(naming.ToPascalCase(fk.Table))
		b.WriteString(" @relation(fields: [")
		b.WriteString(field)
		b.WriteString("], references: [")
		b.WriteString(naming.ToCamelCase(fk.Column))
		b.WriteString("])")
	}
	return b.String()
}
