package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tordrt/schemadraft/internal/schema"
)

func TestPrismaBlog(t *testing.T) {
	want := prismaPreamble + `model Users {
  id Int @id
  email String @unique
  createdAt DateTime? @default(now()) @map("created_at")
}

model Posts {
  id Int @id
  userId Int? @map("user_id")
  users Users @relation(fields: [userId], references: [id])
  title String
  body String?
}

model Comments {
  id Int @id
  postId Int @map("post_id")
  posts Posts @relation(fields: [postId], references: [id])
  content String
}`

	assert.Equal(t, want, Prisma(blogSchema()))
}

func TestPrismaPreamble(t *testing.T) {
	assert.True(t, strings.HasPrefix(prismaPreamble, "generator client {\n  provider = \"prisma-client-js\"\n}\n\ndatasource db {\n"))
}

func TestPrismaEmpty(t *testing.T) {
	out := Prisma(schema.Empty())
	assert.Equal(t, prismaPreamble, out)
	assert.NotContains(t, out, "model ")
}

func TestPrismaCompositeKeyAndTableMap(t *testing.T) {
	want := prismaPreamble + `model PostTags {
  postId Int @id @map("post_id")
  tagId Int @id @map("tag_id")
  @@id([postId, tagId])
  @@map("post_tags")
}`

	assert.Equal(t, want, Prisma(postTagsSchema()))
}

func TestPrismaField(t *testing.T) {
	s := schema.Empty()
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{
			name: "unknown type falls back to String",
			col:  schema.Column{Name: "payload", Type: "JSONB", Nullable: true},
			want: "  payload String?",
		},
		{
			name: "lowercase type is mapped",
			col:  schema.Column{Name: "seen", Type: "timestamp"},
			want: "  seen DateTime",
		},
		{
			name: "raw default",
			col:  schema.Column{Name: "score", Type: "INTEGER", DefaultValue: "0"},
			want: "  score Int @default(0)",
		},
		{
			name: "uuid",
			col:  schema.Column{Name: "id", Type: "UUID", IsPrimaryKey: true, Nullable: true},
			want: "  id String @id",
		},
		{
			name: "dangling relation is left out",
			col:  schema.Column{Name: "org_id", Type: "INTEGER", ForeignKey: fk("orgs", "id")},
			want: "  orgId Int @map(\"org_id\")",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prismaField(s, tt.col))
		})
	}
}
