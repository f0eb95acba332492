package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/schema"
)

func testSchema() *schema.Schema {
	return schema.New(
		&schema.Table{Name: "users", Columns: []schema.Column{
			{Name: "id", Type: "SERIAL", IsPrimaryKey: true, IsUnique: true},
			{Name: "email", Type: "VARCHAR(255)", IsUnique: true},
			{Name: "created_at", Type: "TIMESTAMP", Nullable: true, DefaultValue: schema.CurrentTimestamp},
		}},
		&schema.Table{Name: "posts", Columns: []schema.Column{
			{Name: "id", Type: "SERIAL", IsPrimaryKey: true},
			{Name: "user_id", Type: "INTEGER", ForeignKey: &schema.ForeignKey{Table: "users", Column: "id"}},
			{Name: "org_id", Type: "INTEGER", Nullable: true, ForeignKey: &schema.ForeignKey{Table: "orgs", Column: "id"}},
		}},
	)
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(&buf).Format(testSchema()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	wants := []string{
		"TABLE users (PK: id)\n",
		"  id: SERIAL NOT NULL\n",
		"  email: VARCHAR(255) UNIQUE NOT NULL\n",
		"  created_at: TIMESTAMP DEFAULT CURRENT_TIMESTAMP\n",
		"\nTABLE posts (PK: id)\n",
		"  REFERENCES:\n",
		"    user_id → users.id\n",
		"    org_id → orgs.id (missing)\n",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf).Format(testSchema()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	wants := []string{
		"# Database Schema\n",
		"## users\n",
		"- **id:** SERIAL, PK, UNIQUE, NOT NULL\n",
		"- **created_at:** TIMESTAMP, DEFAULT CURRENT_TIMESTAMP\n",
		"### Referenced by\n\n- posts.user_id → id\n",
		"- user_id → users.id\n",
		"- org_id → orgs.id _(not in schema)_\n",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	written, err := NewExporter(dir).Export(testSchema())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("expected 4 files, got %d: %v", len(written), written)
	}

	for _, f := range codegen.Formats() {
		data, err := os.ReadFile(filepath.Join(dir, codegen.FileName(f)))
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		want, _ := codegen.Generate(f, testSchema())
		if string(data) != want+"\n" {
			t.Errorf("%s file does not match generator output", f)
		}
	}

	overview, err := os.ReadFile(filepath.Join(dir, OverviewFile))
	if err != nil {
		t.Fatalf("read overview: %v", err)
	}
	for _, want := range []string{"# Schema Overview", "- **posts** (references: users, orgs)", "- **users**\n", "`schema.prisma`"} {
		if !strings.Contains(string(overview), want) {
			t.Errorf("overview missing %q", want)
		}
	}
}

func TestExporterSelectedFormats(t *testing.T) {
	dir := t.TempDir()

	written, err := NewExporter(dir, codegen.FormatSQL).Export(testSchema())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected sql + overview, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "schema.prisma")); !os.IsNotExist(err) {
		t.Errorf("schema.prisma should not be written")
	}
}
