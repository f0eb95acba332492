package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleColumns() []Column {
	return []Column{
		{Name: "id", Type: "SERIAL", IsPrimaryKey: true, IsUnique: true},
		{Name: "user_id", Type: "INTEGER", ForeignKey: &ForeignKey{Table: "users", Column: "id"}},
		{Name: "created_at", Type: "TIMESTAMP", Nullable: true, DefaultValue: CurrentTimestamp},
	}
}

func TestFingerprintStableForFreshColumns(t *testing.T) {
	assert.Equal(t, Fingerprint(sampleColumns()), Fingerprint(sampleColumns()))
}

func TestFingerprintChangesOnEveryAttribute(t *testing.T) {
	base := Fingerprint(sampleColumns())

	mutations := map[string]func(cols []Column){
		"name":           func(c []Column) { c[0].Name = "pk" },
		"type":           func(c []Column) { c[0].Type = "UUID" },
		"nullable":       func(c []Column) { c[0].Nullable = true },
		"primary key":    func(c []Column) { c[0].IsPrimaryKey = false },
		"unique":         func(c []Column) { c[0].IsUnique = false },
		"default":        func(c []Column) { c[2].DefaultValue = "now()" },
		"fk table":       func(c []Column) { c[1].ForeignKey = &ForeignKey{Table: "accounts", Column: "id"} },
		"fk column":      func(c []Column) { c[1].ForeignKey = &ForeignKey{Table: "users", Column: "uuid"} },
		"fk removed":     func(c []Column) { c[1].ForeignKey = nil },
		"column order":   func(c []Column) { c[0], c[1] = c[1], c[0] },
		"default added":  func(c []Column) { c[1].DefaultValue = "0" },
		"unique flipped": func(c []Column) { c[2].IsUnique = true },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cols := sampleColumns()
			mutate(cols)
			assert.NotEqual(t, base, Fingerprint(cols))
		})
	}
}

func TestFingerprintEmpty(t *testing.T) {
	assert.Equal(t, "", Fingerprint(nil))
}

func TestDigest(t *testing.T) {
	a := &Table{Name: "posts", Columns: sampleColumns()}
	b := &Table{Name: "posts", Columns: sampleColumns()}
	c := &Table{Name: "comments", Columns: sampleColumns()}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Len(t, a.Digest(), 16)
}

func TestSchemaDigest(t *testing.T) {
	users := &Table{Name: "users", Columns: sampleColumns()}
	posts := &Table{Name: "posts", Columns: sampleColumns()}

	a := New(users, posts)
	b := New(&Table{Name: "users", Columns: sampleColumns()}, &Table{Name: "posts", Columns: sampleColumns()})
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 16)

	assert.NotEqual(t, a.Digest(), New(posts, users).Digest(), "order matters")
	assert.NotEqual(t, a.Digest(), a.WithRemoved("posts").Digest())
	assert.NotEqual(t, Empty().Digest(), a.Digest())
}
