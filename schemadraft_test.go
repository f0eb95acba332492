package schemadraft

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogTables() []*Table {
	return []*Table{
		{Name: "users", Columns: []Column{
			{Name: "id", Type: "SERIAL", IsPrimaryKey: true, IsUnique: true},
			{Name: "email", Type: "VARCHAR(255)", IsUnique: true},
		}},
		{Name: "posts", Columns: []Column{
			{Name: "id", Type: "SERIAL", IsPrimaryKey: true, IsUnique: true},
			{Name: "user_id", Type: "INTEGER", ForeignKey: &ForeignKey{Table: "users", Column: "id"}},
			{Name: "title", Type: "VARCHAR(255)"},
		}},
	}
}

func TestDesignBlogEndToEnd(t *testing.T) {
	ctx := context.Background()
	calls := 0
	client := ClientFunc(func(_ context.Context, req Request) ([]*Table, error) {
		calls++
		if calls == 1 {
			assert.Nil(t, req.Current)
			return blogTables(), nil
		}
		require.NotNil(t, req.Current)
		assert.Equal(t, []string{"users", "posts"}, req.Current.Names())
		return []*Table{{Name: "comments", Columns: []Column{
			{Name: "id", Type: "SERIAL", IsPrimaryKey: true},
			{Name: "post_id", Type: "INTEGER", ForeignKey: &ForeignKey{Table: "posts", Column: "id"}},
			{Name: "body", Type: "TEXT", Nullable: true},
		}}}, nil
	})

	blog, err := Design(ctx, client, "a blog with users and posts", nil, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "posts"}, blog.Names())

	ddl, err := Generate(blog, "sql")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE users (\n  id SERIAL NOT NULL PRIMARY KEY")
	assert.Contains(t, ddl, "  FOREIGN KEY (user_id) REFERENCES users(id)")

	prisma, err := Generate(blog, "prisma")
	require.NoError(t, err)
	assert.Contains(t, prisma, "users Users @relation(fields: [userId], references: [id])")

	drizzle, err := Generate(blog, "drizzle")
	require.NoError(t, err)
	assert.Contains(t, drizzle, "userId: integer('user_id').notNull().references(() => users.id)")

	extended, err := Design(ctx, client, "add comments", blog, ModeUpdate)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "posts", "comments"}, extended.Names())

	users, _ := blog.Get("users")
	kept, _ := extended.Get("users")
	assert.Same(t, users, kept)
	assert.Equal(t, []string{"users", "posts"}, blog.Names())
}

func TestDesignErrors(t *testing.T) {
	failing := ClientFunc(func(context.Context, Request) ([]*Table, error) {
		return nil, errors.New("quota exceeded")
	})

	_, err := Design(context.Background(), failing, "a shop", nil, ModeFull)
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = Design(context.Background(), failing, "   ", nil, ModeFull)
	assert.Error(t, err)
}

func TestDesignEmptyAnswerKeepsSchema(t *testing.T) {
	empty := ClientFunc(func(context.Context, Request) ([]*Table, error) {
		return nil, nil
	})
	current := NewSchema(blogTables()...)

	got, err := Design(context.Background(), empty, "nothing", current, "")
	require.NoError(t, err)
	assert.Same(t, current, got)
}

func TestGenerateAll(t *testing.T) {
	out := GenerateAll(NewSchema(blogTables()...))
	require.Len(t, out, 3)
	for f, code := range out {
		assert.NotEmpty(t, code, f)
	}

	_, err := Generate(NewSchema(), "graphql")
	assert.Error(t, err)
}

func TestFormatSchema(t *testing.T) {
	s := NewSchema(blogTables()...)

	var buf bytes.Buffer
	require.NoError(t, FormatSchema(s, &OutputOptions{Writer: &buf}))
	assert.Contains(t, buf.String(), "## posts")

	dir := filepath.Join(t.TempDir(), "schema")
	require.NoError(t, FormatSchema(s, &OutputOptions{OutputDir: dir, Formats: []Format{"prisma"}}))
	assert.FileExists(t, filepath.Join(dir, "schema.prisma"))
	assert.FileExists(t, filepath.Join(dir, "_overview.md"))
	assert.NoFileExists(t, filepath.Join(dir, "schema.sql"))
}

func TestSchemaFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, SaveSchemaFile(path, NewSchema(blogTables()...)))

	s, err := LoadSchemaFile(path)
	require.NoError(t, err)
	posts, ok := s.Get("posts")
	require.True(t, ok)
	assert.Equal(t, "users", posts.Columns[1].ForeignKey.Table)
}

func TestExtractAndFormatSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers(id));
		CREATE TABLE goose_db_version (id INTEGER PRIMARY KEY);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()
	s, err := ExtractSchema(ctx, "sqlite://"+dbPath, &Options{ExcludeTables: []string{"goose_db_version"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"customers", "orders"}, s.Names())

	var buf bytes.Buffer
	require.NoError(t, ExtractAndFormat(ctx, "sqlite://"+dbPath, &Options{Tables: []string{"orders"}}, &OutputOptions{Writer: &buf}))
	assert.Contains(t, buf.String(), "## orders")
	assert.NotContains(t, buf.String(), "## customers")

	_, err = ExtractSchema(ctx, "invalid://test.db", nil)
	assert.Error(t, err)
	_, err = ExtractSchema(ctx, "", nil)
	assert.Error(t, err)
}
