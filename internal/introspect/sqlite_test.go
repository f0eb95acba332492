package introspect

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

const sqliteFixture = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email VARCHAR(255) NOT NULL UNIQUE,
	name TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title VARCHAR(200) NOT NULL
);
CREATE TABLE post_tags (
	post_id INTEGER NOT NULL REFERENCES posts(id),
	tag TEXT NOT NULL,
	PRIMARY KEY (post_id, tag)
);
CREATE INDEX idx_posts_title ON posts(title);
`

func newSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteFixture); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()
	path := newSQLiteFixture(t)

	s, err := Extract(ctx, "sqlite://"+path, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	verifyTablesExist(t, s, []string{"post_tags", "posts", "users"})

	users, _ := s.Get("users")
	verifyPrimaryKey(t, users, []string{"id"})
	verifyColumns(t, users, []string{"id", "email", "name", "created_at"})
	verifyUniqueConstraint(t, s, "users", "email")

	email, _ := users.Column("email")
	if email.Nullable {
		t.Error("users.email should be NOT NULL")
	}
	if email.Type != "VARCHAR(255)" {
		t.Errorf("users.email type = %q", email.Type)
	}
	created, _ := users.Column("created_at")
	if created.DefaultValue != "CURRENT_TIMESTAMP" {
		t.Errorf("users.created_at default = %q", created.DefaultValue)
	}

	verifyForeignKey(t, s, "posts", "user_id", "users")

	posts, _ := s.Get("posts")
	title, _ := posts.Column("title")
	if title.IsUnique {
		t.Error("a plain index must not mark posts.title unique")
	}

	tags, _ := s.Get("post_tags")
	verifyPrimaryKey(t, tags, []string{"post_id", "tag"})
}

func TestSQLiteSpecificTablesAndExclude(t *testing.T) {
	ctx := context.Background()
	path := newSQLiteFixture(t)

	s, err := Extract(ctx, "sqlite://"+path, &Options{
		Tables:  []string{"users", "posts"},
		Exclude: []string{"posts"},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if names := s.Names(); len(names) != 1 || names[0] != "users" {
		t.Errorf("tables = %v, want [users]", names)
	}
}
