// Package store persists shared schema snapshots under short codes, backed
// by SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tordrt/schemadraft/internal/schema"
)

// ErrNotFound is returned when no snapshot exists for a code.
var ErrNotFound = errors.New("schema not found")

// CodeLength is the length of codes produced by NewCode.
const CodeLength = 8

// Store manages shared schema snapshots.
type Store struct {
	db *sqlx.DB
}

// Snapshot is one stored schema.
type Snapshot struct {
	Code      string         `json:"code"`
	Schema    *schema.Schema `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Entry is a listing row.
type Entry struct {
	Code      string    `db:"code" json:"code"`
	Tables    int       `db:"table_count" json:"tables"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type snapshotRow struct {
	Code      string    `db:"code"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

// NewStore opens the snapshot store. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "schemadraft.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewCode returns a fresh random share code.
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:CodeLength]
}

// Save stores sc under code, replacing any snapshot already stored there.
func (s *Store) Save(ctx context.Context, code string, sc *schema.Schema) error {
	if code == "" {
		return fmt.Errorf("save schema: empty code")
	}
	schema.MustNotBeNil(sc)

	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	const q = `INSERT OR REPLACE INTO schemas (code, data, table_count, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, code, string(data), sc.Len(), time.Now().UTC()); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

// Load returns the snapshot stored under code.
func (s *Store) Load(ctx context.Context, code string) (*Snapshot, error) {
	var row snapshotRow
	if err := s.db.GetContext(ctx, &row, "SELECT code, data, created_at FROM schemas WHERE code = ?", code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load schema: %w", err)
	}

	tables, err := schema.DecodeTables([]byte(row.Data))
	if err != nil {
		return nil, fmt.Errorf("decode stored schema %q: %w", code, err)
	}
	return &Snapshot{Code: row.Code, Schema: schema.New(tables...), CreatedAt: row.CreatedAt}, nil
}

// List returns stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, "SELECT code, table_count, created_at FROM schemas ORDER BY created_at DESC, code"); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return entries, nil
}

// Delete removes the snapshot stored under code.
func (s *Store) Delete(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM schemas WHERE code = ?", code)
	if err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schema rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
