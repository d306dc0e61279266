// Package sqlkv implements kv.Store on a database/sql connection. Postgres
// (pgx stdlib driver) and SQLite (modernc.org/sqlite) share one table layout;
// only placeholder syntax and schema bootstrapping differ.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" as database/sql driver

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
)

// Dialect selects the SQL flavour.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (namespace, key)
)`

const (
	listValuesQuery = `
SELECT key, value
FROM kv_entries
WHERE namespace = ? AND key LIKE ? ESCAPE '\'
ORDER BY seq`

	listKeysQuery = `
SELECT key
FROM kv_entries
WHERE namespace = ? AND key LIKE ? ESCAPE '\'
ORDER BY seq`

	getQuery = `
SELECT value
FROM kv_entries
WHERE namespace = ? AND key = ?`

	upsertQuery = `
INSERT INTO kv_entries (namespace, key, value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE SET
  value = excluded.value,
  updated_at = excluded.updated_at`

	deleteQuery = `
DELETE FROM kv_entries
WHERE namespace = ? AND key = ?`
)

// Store is a SQL-backed kv.Store.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	now     func() time.Time
}

// New constructs a Store over db.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{DB: db, Dialect: dialect, now: time.Now}
}

// OpenSQLite opens (creating if needed) a SQLite database at path and ensures
// the kv schema exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is empty")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return db, nil
}

// List returns matching entries in insertion order.
func (s *Store) List(ctx context.Context, namespace, pattern string, withValues bool) ([]kv.Entry, error) {
	query := listKeysQuery
	if withValues {
		query = listValuesQuery
	}
	rows, err := s.DB.QueryContext(ctx, s.bind(query), namespace, kv.LikePattern(pattern))
	if err != nil {
		return nil, kv.Unavailable("list", err)
	}
	defer rows.Close()

	out := []kv.Entry{}
	for rows.Next() {
		var entry kv.Entry
		if withValues {
			var value sql.NullString
			if err := rows.Scan(&entry.Key, &value); err != nil {
				return nil, kv.Unavailable("list", err)
			}
			entry.Value = value.String
		} else if err := rows.Scan(&entry.Key); err != nil {
			return nil, kv.Unavailable("list", err)
		}
		// LIKE is case-insensitive on SQLite; keep glob semantics exact.
		if !kv.Match(pattern, entry.Key) {
			continue
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, kv.Unavailable("list", err)
	}
	return out, nil
}

// Get returns the value for key.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, error) {
	var value sql.NullString
	err := s.DB.QueryRowContext(ctx, s.bind(getQuery), namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", kv.ErrNotFound
		}
		return "", kv.Unavailable("get", err)
	}
	return value.String, nil
}

// Set upserts key. The row's seq, and so its listing position, is kept on overwrite.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	now := s.now().UTC()
	if _, err := s.DB.ExecContext(ctx, s.bind(upsertQuery), namespace, key, value, now, now); err != nil {
		return kv.Unavailable("set", err)
	}
	return nil
}

// Delete removes key, returning kv.ErrNotFound when no row matched.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	res, err := s.DB.ExecContext(ctx, s.bind(deleteQuery), namespace, key)
	if err != nil {
		return kv.Unavailable("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if affected == 0 {
		return kv.ErrNotFound
	}
	return nil
}

// bind rewrites '?' placeholders to '$n' for Postgres.
func (s *Store) bind(query string) string {
	if s.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ kv.Store = (*Store)(nil)
