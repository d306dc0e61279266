package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Postgres), mock
}

func TestBindRewritesPlaceholdersForPostgres(t *testing.T) {
	pg := &Store{Dialect: Postgres}
	lite := &Store{Dialect: SQLite}

	q := "WHERE namespace = ? AND key = ?"
	assert.Equal(t, "WHERE namespace = $1 AND key = $2", pg.bind(q))
	assert.Equal(t, q, lite.bind(q))
}

func TestPostgresListUsesLikeAndRechecksGlob(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("resume:1", `{"id":"1"}`).
		AddRow("RESUME:2", `{"id":"2"}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value")).
		WithArgs("user-1", "resume:%").
		WillReturnRows(rows)

	entries, err := store.List(context.Background(), "user-1", "resume:*", true)
	require.NoError(t, err)
	assert.Equal(t, []kv.Entry{{Key: "resume:1", Value: `{"id":"1"}`}}, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListFailureIsUnavailable(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT key").WillReturnError(errors.New("connection refused"))

	_, err := store.List(context.Background(), "user-1", "resume:*", false)
	assert.ErrorIs(t, err, kv.ErrUnavailable)
}

func TestPostgresGetMissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT value").
		WithArgs("user-1", "resume:x").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "user-1", "resume:x")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPostgresSetUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (namespace, key) DO UPDATE")).
		WithArgs("user-1", "resume:1", "{}", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Set(context.Background(), "user-1", "resume:1", "{}"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteZeroRowsIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM kv_entries").
		WithArgs("user-1", "resume:1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "user-1", "resume:1")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPostgresDeleteFailureIsUnavailable(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM kv_entries").WillReturnError(errors.New("broken pipe"))

	err := store.Delete(context.Background(), "user-1", "resume:1")
	assert.ErrorIs(t, err, kv.ErrUnavailable)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db, SQLite)
	require.NoError(t, store.Set(ctx, "u1", "resume:b", "B"))
	require.NoError(t, store.Set(ctx, "u1", "resume:a", "A"))
	require.NoError(t, store.Set(ctx, "u1", "feedback:a", "F"))
	require.NoError(t, store.Set(ctx, "u2", "resume:z", "Z"))
	require.NoError(t, store.Set(ctx, "u1", "resume:b", "B2"))

	entries, err := store.List(ctx, "u1", "resume:*", true)
	require.NoError(t, err)
	assert.Equal(t, []kv.Entry{{Key: "resume:b", Value: "B2"}, {Key: "resume:a", Value: "A"}}, entries)

	val, err := store.Get(ctx, "u2", "resume:z")
	require.NoError(t, err)
	assert.Equal(t, "Z", val)

	require.NoError(t, store.Delete(ctx, "u1", "resume:b"))
	assert.ErrorIs(t, store.Delete(ctx, "u1", "resume:b"), kv.ErrNotFound)

	_, err = store.Get(ctx, "u1", "resume:b")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSQLiteLikeMetacharactersAreLiteral(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db, SQLite)
	require.NoError(t, store.Set(ctx, "u1", "a_b", "1"))
	require.NoError(t, store.Set(ctx, "u1", "axb", "2"))

	entries, err := store.List(ctx, "u1", "a_*", false)
	require.NoError(t, err)
	assert.Equal(t, []kv.Entry{{Key: "a_b"}}, entries)
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}
