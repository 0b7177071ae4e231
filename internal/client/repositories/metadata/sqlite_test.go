package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "userId", []byte("42")))

	v, err := r.Get(ctx, "userId")
	require.NoError(t, err)
	require.Equal(t, []byte("42"), v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "role", []byte("student")))
	require.NoError(t, r.Set(ctx, "role", []byte("teacher")))

	v, err := r.Get(ctx, "role")
	require.NoError(t, err)
	require.Equal(t, []byte("teacher"), v)
}

func TestSet_NilValueStoredAsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "lastName", nil))

	v, err := r.Get(ctx, "lastName")
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Empty(t, v)
}

func TestList_EmptyValueIsNotNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "firstName", []byte{}))

	m, err := r.List(ctx)
	require.NoError(t, err)
	require.Contains(t, m, "firstName")
	assert.NotNil(t, m["firstName"])
	assert.Empty(t, m["firstName"])
}

func TestNamespaces_AreIsolated(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	mine := NewSQLiteRepository(db, DefaultNamespace)
	other := NewSQLiteRepository(db, "other")

	require.NoError(t, mine.Set(ctx, "userId", []byte("1")))
	require.NoError(t, other.Set(ctx, "userId", []byte("2")))

	m, err := mine.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"userId": []byte("1")}, m)

	require.NoError(t, mine.Clear(ctx))

	v, err := other.Get(ctx, "userId")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v, "Clear must not touch other namespaces")
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t), DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestWithDB_SharesNamespace(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	r := NewSQLiteRepository(db, DefaultNamespace)

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, r.WithDB(tx).Set(ctx, "firstName", []byte("Ada")))
	require.NoError(t, tx.Commit())

	v, err := r.Get(ctx, "firstName")
	require.NoError(t, err)
	require.Equal(t, []byte("Ada"), v)
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, DefaultNamespace)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	require.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")

	_, err = r.List(ctx)
	require.ErrorContains(t, err, "failed to list metadata")
}
