package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), name+".db"),
		Name: name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewAndMigrate(t *testing.T) {
	db := openTestDB(t, "market")

	require.NoError(t, db.Migrate())
	// Idempotent
	require.NoError(t, db.Migrate())

	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('prices','fx_rates')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.Equal(t, "market", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
}

func TestMigrateUnknownDatabase(t *testing.T) {
	db := openTestDB(t, "unknown")
	assert.Error(t, db.Migrate())
}

func TestSchemaFor(t *testing.T) {
	schema, err := SchemaFor("cache")
	require.NoError(t, err)
	assert.Contains(t, schema, "cache_artifacts")

	_, err = SchemaFor("nope")
	assert.Error(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := openTestDB(t, "cache")
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, key string) error {
		_, err := tx.Exec("INSERT INTO cache_artifacts (cache_key, data, created_at) VALUES (?, ?, 0)", key, []byte("x"))
		return err
	}

	t.Run("commit on success", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error { return insert(tx, "a") })
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			require.NoError(t, insert(tx, "b"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			require.NoError(t, insert(tx, "c"))
			panic("kaboom")
		})
		assert.ErrorContains(t, err, "panic in transaction")
	})

	var keys []string
	rows, err := db.Conn().Query("SELECT cache_key FROM cache_artifacts ORDER BY cache_key")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a"}, keys)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}
