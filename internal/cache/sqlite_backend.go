package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBackend stores artifacts as blobs in the cache_artifacts table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates a backend over a database migrated with the cache schema.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, "SELECT data FROM cache_artifacts WHERE cache_key = ?", string(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get artifact: %w", err)
	}
	return data, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key Key, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache_artifacts (cache_key, data, created_at) VALUES (?, ?, ?)",
		string(key), data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Clear(ctx context.Context) (int, error) {
	result, err := b.db.ExecContext(ctx, "DELETE FROM cache_artifacts")
	if err != nil {
		return 0, fmt.Errorf("failed to clear artifacts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared artifacts: %w", err)
	}
	return int(n), nil
}
