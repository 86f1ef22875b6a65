package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lorekeep/autogm/internal/storage"
)

// MediaStore persists generated media and grounding snapshot blobs.
type MediaStore struct {
	store *Store
}

// PutBlob upserts a blob under the given key.
func (s *MediaStore) PutBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.store.sqlDB.ExecContext(ctx, `
INSERT INTO media (key, data, created_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data
`, key, data, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

// GetBlob fetches a blob by key.
func (s *MediaStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.store.sqlDB.QueryRowContext(ctx,
		"SELECT data FROM media WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, nil
}

// DeleteBlob removes a blob.
func (s *MediaStore) DeleteBlob(ctx context.Context, key string) error {
	if _, err := s.store.sqlDB.ExecContext(ctx,
		"DELETE FROM media WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every blob whose key starts with the prefix.
func (s *MediaStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := escapeLike(prefix) + "%"
	if _, err := s.store.sqlDB.ExecContext(ctx,
		`DELETE FROM media WHERE key LIKE ? ESCAPE '\'`, pattern); err != nil {
		return fmt.Errorf("delete blobs with prefix %s: %w", prefix, err)
	}
	return nil
}
