package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lorekeep/autogm/internal/storage"
	"github.com/lorekeep/autogm/internal/world"
)

// WorldStore persists world records.
type WorldStore struct {
	store *Store
}

// Put upserts a world record.
func (s *WorldStore) Put(ctx context.Context, w world.World) error {
	_, err := s.store.sqlDB.ExecContext(ctx, `
INSERT INTO worlds (id, name, genre, game_date, description, backstory, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    genre = excluded.genre,
    game_date = excluded.game_date,
    description = excluded.description,
    backstory = excluded.backstory,
    updated_at = excluded.updated_at
`, w.ID, w.Name, w.Genre, w.CurrentDate, w.Description, w.Backstory,
		toMillis(w.CreatedAt), toMillis(w.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put world %s: %w", w.ID, err)
	}
	return nil
}

// Get fetches a world by id.
func (s *WorldStore) Get(ctx context.Context, id string) (world.World, error) {
	row := s.store.sqlDB.QueryRowContext(ctx, `
SELECT id, name, genre, game_date, description, backstory, created_at, updated_at
FROM worlds WHERE id = ?
`, id)

	var (
		w         world.World
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&w.ID, &w.Name, &w.Genre, &w.CurrentDate, &w.Description,
		&w.Backstory, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return world.World{}, storage.ErrNotFound
	}
	if err != nil {
		return world.World{}, fmt.Errorf("get world %s: %w", id, err)
	}
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	return w, nil
}
