package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorekeep/autogm/internal/storage"
	"github.com/lorekeep/autogm/internal/world"
)

// EntityStore persists world entities with indexed scalar columns and a
// JSON document for nested state.
type EntityStore struct {
	store *Store
}

// Put upserts an entity record.
func (s *EntityStore) Put(ctx context.Context, entity world.Entity) error {
	doc, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", entity.ID, err)
	}
	isPlayer := 0
	if entity.IsPlayer {
		isPlayer = 1
	}
	_, err = s.store.sqlDB.ExecContext(ctx, `
INSERT INTO entities (id, world_id, kind, name, name_lower, is_player, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    world_id = excluded.world_id,
    kind = excluded.kind,
    name = excluded.name,
    name_lower = excluded.name_lower,
    is_player = excluded.is_player,
    doc = excluded.doc,
    updated_at = excluded.updated_at
`, entity.ID, entity.WorldID, int(entity.Kind), entity.Name,
		strings.ToLower(entity.Name), isPlayer, string(doc),
		toMillis(entity.CreatedAt), toMillis(entity.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put entity %s: %w", entity.ID, err)
	}
	return nil
}

// Get fetches an entity by id.
func (s *EntityStore) Get(ctx context.Context, id string) (world.Entity, error) {
	row := s.store.sqlDB.QueryRowContext(ctx,
		"SELECT doc FROM entities WHERE id = ?", id)
	return scanEntity(row)
}

// Delete removes an entity record.
func (s *EntityStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.sqlDB.ExecContext(ctx,
		"DELETE FROM entities WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	return nil
}

// SearchByName returns entities of a kind whose name contains the token,
// case-insensitive.
func (s *EntityStore) SearchByName(ctx context.Context, worldID string, kind world.Kind, nameToken string) ([]world.Entity, error) {
	token := strings.ToLower(strings.TrimSpace(nameToken))
	if token == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(token) + "%"
	rows, err := s.store.sqlDB.QueryContext(ctx, `
SELECT doc FROM entities
WHERE world_id = ? AND kind = ? AND name_lower LIKE ? ESCAPE '\'
ORDER BY name_lower
`, worldID, int(kind), pattern)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	defer rows.Close()
	return collectEntities(rows)
}

// ListByWorld returns every entity of a kind in a world, ordered by name.
func (s *EntityStore) ListByWorld(ctx context.Context, worldID string, kind world.Kind) ([]world.Entity, error) {
	rows, err := s.store.sqlDB.QueryContext(ctx, `
SELECT doc FROM entities
WHERE world_id = ? AND kind = ?
ORDER BY name_lower
`, worldID, int(kind))
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()
	return collectEntities(rows)
}

func scanEntity(row *sql.Row) (world.Entity, error) {
	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return world.Entity{}, storage.ErrNotFound
	}
	if err != nil {
		return world.Entity{}, fmt.Errorf("scan entity: %w", err)
	}
	var entity world.Entity
	if err := json.Unmarshal([]byte(doc), &entity); err != nil {
		return world.Entity{}, fmt.Errorf("unmarshal entity doc: %w", err)
	}
	return entity, nil
}

func collectEntities(rows *sql.Rows) ([]world.Entity, error) {
	var entities []world.Entity
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		var entity world.Entity
		if err := json.Unmarshal([]byte(doc), &entity); err != nil {
			return nil, fmt.Errorf("unmarshal entity doc: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity rows: %w", err)
	}
	return entities, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
