package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/storage"
)

// PartyStore persists party session records.
type PartyStore struct {
	store *Store
}

// Put upserts a party record.
func (s *PartyStore) Put(ctx context.Context, party autogm.Party) error {
	doc, err := json.Marshal(party)
	if err != nil {
		return fmt.Errorf("marshal party %s: %w", party.ID, err)
	}
	_, err = s.store.sqlDB.ExecContext(ctx, `
INSERT INTO parties (id, world_id, name, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    world_id = excluded.world_id,
    name = excluded.name,
    doc = excluded.doc,
    updated_at = excluded.updated_at
`, party.ID, party.WorldID, party.Name, string(doc),
		toMillis(party.CreatedAt), toMillis(party.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put party %s: %w", party.ID, err)
	}
	return nil
}

// Get fetches a party by id.
func (s *PartyStore) Get(ctx context.Context, id string) (autogm.Party, error) {
	var doc string
	err := s.store.sqlDB.QueryRowContext(ctx,
		"SELECT doc FROM parties WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return autogm.Party{}, storage.ErrNotFound
	}
	if err != nil {
		return autogm.Party{}, fmt.Errorf("get party %s: %w", id, err)
	}
	var party autogm.Party
	if err := json.Unmarshal([]byte(doc), &party); err != nil {
		return autogm.Party{}, fmt.Errorf("unmarshal party doc: %w", err)
	}
	return party, nil
}
