package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/storage"
)

// SceneMediaPrefix returns the media key prefix for a scene's owned blobs.
func SceneMediaPrefix(sceneID string) string {
	return "scene/" + sceneID + "/"
}

// SceneStore persists scenes. Scene-owned state (messages, initiative,
// quest log) lives in the JSON document; deletion cascades to scene-owned
// media blobs.
type SceneStore struct {
	store *Store
	media *MediaStore
}

// Put upserts a scene after normalization.
func (s *SceneStore) Put(ctx context.Context, scene autogm.Scene) error {
	scene.Normalize()
	doc, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("marshal scene %s: %w", scene.ID, err)
	}
	_, err = s.store.sqlDB.ExecContext(ctx, `
INSERT INTO scenes (id, party_id, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    party_id = excluded.party_id,
    doc = excluded.doc,
    updated_at = excluded.updated_at
`, scene.ID, scene.PartyID, string(doc),
		toMillis(scene.CreatedAt), toMillis(scene.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put scene %s: %w", scene.ID, err)
	}
	return nil
}

// Get fetches a scene by id.
func (s *SceneStore) Get(ctx context.Context, id string) (autogm.Scene, error) {
	var doc string
	err := s.store.sqlDB.QueryRowContext(ctx,
		"SELECT doc FROM scenes WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return autogm.Scene{}, storage.ErrNotFound
	}
	if err != nil {
		return autogm.Scene{}, fmt.Errorf("get scene %s: %w", id, err)
	}
	var scene autogm.Scene
	if err := json.Unmarshal([]byte(doc), &scene); err != nil {
		return autogm.Scene{}, fmt.Errorf("unmarshal scene doc: %w", err)
	}
	return scene, nil
}

// Delete removes a scene and its owned media blobs. Shared world entities
// referenced by the scene are never touched.
func (s *SceneStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.sqlDB.ExecContext(ctx,
		"DELETE FROM scenes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if err := s.media.DeleteByPrefix(ctx, SceneMediaPrefix(id)); err != nil {
		return fmt.Errorf("delete scene media %s: %w", id, err)
	}
	return nil
}
