// Package storage defines the persistence interfaces the session engine
// depends on.
package storage

import (
	"context"
	"errors"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/world"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// WorldStore persists world records.
type WorldStore interface {
	Put(ctx context.Context, w world.World) error
	Get(ctx context.Context, id string) (world.World, error)
}

// EntityStore persists world entities.
type EntityStore interface {
	Put(ctx context.Context, entity world.Entity) error
	Get(ctx context.Context, id string) (world.Entity, error)
	Delete(ctx context.Context, id string) error
	// SearchByName returns entities of a kind whose name contains the token,
	// case-insensitive. Used for idempotent materialization of AI-introduced
	// objects.
	SearchByName(ctx context.Context, worldID string, kind world.Kind, nameToken string) ([]world.Entity, error)
	ListByWorld(ctx context.Context, worldID string, kind world.Kind) ([]world.Entity, error)
}

// PartyStore persists party session records.
type PartyStore interface {
	Put(ctx context.Context, party autogm.Party) error
	Get(ctx context.Context, id string) (autogm.Party, error)
}

// SceneStore persists scenes. Delete cascades to scene-owned artifacts
// (messages, initiative, quest log, scene media blobs) but never to shared
// world entities.
type SceneStore interface {
	Put(ctx context.Context, scene autogm.Scene) error
	Get(ctx context.Context, id string) (autogm.Scene, error)
	Delete(ctx context.Context, id string) error
}

// MediaStore persists generated media and grounding snapshot blobs.
type MediaStore interface {
	PutBlob(ctx context.Context, key string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, error)
	DeleteBlob(ctx context.Context, key string) error
	// DeleteByPrefix removes every blob whose key starts with the prefix.
	// Scene deletion uses this to cascade scene-owned media.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Stores bundles every store the session engine needs.
type Stores struct {
	Worlds   WorldStore
	Entities EntityStore
	Parties  PartyStore
	Scenes   SceneStore
	Media    MediaStore
}
