package testkit

import (
	"context"
	"strings"
	"sync"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/storage"
	"github.com/lorekeep/autogm/internal/world"
)

// MemoryStores is an in-memory implementation of the storage bundle.
type MemoryStores struct {
	mu       sync.Mutex
	worlds   map[string]world.World
	entities map[string]world.Entity
	parties  map[string]autogm.Party
	scenes   map[string]autogm.Scene
	blobs    map[string][]byte
}

// NewMemoryStores builds an empty in-memory store bundle.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		worlds:   map[string]world.World{},
		entities: map[string]world.Entity{},
		parties:  map[string]autogm.Party{},
		scenes:   map[string]autogm.Scene{},
		blobs:    map[string][]byte{},
	}
}

// Stores returns the bundle view over this store.
func (m *MemoryStores) Stores() storage.Stores {
	return storage.Stores{
		Worlds:   (*memoryWorlds)(m),
		Entities: (*memoryEntities)(m),
		Parties:  (*memoryParties)(m),
		Scenes:   (*memoryScenes)(m),
		Media:    (*memoryMedia)(m),
	}
}

// BlobKeys lists stored blob keys, for assertions.
func (m *MemoryStores) BlobKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for key := range m.blobs {
		keys = append(keys, key)
	}
	return keys
}

type memoryWorlds MemoryStores

func (m *memoryWorlds) Put(_ context.Context, w world.World) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.ID] = w
	return nil
}

func (m *memoryWorlds) Get(_ context.Context, id string) (world.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[id]
	if !ok {
		return world.World{}, storage.ErrNotFound
	}
	return w, nil
}

type memoryEntities MemoryStores

func (m *memoryEntities) Put(_ context.Context, entity world.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entity.ID] = entity
	return nil
}

func (m *memoryEntities) Get(_ context.Context, id string) (world.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity, ok := m.entities[id]
	if !ok {
		return world.Entity{}, storage.ErrNotFound
	}
	return entity, nil
}

func (m *memoryEntities) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entities, id)
	return nil
}

func (m *memoryEntities) SearchByName(_ context.Context, worldID string, kind world.Kind, nameToken string) ([]world.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := strings.ToLower(strings.TrimSpace(nameToken))
	if token == "" {
		return nil, nil
	}
	var found []world.Entity
	for _, entity := range m.entities {
		if entity.WorldID == worldID && entity.Kind == kind &&
			strings.Contains(strings.ToLower(entity.Name), token) {
			found = append(found, entity)
		}
	}
	return found, nil
}

func (m *memoryEntities) ListByWorld(_ context.Context, worldID string, kind world.Kind) ([]world.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []world.Entity
	for _, entity := range m.entities {
		if entity.WorldID == worldID && entity.Kind == kind {
			found = append(found, entity)
		}
	}
	return found, nil
}

type memoryParties MemoryStores

func (m *memoryParties) Put(_ context.Context, party autogm.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parties[party.ID] = party
	return nil
}

func (m *memoryParties) Get(_ context.Context, id string) (autogm.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	party, ok := m.parties[id]
	if !ok {
		return autogm.Party{}, storage.ErrNotFound
	}
	return party, nil
}

type memoryScenes MemoryStores

func (m *memoryScenes) Put(_ context.Context, scene autogm.Scene) error {
	scene.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes[scene.ID] = scene
	return nil
}

func (m *memoryScenes) Get(_ context.Context, id string) (autogm.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scene, ok := m.scenes[id]
	if !ok {
		return autogm.Scene{}, storage.ErrNotFound
	}
	return scene, nil
}

func (m *memoryScenes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenes, id)
	prefix := "scene/" + id + "/"
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(m.blobs, key)
		}
	}
	return nil
}

type memoryMedia MemoryStores

func (m *memoryMedia) PutBlob(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memoryMedia) GetBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memoryMedia) DeleteBlob(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memoryMedia) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(m.blobs, key)
		}
	}
	return nil
}
