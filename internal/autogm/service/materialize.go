package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lorekeep/autogm/internal/platform/timeouts"
	"github.com/lorekeep/autogm/internal/world"
)

// matchEntityName applies the fuzzy containment check used to avoid
// duplicating world objects across repeated mentions: a candidate matches
// when its name contains both the first and last tokens of the mentioned
// name, or when the mentioned name contains the candidate's full name.
func matchEntityName(candidateName, mentioned string) bool {
	candidate := strings.ToLower(strings.TrimSpace(candidateName))
	name := strings.ToLower(strings.TrimSpace(mentioned))
	if candidate == "" || name == "" {
		return false
	}
	tokens := strings.Fields(name)
	first := tokens[0]
	last := tokens[len(tokens)-1]
	if strings.Contains(candidate, first) && strings.Contains(candidate, last) {
		return true
	}
	return strings.Contains(name, candidate)
}

// materializeStub resolves an AI-introduced object against the world graph,
// creating a new entity only when no existing one matches by name.
func (s *Service) materializeStub(ctx context.Context, sess *session, kind world.Kind, stub stubResponse) (world.Entity, error) {
	name := strings.TrimSpace(stub.Name)
	if name == "" {
		return world.Entity{}, fmt.Errorf("%w: blank name", world.ErrEmptyName)
	}

	tokens := strings.Fields(strings.ToLower(name))
	candidates, err := s.stores.Entities.SearchByName(ctx, sess.world.ID, kind, tokens[0])
	if err != nil {
		return world.Entity{}, fmt.Errorf("search %s %q: %w", kind, name, err)
	}
	for _, candidate := range candidates {
		if matchEntityName(candidate.Name, name) {
			return candidate, nil
		}
	}

	input := world.CreateEntityInput{
		WorldID:     sess.world.ID,
		Kind:        kind,
		Name:        name,
		Species:     stub.Species,
		Description: stub.Description,
		Goal:        stub.Goal,
	}
	entity, err := world.CreateEntity(input, s.now, s.newID)
	if err != nil {
		return world.Entity{}, err
	}
	entity.Stats.HP = coerceInt(stub.HitPoints)
	entity.Stats.MaxHP = entity.Stats.HP
	entity.Stats.Dexterity = coerceInt(stub.Dexterity)
	if entity.Stats.Dexterity == 0 {
		entity.Stats.Dexterity = 10
	}
	switch kind {
	case world.KindCreature:
		entity.GroupSize = coerceInt(stub.GroupSize)
		if entity.GroupSize < 1 {
			entity.GroupSize = 1
		}
	case world.KindItem:
		entity.Rarity = stub.Rarity
	case world.KindLocation:
		entity.LocationType = stub.Type
	}

	if err := s.stores.Entities.Put(ctx, entity); err != nil {
		return world.Entity{}, fmt.Errorf("save %s %q: %w", kind, name, err)
	}
	s.enrichEntity(ctx, sess, entity)
	return entity, nil
}

// enrichEntity renders a portrait for a newly materialized entity, stored
// under the shared portrait key so later scenes reuse it. Places get a
// genre map prompt instead of a portrait brief. Failures are logged and
// tolerated.
func (s *Service) enrichEntity(ctx context.Context, sess *session, entity world.Entity) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AIMedia)
	defer cancel()

	prompt := entity.Description
	if prompt == "" {
		prompt = entity.Name
	}
	if entity.Kind == world.KindLocation {
		kind := sess.profile.LocationKind(entity.LocationType)
		prompt = sess.profile.MapPrompt(kind, entity.Name, entity.Description)
	}
	tags := []string{}
	if sess.scene.ImageStyle != "" {
		tags = append(tags, sess.scene.ImageStyle)
	}
	image, err := s.client.GenerateImage(ctx, prompt, tags)
	if err != nil {
		log.Printf("portrait failed entity_id=%s err=%v", entity.ID, err)
		return
	}
	if err := s.stores.Media.PutBlob(ctx, "portrait/"+entity.ID, image); err != nil {
		log.Printf("portrait store failed entity_id=%s err=%v", entity.ID, err)
	}
}

// materializeList resolves a batch of stubs, appending their ids to the
// scene's typed list and association index. Resolution is idempotent per
// name within and across calls.
func (s *Service) materializeList(ctx context.Context, sess *session, kind world.Kind, stubs []stubResponse, ids *[]string) ([]world.Entity, error) {
	var entities []world.Entity
	for _, stub := range stubs {
		entity, err := s.materializeStub(ctx, sess, kind, stub)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
		*ids = append(*ids, entity.ID)
		sess.scene.AddAssociation(entity.Ref())
	}
	return entities, nil
}
