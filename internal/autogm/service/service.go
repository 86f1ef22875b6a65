// Package service drives session turns: it loads party/scene/world state,
// dispatches on gm mode, applies AI responses to the world graph, and
// manages scene lifecycle transitions.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/genre"
	"github.com/lorekeep/autogm/internal/platform/id"
	"github.com/lorekeep/autogm/internal/platform/timeouts"
	"github.com/lorekeep/autogm/internal/storage"
	"github.com/lorekeep/autogm/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config wires a Service. Stores and Client are required; the rest default
// to production values.
type Config struct {
	Stores storage.Stores
	Client ai.Client
	// Voice is the default narration voice when a player has none.
	Voice string
	Now   func() time.Time
	NewID func() (string, error)
	// Seed supplies entropy for dice rolls and group expansion.
	Seed func() int64
}

// Service is the session orchestrator.
type Service struct {
	stores    storage.Stores
	client    ai.Client
	grounding *ai.Grounding
	voice     string
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() (string, error)
	seed      func() int64
}

// New builds a Service from the config.
func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("ai client is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return time.Now().UnixNano() }
	}
	grounding, err := ai.NewGrounding(cfg.Client, cfg.Stores.Media)
	if err != nil {
		return nil, fmt.Errorf("init grounding: %w", err)
	}
	return &Service{
		stores:    cfg.Stores,
		client:    cfg.Client,
		grounding: grounding,
		voice:     cfg.Voice,
		tracer:    otel.Tracer("autogm/service"),
		now:       cfg.Now,
		newID:     cfg.NewID,
		seed:      cfg.Seed,
	}, nil
}

// session is one turn's loaded state.
type session struct {
	party   autogm.Party
	scene   autogm.Scene
	world   world.World
	profile genre.Profile
	players []*world.Entity
	allies  []*world.Entity
}

func (s *session) playerByID(playerID string) *world.Entity {
	for _, player := range s.players {
		if player.ID == playerID {
			return player
		}
	}
	return nil
}

func (s *session) playerNames() []string {
	names := make([]string, 0, len(s.players))
	for _, player := range s.players {
		names = append(names, player.Name)
	}
	return names
}

// loadSession loads a party's pending scene and its surrounding context.
// A party without a pending scene is a caller error.
func (s *Service) loadSession(ctx context.Context, partyID string) (*session, error) {
	party, err := s.stores.Parties.Get(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("load party %s: %w", partyID, err)
	}
	if party.NextSceneID == "" {
		return nil, fmt.Errorf("%w: party %s", autogm.ErrNoPendingScene, partyID)
	}
	scene, err := s.stores.Scenes.Get(ctx, party.NextSceneID)
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", party.NextSceneID, err)
	}
	return s.buildSession(ctx, party, scene)
}

func (s *Service) buildSession(ctx context.Context, party autogm.Party, scene autogm.Scene) (*session, error) {
	w, err := s.stores.Worlds.Get(ctx, party.WorldID)
	if err != nil {
		return nil, fmt.Errorf("load world %s: %w", party.WorldID, err)
	}
	profile, err := genre.ByName(w.Genre)
	if err != nil {
		return nil, err
	}

	players := make([]*world.Entity, 0, len(party.PlayerIDs))
	for _, playerID := range party.PlayerIDs {
		player, err := s.stores.Entities.Get(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("load player %s: %w", playerID, err)
		}
		players = append(players, &player)
	}
	allies := make([]*world.Entity, 0, len(party.AllyIDs))
	for _, allyID := range party.AllyIDs {
		ally, err := s.stores.Entities.Get(ctx, allyID)
		if err != nil {
			return nil, fmt.Errorf("load ally %s: %w", allyID, err)
		}
		allies = append(allies, &ally)
	}

	return &session{
		party:   party,
		scene:   scene,
		world:   w,
		profile: profile,
		players: players,
		allies:  allies,
	}, nil
}

func (s *Service) saveScene(ctx context.Context, sess *session) error {
	sess.scene.UpdatedAt = s.now()
	if err := s.stores.Scenes.Put(ctx, sess.scene); err != nil {
		return fmt.Errorf("save scene %s: %w", sess.scene.ID, err)
	}
	return nil
}

func (s *Service) saveParty(ctx context.Context, sess *session) error {
	sess.party.UpdatedAt = s.now()
	if err := s.stores.Parties.Put(ctx, sess.party); err != nil {
		return fmt.Errorf("save party %s: %w", sess.party.ID, err)
	}
	return nil
}

// worldSnapshot is the grounding document attached to the AI client.
type worldSnapshot struct {
	World     world.World           `json:"world"`
	Party     autogm.Party          `json:"party"`
	Players   []*world.Entity       `json:"players"`
	Scene     autogm.Scene          `json:"scene"`
	ArcScenes []autogm.SceneSummary `json:"arc_scenes"`
}

// refreshGrounding re-attaches the world snapshot after a state-mutating
// turn. Failure is logged and tolerated; generations proceed with stale
// context.
func (s *Service) refreshGrounding(ctx context.Context, sess *session) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AIAttach)
	defer cancel()
	snapshot := worldSnapshot{
		World:     sess.world,
		Party:     sess.party,
		Players:   sess.players,
		Scene:     sess.scene,
		ArcScenes: sess.party.ArcScenes,
	}
	key := fmt.Sprintf("grounding/%s/%s", sess.party.ID, sess.scene.ID)
	if err := s.grounding.Refresh(ctx, key, snapshot); err != nil {
		log.Printf("grounding refresh failed party_id=%s scene_id=%s err=%v", sess.party.ID, sess.scene.ID, err)
	}
}

func (s *Service) playerVoice(player *world.Entity) string {
	if player != nil && player.Voice != "" {
		return player.Voice
	}
	return s.voice
}

// generateSceneMedia renders scene audio and, when an image brief exists,
// scene art. Failures are logged and tolerated.
func (s *Service) generateSceneMedia(ctx context.Context, sess *session, imageBrief string) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AIMedia)
	defer cancel()

	if sess.scene.Description != "" {
		audio, err := s.client.GenerateAudio(ctx, sess.scene.Description, s.voice)
		if err != nil {
			log.Printf("scene audio failed scene_id=%s err=%v", sess.scene.ID, err)
		} else {
			key := "scene/" + sess.scene.ID + "/audio"
			if err := s.stores.Media.PutBlob(ctx, key, audio); err != nil {
				log.Printf("scene audio store failed scene_id=%s err=%v", sess.scene.ID, err)
			} else {
				sess.scene.AudioKey = key
			}
		}
	}

	if imageBrief != "" {
		tags := []string{}
		if sess.scene.ImageStyle != "" {
			tags = append(tags, sess.scene.ImageStyle)
		}
		image, err := s.client.GenerateImage(ctx, imageBrief, tags)
		if err != nil {
			log.Printf("scene image failed scene_id=%s err=%v", sess.scene.ID, err)
		} else {
			key := "scene/" + sess.scene.ID + "/image"
			if err := s.stores.Media.PutBlob(ctx, key, image); err != nil {
				log.Printf("scene image store failed scene_id=%s err=%v", sess.scene.ID, err)
			} else {
				sess.scene.ImageKey = key
			}
		}
	}
}
