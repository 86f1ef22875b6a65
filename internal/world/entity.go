package world

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lorekeep/autogm/internal/errors"
	"github.com/lorekeep/autogm/internal/platform/id"
)

var (
	// ErrEmptyName indicates a missing entity name.
	ErrEmptyName = apperrors.New(apperrors.CodeEntityEmptyName, "entity name is required")
	// ErrEmptyWorldID indicates a missing world reference.
	ErrEmptyWorldID = apperrors.New(apperrors.CodeEntityEmptyWorldID, "entity world id is required")
	// ErrInvalidKind indicates a missing or invalid entity kind.
	ErrInvalidKind = apperrors.New(apperrors.CodeEntityInvalidKind, "entity kind is required")
)

// Stats holds the combat-relevant numbers for a character or creature.
type Stats struct {
	HP        int `json:"hp"`
	MaxHP     int `json:"max_hp"`
	Dexterity int `json:"dexterity"`
}

// DexModifier returns the dexterity-derived initiative modifier,
// (DEX-10)/2 with floor semantics for negative values.
func (s Stats) DexModifier() int {
	delta := s.Dexterity - 10
	if delta < 0 && delta%2 != 0 {
		return delta/2 - 1
	}
	return delta / 2
}

// Entity is one node of the world object graph. Kind-specific fields are
// populated only for the kinds they apply to.
type Entity struct {
	ID               string
	WorldID          string
	Kind             Kind
	Name             string
	Species          string // characters, creatures
	Description      string
	Backstory        string
	BackstorySummary string
	Goal             string
	Stats            Stats
	GroupSize        int    // creatures: max instances per encounter, 0 for unique
	Rarity           string // items
	LocationType     string // places
	IsPlayer         bool   // characters
	Voice            string // characters: narration voice
	Motif            string
	ParentID         string
	Associations     Associations
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ref returns the association reference for this entity.
func (e *Entity) Ref() Ref {
	return Ref{Kind: e.Kind, ID: e.ID, Name: e.Name}
}

// CreateEntityInput describes the metadata needed to create a world entity.
type CreateEntityInput struct {
	WorldID      string
	Kind         Kind
	Name         string
	Species      string
	Description  string
	Backstory    string
	Goal         string
	Stats        Stats
	GroupSize    int
	Rarity       string
	LocationType string
	IsPlayer     bool
	Voice        string
}

// NormalizeCreateEntityInput trims and validates entity input metadata.
func NormalizeCreateEntityInput(input CreateEntityInput) (CreateEntityInput, error) {
	input.WorldID = strings.TrimSpace(input.WorldID)
	if input.WorldID == "" {
		return CreateEntityInput{}, ErrEmptyWorldID
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateEntityInput{}, ErrEmptyName
	}
	if input.Kind == KindUnspecified {
		return CreateEntityInput{}, ErrInvalidKind
	}
	input.Species = strings.TrimSpace(input.Species)
	input.Rarity = strings.TrimSpace(input.Rarity)
	input.LocationType = strings.TrimSpace(input.LocationType)
	return input, nil
}

// CreateEntity creates a new entity with a generated ID and timestamps.
func CreateEntity(input CreateEntityInput, now func() time.Time, idGenerator func() (string, error)) (Entity, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateEntityInput(input)
	if err != nil {
		return Entity{}, err
	}

	entityID, err := idGenerator()
	if err != nil {
		return Entity{}, fmt.Errorf("generate entity id: %w", err)
	}

	createdAt := now().UTC()
	return Entity{
		ID:           entityID,
		WorldID:      normalized.WorldID,
		Kind:         normalized.Kind,
		Name:         normalized.Name,
		Species:      normalized.Species,
		Description:  normalized.Description,
		Backstory:    normalized.Backstory,
		Goal:         normalized.Goal,
		Stats:        normalized.Stats,
		GroupSize:    normalized.GroupSize,
		Rarity:       normalized.Rarity,
		LocationType: normalized.LocationType,
		IsPlayer:     normalized.IsPlayer,
		Voice:        normalized.Voice,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// parentPriority lists, per entity kind, the association kinds that may act as
// the entity's parent, in preference order. Mirrors the observed behavior of
// the worldbuilder: the first association matching a listed kind wins.
var parentPriority = map[Kind][]Kind{
	KindCharacter: {KindLocation, KindDistrict, KindFaction, KindCity, KindVehicle},
	KindCreature:  {KindLocation, KindDistrict, KindVehicle},
	KindItem:      {KindCreature, KindLocation, KindVehicle, KindDistrict, KindCity, KindRegion, KindCharacter, KindEncounter},
	KindLocation:  {KindDistrict, KindCity, KindRegion},
	KindDistrict:  {KindCity, KindRegion},
	KindCity:      {KindRegion},
	KindVehicle:   {KindLocation, KindDistrict, KindCity, KindRegion},
	KindFaction:   {KindDistrict, KindCity, KindRegion},
	KindEncounter: {KindLocation},
}

// SelectParent picks a parent for the entity from its associations when none
// is set: the first association whose kind appears in the kind's priority
// list. Returns false when no candidate exists.
func (e *Entity) SelectParent() bool {
	if e.ParentID != "" {
		return false
	}
	for _, kind := range parentPriority[e.Kind] {
		refs := e.Associations.OfKind(kind)
		if len(refs) > 0 {
			e.ParentID = refs[0].ID
			return true
		}
	}
	return false
}

// Players filters a roster down to player characters.
func Players(entities []*Entity) []*Entity {
	var players []*Entity
	for _, entity := range entities {
		if entity.Kind == KindCharacter && entity.IsPlayer {
			players = append(players, entity)
		}
	}
	return players
}
