package autogm

import (
	"fmt"
	"strings"
	"time"
)

// SceneSummary is one finalized scene in the party's arc history.
type SceneSummary struct {
	SceneID     string    `json:"scene_id"`
	Date        string    `json:"date,omitempty"`
	Mode        SceneMode `json:"mode"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary"`
}

// Party is the persistent player group driving a session. It owns at most
// one pending scene at a time; finalized scenes roll into ArcScenes and are
// archived when an arc ends.
type Party struct {
	ID        string `json:"id"`
	WorldID   string `json:"world_id"`
	Name      string `json:"name"`
	Goal      string `json:"goal,omitempty"`
	Backstory string `json:"backstory,omitempty"`

	LeaderID  string   `json:"leader_id,omitempty"`
	PlayerIDs []string `json:"player_ids"`
	AllyIDs   []string `json:"ally_ids,omitempty"`

	NextSceneID string         `json:"next_scene_id,omitempty"`
	ArcScenes   []SceneSummary `json:"arc_scenes,omitempty"`
	Archived    []SceneSummary `json:"archived,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePartyInput carries the fields needed to create a party.
type CreatePartyInput struct {
	WorldID   string
	Name      string
	Goal      string
	LeaderID  string
	PlayerIDs []string
}

// NormalizeCreatePartyInput trims and validates party creation input.
func NormalizeCreatePartyInput(input CreatePartyInput) (CreatePartyInput, error) {
	input.WorldID = strings.TrimSpace(input.WorldID)
	input.Name = strings.TrimSpace(input.Name)
	if input.WorldID == "" {
		return CreatePartyInput{}, ErrEmptyWorldID
	}
	if input.Name == "" {
		return CreatePartyInput{}, ErrEmptyName
	}
	return input, nil
}

// CreateParty creates a party from the provided input.
func CreateParty(input CreatePartyInput, now func() time.Time, idGenerator func() (string, error)) (Party, error) {
	normalized, err := NormalizeCreatePartyInput(input)
	if err != nil {
		return Party{}, err
	}
	id, err := idGenerator()
	if err != nil {
		return Party{}, fmt.Errorf("generate party id: %w", err)
	}
	timestamp := now()
	return Party{
		ID:        id,
		WorldID:   normalized.WorldID,
		Name:      normalized.Name,
		Goal:      normalized.Goal,
		LeaderID:  normalized.LeaderID,
		PlayerIDs: normalized.PlayerIDs,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}, nil
}

// Ready reports whether every party player has marked their message ready
// on the pending scene. A player without a message slot keeps the party
// not ready.
func (p *Party) Ready(pending *Scene) bool {
	if pending == nil || len(p.PlayerIDs) == 0 {
		return false
	}
	ready := 0
	for _, playerID := range p.PlayerIDs {
		message, err := pending.PlayerMessage(playerID)
		if err != nil {
			return false
		}
		if message.Ready {
			ready++
		}
	}
	return ready == len(p.PlayerIDs)
}
