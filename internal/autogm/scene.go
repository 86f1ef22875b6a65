package autogm

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lorekeep/autogm/internal/world"
)

// Scene is one narrative beat of play. It owns its player messages, roll
// request, quest log, media keys, and (in combat) initiative state. Scene
// object references are associations shared with the world graph; deleting
// a scene never deletes shared world entities.
type Scene struct {
	ID      string `json:"id"`
	PartyID string `json:"party_id"`

	Mode        SceneMode `json:"mode"`
	GMMode      GMMode    `json:"gm_mode"`
	GMReady     bool      `json:"gm_ready"`
	Description string    `json:"description"`
	NextActions []string  `json:"next_actions,omitempty"`
	Tone        string    `json:"tone,omitempty"`
	Date        string    `json:"date,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Prompt      []string  `json:"prompt,omitempty"`

	Messages []PlayerMessage `json:"messages"`
	Roll     RollRequest     `json:"roll"`

	ImageKey   string `json:"image_key,omitempty"`
	AudioKey   string `json:"audio_key,omitempty"`
	MusicCue   string `json:"music_cue,omitempty"`
	ImageStyle string `json:"image_style,omitempty"`

	QuestLog     []Quest `json:"quest_log,omitempty"`
	CurrentQuest string  `json:"current_quest,omitempty"`

	NPCIDs       []string `json:"npc_ids,omitempty"`
	CombatantIDs []string `json:"combatant_ids,omitempty"`
	LootIDs      []string `json:"loot_ids,omitempty"`
	PlaceIDs     []string `json:"place_ids,omitempty"`
	FactionIDs   []string `json:"faction_ids,omitempty"`
	VehicleIDs   []string `json:"vehicle_ids,omitempty"`

	Associations world.Associations `json:"associations"`
	Initiative   *Initiative        `json:"initiative,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateSceneInput carries the fields needed to allocate a scene.
type CreateSceneInput struct {
	PartyID    string
	Mode       SceneMode
	GMMode     GMMode
	Tone       string
	Date       string
	ImageStyle string
	PlayerIDs  []string
}

// NormalizeCreateSceneInput trims and validates scene creation input.
func NormalizeCreateSceneInput(input CreateSceneInput) (CreateSceneInput, error) {
	input.PartyID = strings.TrimSpace(input.PartyID)
	if input.PartyID == "" {
		return CreateSceneInput{}, ErrEmptyWorldID
	}
	if input.Mode == "" {
		input.Mode = SceneSocial
	}
	if _, err := ParseSceneMode(string(input.Mode)); err != nil {
		return CreateSceneInput{}, err
	}
	if input.GMMode == "" {
		input.GMMode = GMModeManual
	}
	if _, err := ParseGMMode(string(input.GMMode)); err != nil {
		return CreateSceneInput{}, err
	}
	return input, nil
}

// CreateScene allocates a scene with one blank message slot per player.
func CreateScene(input CreateSceneInput, now func() time.Time, idGenerator func() (string, error)) (Scene, error) {
	normalized, err := NormalizeCreateSceneInput(input)
	if err != nil {
		return Scene{}, err
	}
	id, err := idGenerator()
	if err != nil {
		return Scene{}, fmt.Errorf("generate scene id: %w", err)
	}

	messages := make([]PlayerMessage, 0, len(normalized.PlayerIDs))
	for _, playerID := range normalized.PlayerIDs {
		messages = append(messages, PlayerMessage{PlayerID: playerID})
	}

	timestamp := now()
	return Scene{
		ID:         id,
		PartyID:    normalized.PartyID,
		Mode:       normalized.Mode,
		GMMode:     normalized.GMMode,
		Tone:       normalized.Tone,
		Date:       normalized.Date,
		ImageStyle: normalized.ImageStyle,
		MusicCue:   DefaultMusicCue,
		Messages:   messages,
		CreatedAt:  timestamp,
		UpdatedAt:  timestamp,
	}, nil
}

// PlayerMessage returns the message slot for a player.
func (s *Scene) PlayerMessage(playerID string) (*PlayerMessage, error) {
	for i := range s.Messages {
		if s.Messages[i].PlayerID == playerID {
			return &s.Messages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: player %s", ErrMessageNotFound, playerID)
}

// SetPlayerMessage writes a player's response into their slot. Slots are
// pre-created at scene allocation and never created here.
func (s *Scene) SetPlayerMessage(playerID, response, intent, emotion string, ready bool) (*PlayerMessage, error) {
	message, err := s.PlayerMessage(playerID)
	if err != nil {
		return nil, err
	}
	message.Response = response
	message.Intent = intent
	message.Emotion = emotion
	message.Ready = ready
	return message, nil
}

// ReadyPlayers counts messages marked ready.
func (s *Scene) ReadyPlayers() int {
	count := 0
	for _, message := range s.Messages {
		if message.Ready {
			count++
		}
	}
	return count
}

// AddAssociation links a world entity to the scene, reporting whether the
// link was new.
func (s *Scene) AddAssociation(ref world.Ref) bool {
	return s.Associations.Add(ref)
}

// RemoveAssociation unlinks a world entity from the scene.
func (s *Scene) RemoveAssociation(ref world.Ref) bool {
	return s.Associations.Remove(ref)
}

// StartCombat discards any prior initiative list and seeds a fresh one.
// Each combatant template expands into 1..GroupSize instances, drawn
// uniformly, so a "pack" entity yields a variable number of entries.
func (s *Scene) StartCombat(players, combatants, allies []*world.Entity, seed int64) error {
	if len(combatants) == 0 {
		return ErrNoCombatants
	}

	rng := rand.New(rand.NewSource(seed))
	var expanded []*world.Entity
	for _, combatant := range combatants {
		count := 1
		if combatant.GroupSize > 1 {
			count = rng.Intn(combatant.GroupSize) + 1
		}
		if count == 1 {
			expanded = append(expanded, combatant)
			continue
		}
		for i := 1; i <= count; i++ {
			instance := *combatant
			instance.Name = fmt.Sprintf("%s %d", combatant.Name, i)
			expanded = append(expanded, &instance)
		}
	}

	initiative, err := StartInitiative(players, expanded, allies, rng.Int63())
	if err != nil {
		return err
	}
	s.Initiative = initiative
	return nil
}

// CurrentCombatTurn returns the entry acting now. When action or bonus
// action records are supplied they are recorded against the current entry
// first.
func (s *Scene) CurrentCombatTurn(action, bonusAction *ActionRecord) (*InitiativeEntry, error) {
	if s.Initiative == nil {
		return nil, ErrNoInitiative
	}
	entry := s.Initiative.Current()
	if entry == nil {
		return nil, ErrNoCombatants
	}
	if action != nil {
		entry.AddAction(SlotAction, *action)
	}
	if bonusAction != nil {
		entry.AddAction(SlotBonusAction, *bonusAction)
	}
	return entry, nil
}

// NextCombatTurn advances the initiative by one turn. When combat has
// ended it flips the scene mode to investigation and returns nil.
func (s *Scene) NextCombatTurn() (*InitiativeEntry, error) {
	if s.Initiative == nil {
		return nil, ErrNoInitiative
	}
	entry := s.Initiative.Next()
	if entry == nil {
		s.Mode = SceneInvestigation
		return nil, nil
	}
	return entry, nil
}

// Normalize is the pre-persist step: de-duplicates the typed reference
// lists and clamps the music cue, so prompt construction stays
// deterministic across repeated generations.
func (s *Scene) Normalize() {
	s.NPCIDs = dedupe(s.NPCIDs)
	s.CombatantIDs = dedupe(s.CombatantIDs)
	s.LootIDs = dedupe(s.LootIDs)
	s.PlaceIDs = dedupe(s.PlaceIDs)
	s.FactionIDs = dedupe(s.FactionIDs)
	s.VehicleIDs = dedupe(s.VehicleIDs)
	s.MusicCue = NormalizeMusicCue(s.MusicCue)
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
