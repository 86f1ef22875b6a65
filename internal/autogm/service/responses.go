package service

import (
	"encoding/json"
	"strconv"
	"strings"
)

// coerceInt parses a numeric string from a model response, degrading junk
// to zero instead of failing the turn.
func coerceInt(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}
	return parsed
}

type reactionResponse struct {
	Reactions []struct {
		Player   string `json:"player"`
		Response string `json:"response"`
		Intent   string `json:"intent"`
		Emotion  string `json:"emotion"`
	} `json:"reactions"`
	RequiresRoll *rollResponse `json:"requires_roll"`
}

type rollResponse struct {
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Formula     string `json:"formula"`
	Attribute   string `json:"attribute"`
	Description string `json:"description"`
	Result      string `json:"result"`
	Player      string `json:"player"`
}

type stubResponse struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	HitPoints   string `json:"hit_points"`
	Dexterity   string `json:"dexterity"`
	GroupSize   string `json:"group_size"`
	Type        string `json:"type"`
	Rarity      string `json:"rarity"`
}

type questResponse struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type narrationResponse struct {
	SceneType   string   `json:"scene_type"`
	Music       string   `json:"music"`
	Description string   `json:"description"`
	NextActions []string `json:"next_actions"`
	Image       *struct {
		Description string `json:"description"`
		Style       string `json:"style"`
	} `json:"image"`
	NPCs         []stubResponse  `json:"npcs"`
	Combatants   []stubResponse  `json:"combatants"`
	Places       []stubResponse  `json:"places"`
	Loot         []stubResponse  `json:"loot"`
	QuestLog     []questResponse `json:"quest_log"`
	CurrentQuest string          `json:"current_quest"`
	RequiresRoll *rollResponse   `json:"requires_roll"`
}

type combatActionResponse struct {
	Description string `json:"description"`
	AttackRoll  string `json:"attack_roll"`
	DamageRoll  string `json:"damage_roll"`
	SavingThrow string `json:"saving_throw"`
	SkillCheck  string `json:"skill_check"`
	Target      string `json:"target"`
	Result      string `json:"result"`
}

type combatRoundResponse struct {
	Description string                `json:"description"`
	Movement    string                `json:"movement"`
	Action      *combatActionResponse `json:"action"`
	BonusAction *combatActionResponse `json:"bonus_action"`
}

func decodeJSON[T any](payload json.RawMessage) (T, error) {
	var value T
	err := json.Unmarshal(payload, &value)
	return value, err
}
