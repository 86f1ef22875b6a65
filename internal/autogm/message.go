package autogm

// PlayerMessage is one player's slot on a scene: their submitted (or
// AI-improvised) response for the current beat. Exactly one slot exists per
// party player, created at scene allocation.
type PlayerMessage struct {
	PlayerID string `json:"player_id"`
	Response string `json:"response"`
	Intent   string `json:"intent"`
	Emotion  string `json:"emotion"`
	Ready    bool   `json:"ready"`
	AudioKey string `json:"audio_key,omitempty"`
}

// RollRequest describes a dice roll the narration asked a player to make.
type RollRequest struct {
	Required    bool   `json:"required"`
	Type        string `json:"type,omitempty"`
	Formula     string `json:"formula,omitempty"`
	Attribute   string `json:"attribute,omitempty"`
	Description string `json:"description,omitempty"`
	Result      int    `json:"result,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
}
