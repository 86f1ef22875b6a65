// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Party errors
	CodePartyNoPendingScene Code = "PARTY_NO_PENDING_SCENE"
	CodePartyEmptyWorldID   Code = "PARTY_EMPTY_WORLD_ID"
	CodePartyEmptyName      Code = "PARTY_EMPTY_NAME"

	// Scene errors
	CodeSceneInvalidMode     Code = "SCENE_INVALID_MODE"
	CodeSceneInvalidGMMode   Code = "SCENE_INVALID_GM_MODE"
	CodeSceneMessageNotFound Code = "SCENE_MESSAGE_NOT_FOUND"
	CodeSceneNoCombatants    Code = "SCENE_NO_COMBATANTS"
	CodeSceneNoInitiative    Code = "SCENE_NO_INITIATIVE"
	CodeSceneNotCombat       Code = "SCENE_NOT_COMBAT"

	// World graph errors
	CodeEntityEmptyName    Code = "ENTITY_EMPTY_NAME"
	CodeEntityEmptyWorldID Code = "ENTITY_EMPTY_WORLD_ID"
	CodeEntityInvalidKind  Code = "ENTITY_INVALID_KIND"

	// Genre errors
	CodeGenreUnknown Code = "GENRE_UNKNOWN"

	// Dice errors
	CodeDiceInvalidFormula Code = "DICE_INVALID_FORMULA"
	CodeDiceInvalidSpec    Code = "DICE_INVALID_SPEC"

	// AI errors
	CodeAIGenerationFailed Code = "AI_GENERATION_FAILED"
	CodeAIInvalidResponse  Code = "AI_INVALID_RESPONSE"
	CodeAIAttachFailed     Code = "AI_ATTACH_FAILED"
)
