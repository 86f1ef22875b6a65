// Package autogm implements the session/turn state machine for AI-driven
// game sessions: scenes, per-player messages, quest logs, combat initiative,
// and the party session state that owns the pending scene.
package autogm

import (
	apperrors "github.com/lorekeep/autogm/internal/errors"
)

// ErrNoPendingScene indicates a turn was requested for a party without a
// pending scene. This is a caller error, not a user-recoverable state.
var ErrNoPendingScene = apperrors.New(apperrors.CodePartyNoPendingScene, "party has no pending scene")

// ErrMessageNotFound indicates a player has no message slot on the scene.
// Slots are created at scene allocation, never implicitly.
var ErrMessageNotFound = apperrors.New(apperrors.CodeSceneMessageNotFound, "no message slot for player")

// ErrInvalidMode indicates an unrecognized scene mode tag.
var ErrInvalidMode = apperrors.New(apperrors.CodeSceneInvalidMode, "invalid scene mode")

// ErrInvalidGMMode indicates an unrecognized gm mode tag.
var ErrInvalidGMMode = apperrors.New(apperrors.CodeSceneInvalidGMMode, "invalid gm mode")

// ErrNotCombat indicates a combat operation on a scene that is not in
// combat mode or carries no initiative state.
var ErrNotCombat = apperrors.New(apperrors.CodeSceneNotCombat, "scene is not in combat")

// ErrNoCombatants indicates combat was started without any combatants.
var ErrNoCombatants = apperrors.New(apperrors.CodeSceneNoCombatants, "combat requires at least one combatant")

// ErrNoInitiative indicates a combat query against a scene whose
// initiative list was never seeded.
var ErrNoInitiative = apperrors.New(apperrors.CodeSceneNoInitiative, "scene has no initiative list")

// ErrEmptyWorldID indicates a party without a world reference.
var ErrEmptyWorldID = apperrors.New(apperrors.CodePartyEmptyWorldID, "world id is required")

// ErrEmptyName indicates a party without a name.
var ErrEmptyName = apperrors.New(apperrors.CodePartyEmptyName, "name is required")

// SceneMode tags the kind of narrative beat a scene represents.
type SceneMode string

const (
	SceneSocial        SceneMode = "social"
	SceneEncounter     SceneMode = "encounter"
	SceneCombat        SceneMode = "combat"
	SceneInvestigation SceneMode = "investigation"
	SceneExploration   SceneMode = "exploration"
	SceneStealth       SceneMode = "stealth"
	ScenePuzzle        SceneMode = "puzzle"
)

// SceneModes lists every valid scene mode.
func SceneModes() []SceneMode {
	return []SceneMode{
		SceneSocial, SceneEncounter, SceneCombat, SceneInvestigation,
		SceneExploration, SceneStealth, ScenePuzzle,
	}
}

// ParseSceneMode validates a mode tag.
func ParseSceneMode(value string) (SceneMode, error) {
	for _, mode := range SceneModes() {
		if string(mode) == value {
			return mode, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeSceneInvalidMode,
		"invalid scene mode", map[string]string{"Mode": value})
}

// GMMode selects which side's AI persona drives a turn: manual (no AI),
// pc (AI narrates the world), gm (AI improvises player reactions).
type GMMode string

const (
	GMModeManual GMMode = "manual"
	GMModePC     GMMode = "pc"
	GMModeGM     GMMode = "gm"
)

// ParseGMMode validates a gm mode tag.
func ParseGMMode(value string) (GMMode, error) {
	switch GMMode(value) {
	case GMModeManual, GMModePC, GMModeGM:
		return GMMode(value), nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeSceneInvalidGMMode,
		"invalid gm mode", map[string]string{"Mode": value})
}

// Tones available for scene narration.
var Tones = []string{"Noblebright", "Grimdark", "Gilded", "Heroic", "Fairytale"}

// ImageStyles available for scene art direction.
var ImageStyles = []string{"Jim Lee", "Brian Bendis", "Jorge Jiménez", "Bilquis Evely", "Sana Takeda"}

// DefaultMusicCue is used when a generation returns no usable cue.
const DefaultMusicCue = "themesong"

var knownMusicCues = map[string]bool{
	"battle": true, "suspense": true, "celebratory": true, "restful": true,
	"creepy": true, "relaxed": true, "skirmish": true, "themesong": true,
	"puzzle": true, "scifithemesong": true, "scifipursuit": true,
	"scifibattle": true, "scificreepy": true, "scifisuspense": true,
}

// NormalizeMusicCue clamps a cue to the known set, defaulting unknown or
// empty cues to the theme song.
func NormalizeMusicCue(cue string) string {
	if knownMusicCues[cue] {
		return cue
	}
	return DefaultMusicCue
}
