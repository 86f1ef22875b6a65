package service

import (
	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/genre"
)

func sceneModeEnum() []string {
	modes := autogm.SceneModes()
	values := make([]string, len(modes))
	for i, mode := range modes {
		values[i] = string(mode)
	}
	return values
}

var musicEnum = []string{
	"battle", "suspense", "celebratory", "restful",
	"creepy", "relaxed", "skirmish", "themesong",
}

var lootRarityEnum = []string{
	"common", "uncommon", "rare", "very rare", "legendary", "artifact",
}

// rollRequirementProperty is the conditional requires_roll block. Numeric
// results are schema-typed as strings and coerced in code so a model that
// returns junk degrades to zero instead of failing the turn.
func rollRequirementProperty() ai.Property {
	return ai.Property{
		Name:        "requires_roll",
		Type:        "object",
		Description: "A dice roll one player must make before the story continues.",
		Object: &ai.Object{
			Properties: []ai.Property{
				{Name: "required", Type: "boolean"},
				{Name: "type", Type: "string", Enum: []string{"attack", "skill check", "saving throw", "ability check"}},
				{Name: "formula", Type: "string", Description: "Dice notation, for example 1d20+3."},
				{Name: "attribute", Type: "string"},
				{Name: "description", Type: "string"},
				{Name: "result", Type: "string", Description: "Numeric roll result if already resolved, else empty."},
				{Name: "player", Type: "string", Description: "Name or id of the responsible player."},
			},
			Required: []string{"required"},
		},
	}
}

// partyReactionFunction is the gm-mode schema: one improvised reaction per
// party player.
func partyReactionFunction(playerNames []string) ai.Function {
	return ai.Function{
		Name:        "party_reactions",
		Description: "Improvise each party member's reaction to the current scene.",
		Parameters: ai.Object{
			Properties: []ai.Property{
				{
					Name:        "reactions",
					Type:        "array",
					Description: "Exactly one reaction per party member.",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "player", Type: "string", Enum: playerNames},
								{Name: "response", Type: "string", Description: "What the character says or does."},
								{Name: "intent", Type: "string"},
								{Name: "emotion", Type: "string"},
							},
							Required: []string{"player", "response"},
						},
					},
				},
			},
			Required: []string{"reactions"},
		},
	}
}

// narrationFunction is the pc-mode schema: the AI narrates the next scene.
// The location-type enum is substituted per genre profile.
func narrationFunction(profile genre.Profile) ai.Function {
	return ai.Function{
		Name:        "narrate_scene",
		Description: "Narrate the next scene of the session.",
		Parameters: ai.Object{
			Properties: []ai.Property{
				{Name: "scene_type", Type: "string", Enum: sceneModeEnum()},
				{Name: "music", Type: "string", Enum: musicEnum},
				{Name: "description", Type: "string", Description: "Rich narration of the scene."},
				{
					Name:        "next_actions",
					Type:        "array",
					Description: "At least three suggested next actions.",
					Items:       &ai.Property{Type: "string"},
				},
				{
					Name: "image",
					Type: "object",
					Object: &ai.Object{
						Properties: []ai.Property{
							{Name: "description", Type: "string"},
							{Name: "style", Type: "string", Enum: autogm.ImageStyles},
						},
						Required: []string{"description"},
					},
				},
				{
					Name:        "npcs",
					Type:        "array",
					Description: "Non-player characters introduced in this scene.",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "name", Type: "string"},
								{Name: "species", Type: "string"},
								{Name: "description", Type: "string"},
								{Name: "goal", Type: "string"},
								{Name: "hit_points", Type: "string"},
								{Name: "dexterity", Type: "string"},
							},
							Required: []string{"name"},
						},
					},
				},
				{
					Name:        "combatants",
					Type:        "array",
					Description: "Hostile creatures introduced in this scene.",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "name", Type: "string"},
								{Name: "species", Type: "string"},
								{Name: "description", Type: "string"},
								{Name: "hit_points", Type: "string"},
								{Name: "dexterity", Type: "string"},
								{Name: "group_size", Type: "string", Description: "Maximum pack size when this foe appears in groups."},
							},
							Required: []string{"name"},
						},
					},
				},
				{
					Name: "places",
					Type: "array",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "name", Type: "string"},
								{Name: "type", Type: "string", Enum: profile.LocationEnum()},
								{Name: "description", Type: "string"},
							},
							Required: []string{"name"},
						},
					},
				},
				{
					Name: "loot",
					Type: "array",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "name", Type: "string"},
								{Name: "rarity", Type: "string", Enum: lootRarityEnum},
								{Name: "description", Type: "string"},
							},
							Required: []string{"name"},
						},
					},
				},
				{
					Name: "quest_log",
					Type: "array",
					Items: &ai.Property{
						Type: "object",
						Object: &ai.Object{
							Properties: []ai.Property{
								{Name: "name", Type: "string"},
								{Name: "type", Type: "string", Enum: autogm.QuestTypes},
								{Name: "status", Type: "string", Enum: autogm.QuestStatuses},
								{Name: "description", Type: "string"},
							},
							Required: []string{"name"},
						},
					},
				},
				{Name: "current_quest", Type: "string"},
			},
			Required: []string{"scene_type", "music", "description", "next_actions"},
		},
	}.WithProperty(rollRequirementProperty(), false)
}

func actionProperty(name string) ai.Property {
	return ai.Property{
		Name: name,
		Type: "object",
		Object: &ai.Object{
			Properties: []ai.Property{
				{Name: "description", Type: "string"},
				{Name: "attack_roll", Type: "string"},
				{Name: "damage_roll", Type: "string"},
				{Name: "saving_throw", Type: "string"},
				{Name: "skill_check", Type: "string"},
				{Name: "target", Type: "string", Description: "Name or id of the target, if any."},
				{Name: "result", Type: "string"},
			},
			Required: []string{"description"},
		},
	}
}

// combatRoundFunction is the combat schema: one actor's turn.
func combatRoundFunction() ai.Function {
	return ai.Function{
		Name:        "combat_round",
		Description: "Resolve the acting combatant's turn.",
		Parameters: ai.Object{
			Properties: []ai.Property{
				{Name: "description", Type: "string", Description: "Narration of the turn."},
				{Name: "movement", Type: "string"},
				actionProperty("action"),
				actionProperty("bonus_action"),
			},
			Required: []string{"description"},
		},
	}
}
