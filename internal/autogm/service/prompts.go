package service

import (
	"fmt"
	"strings"

	"github.com/lorekeep/autogm/internal/autogm"
)

const summaryPrimer = "You are the chronicler of a tabletop RPG session. " +
	"Condense the following scene narration into a tight summary that preserves " +
	"names, decisions, and unresolved threads."

func writeWorldContext(b *strings.Builder, sess *session) {
	fmt.Fprintf(b, "WORLD: %s (%s genre)", sess.world.Name, sess.profile.Display)
	if sess.world.CurrentDate != "" {
		fmt.Fprintf(b, ", current date %s", sess.world.CurrentDate)
	}
	b.WriteString("\n")
	if sess.world.Description != "" {
		fmt.Fprintf(b, "WORLD DESCRIPTION: %s\n", sess.world.Description)
	}
	fmt.Fprintf(b, "PARTY: %s", sess.party.Name)
	if sess.party.Goal != "" {
		fmt.Fprintf(b, " — goal: %s", sess.party.Goal)
	}
	b.WriteString("\nPLAYERS:\n")
	for _, player := range sess.players {
		fmt.Fprintf(b, "- %s", player.Name)
		if player.Species != "" {
			fmt.Fprintf(b, " (%s)", player.Species)
		}
		if player.Description != "" {
			fmt.Fprintf(b, ": %s", player.Description)
		}
		b.WriteString("\n")
	}
}

func writeHistory(b *strings.Builder, sess *session, limit int) {
	history := sess.party.ArcScenes
	if len(history) == 0 {
		return
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	b.WriteString("RECENT SCENES:\n")
	for _, summary := range history {
		fmt.Fprintf(b, "- [%s] %s\n", summary.Mode, summary.Summary)
	}
}

func writeSceneState(b *strings.Builder, scene *autogm.Scene) {
	fmt.Fprintf(b, "CURRENT SCENE (%s", scene.Mode)
	if scene.Tone != "" {
		fmt.Fprintf(b, ", tone %s", scene.Tone)
	}
	if scene.Date != "" {
		fmt.Fprintf(b, ", date %s", scene.Date)
	}
	b.WriteString(")\n")
	if scene.Description != "" {
		fmt.Fprintf(b, "SCENE SO FAR: %s\n", scene.Description)
	}
	if scene.CurrentQuest != "" {
		fmt.Fprintf(b, "CURRENT QUEST: %s\n", scene.CurrentQuest)
	}
	for _, quest := range scene.QuestLog {
		fmt.Fprintf(b, "QUEST [%s/%s] %s: %s\n", quest.Type, quest.Status, quest.Name, quest.Description)
	}
	if refs := scene.Associations.All(); len(refs) > 0 {
		b.WriteString("KNOWN IN SCENE:\n")
		for _, ref := range refs {
			fmt.Fprintf(b, "- %s (%s)\n", ref.Name, strings.ToLower(ref.Kind.String()))
		}
	}
}

// partyReactionPrompt asks the model to improvise each player's reaction.
func partyReactionPrompt(sess *session) string {
	var b strings.Builder
	b.WriteString("Improvise how each party member reacts to the current scene. ")
	b.WriteString("Stay true to each character's established voice and goals.\n\n")
	writeWorldContext(&b, sess)
	writeHistory(&b, sess, 3)
	writeSceneState(&b, &sess.scene)
	if sess.scene.Roll.Required {
		fmt.Fprintf(&b, "\nA dice roll is pending: %s (%s, %s). Resolve it if you can.\n",
			sess.scene.Roll.Description, sess.scene.Roll.Type, sess.scene.Roll.Formula)
	}
	return b.String()
}

// narrationPrompt asks the model for the next scene. The first-session
// variant establishes the opening beat instead of continuing one.
func narrationPrompt(sess *session, firstSession bool) string {
	var b strings.Builder
	if firstSession {
		b.WriteString("Open the first session of this campaign. Set the scene, introduce the party's ")
		b.WriteString("immediate surroundings, and give the players a clear situation to react to.\n\n")
	} else {
		b.WriteString("Continue the session. Narrate the next scene, reacting to what the players did.\n\n")
	}
	writeWorldContext(&b, sess)
	writeHistory(&b, sess, 3)
	writeSceneState(&b, &sess.scene)
	for _, message := range sess.scene.Messages {
		if message.Response == "" {
			continue
		}
		name := message.PlayerID
		if player := sess.playerByID(message.PlayerID); player != nil {
			name = player.Name
		}
		fmt.Fprintf(&b, "PLAYER %s: %s\n", name, message.Response)
	}
	return b.String()
}

// combatRoundPrompt asks the model to resolve the acting combatant's turn.
func combatRoundPrompt(sess *session, entry *autogm.InitiativeEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resolve %s's combat turn (round %d).\n\n", entry.Name, sess.scene.Initiative.Round)
	writeWorldContext(&b, sess)
	writeSceneState(&b, &sess.scene)
	b.WriteString("INITIATIVE ORDER:\n")
	for i, other := range sess.scene.Initiative.Order {
		marker := " "
		if i == sess.scene.Initiative.CurrentTurn {
			marker = ">"
		}
		side := "ally"
		if other.Hostile {
			side = "hostile"
		}
		fmt.Fprintf(&b, "%s %s (%s, hp %d)\n", marker, other.Name, side, other.HP)
	}
	return b.String()
}

// summaryInput gathers the text to fold into a scene summary: the scene
// description plus up to the prior three finalized descriptions.
func summaryInput(scene *autogm.Scene, history []autogm.SceneSummary) string {
	var parts []string
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, prior := range history[start:] {
		if prior.Description != "" {
			parts = append(parts, prior.Description)
		}
	}
	parts = append(parts, scene.Description)
	return strings.Join(parts, "\n\n")
}
