package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/dice"
	"github.com/lorekeep/autogm/internal/platform/timeouts"
	"github.com/lorekeep/autogm/internal/world"
	"golang.org/x/sync/errgroup"
)

// Advance drives one turn of the session for the party's pending scene,
// dispatching on its gm mode. The primary AI call, when one exists, gates
// every state mutation: a failed call leaves party and scene unchanged.
func (s *Service) Advance(ctx context.Context, partyID string) error {
	ctx, span := s.tracer.Start(ctx, "autogm.Advance")
	defer span.End()

	sess, err := s.loadSession(ctx, partyID)
	if err != nil {
		return err
	}

	switch sess.scene.GMMode {
	case autogm.GMModeGM:
		err = s.advanceGM(ctx, sess)
	case autogm.GMModePC:
		err = s.advancePC(ctx, sess)
	case autogm.GMModeManual:
		err = s.advanceManual(ctx, sess)
	default:
		return fmt.Errorf("%w: %q", autogm.ErrInvalidGMMode, sess.scene.GMMode)
	}
	if err != nil {
		return err
	}

	s.refreshGrounding(ctx, sess)
	log.Printf("turn advanced party_id=%s scene_id=%s gm_mode=%s mode=%s",
		sess.party.ID, sess.party.NextSceneID, sess.scene.GMMode, sess.scene.Mode)
	return nil
}

// advanceGM improvises each player's reaction to the current scene. The
// scene stays pending; closure happens through a separate canonize step.
func (s *Service) advanceGM(ctx context.Context, sess *session) error {
	fn := partyReactionFunction(sess.playerNames())
	if sess.scene.Roll.Required {
		fn = fn.WithProperty(rollRequirementProperty(), false)
	}

	aiCtx, cancel := context.WithTimeout(ctx, timeouts.AIText)
	payload, err := s.client.GenerateJSON(aiCtx, partyReactionPrompt(sess), fn)
	cancel()
	if err != nil {
		return fmt.Errorf("party reactions: %w", err)
	}
	response, err := decodeJSON[reactionResponse](payload)
	if err != nil {
		return fmt.Errorf("decode party reactions: %w", err)
	}

	for _, reaction := range response.Reactions {
		player := sess.resolvePlayer(reaction.Player)
		if player == nil {
			log.Printf("reaction for unknown player party_id=%s player=%q", sess.party.ID, reaction.Player)
			continue
		}
		if _, err := sess.scene.SetPlayerMessage(player.ID, reaction.Response, reaction.Intent, reaction.Emotion, true); err != nil {
			return err
		}
	}

	if sess.scene.Roll.Required {
		result := 0
		if response.RequiresRoll != nil {
			result = coerceInt(response.RequiresRoll.Result)
		}
		if result == 0 {
			result = s.resolveRoll(sess.scene.Roll.Formula)
		}
		sess.scene.Roll.Result = result
	}

	s.generateReactionAudio(ctx, sess)

	return s.saveScene(ctx, sess)
}

// resolveRoll rolls the formula, falling back to a single d20 when the
// formula does not parse.
func (s *Service) resolveRoll(formula string) int {
	result, err := dice.RollFormula(formula, s.seed())
	if err != nil {
		fallback, rollErr := dice.RollFormula("1d20", s.seed())
		if rollErr != nil {
			return 0
		}
		log.Printf("roll formula fallback formula=%q err=%v", formula, err)
		return fallback.Total
	}
	return result.Total
}

// generateReactionAudio narrates each ready reaction in the player's
// voice. Failures are logged and tolerated.
func (s *Service) generateReactionAudio(ctx context.Context, sess *session) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AIMedia)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range sess.scene.Messages {
		message := &sess.scene.Messages[i]
		if message.Response == "" {
			continue
		}
		group.Go(func() error {
			audio, err := s.client.GenerateAudio(groupCtx, message.Response, s.playerVoice(sess.playerByID(message.PlayerID)))
			if err != nil {
				log.Printf("reaction audio failed scene_id=%s player_id=%s err=%v", sess.scene.ID, message.PlayerID, err)
				return nil
			}
			key := "scene/" + sess.scene.ID + "/audio/" + message.PlayerID
			if err := s.stores.Media.PutBlob(groupCtx, key, audio); err != nil {
				log.Printf("reaction audio store failed scene_id=%s player_id=%s err=%v", sess.scene.ID, message.PlayerID, err)
				return nil
			}
			message.AudioKey = key
			return nil
		})
	}
	_ = group.Wait()
}

// resolvePlayer matches an AI-returned player reference by id, then by
// name containment. Unknown references resolve to nil.
func (sess *session) resolvePlayer(ref string) *world.Entity {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil
	}
	for _, player := range sess.players {
		if player.ID == trimmed {
			return player
		}
	}
	for _, player := range sess.players {
		if matchEntityName(player.Name, trimmed) {
			return player
		}
	}
	return nil
}

// advancePC asks the AI to narrate the next scene, realizes the response
// into the pending scene and the world graph, then rolls the scene into
// history and allocates the next pending scene.
func (s *Service) advancePC(ctx context.Context, sess *session) error {
	firstSession := len(sess.party.ArcScenes) == 0 && sess.scene.Description == ""
	fn := narrationFunction(sess.profile)

	aiCtx, cancel := context.WithTimeout(ctx, timeouts.AIText)
	payload, err := s.client.GenerateJSON(aiCtx, narrationPrompt(sess, firstSession), fn)
	cancel()
	if err != nil {
		return fmt.Errorf("narrate scene: %w", err)
	}
	response, err := decodeJSON[narrationResponse](payload)
	if err != nil {
		return fmt.Errorf("decode narration: %w", err)
	}

	// Mutations run in a fixed order: quest merge, scene body, object
	// materialization, media, combat init, next-scene allocation.
	var questUpdates []autogm.Quest
	for _, quest := range response.QuestLog {
		questUpdates = append(questUpdates, autogm.Quest{
			Name: quest.Name, Type: quest.Type, Status: quest.Status, Description: quest.Description,
		})
	}
	sess.scene.QuestLog = autogm.MergeQuests(sess.scene.QuestLog, questUpdates)
	if response.CurrentQuest != "" {
		sess.scene.CurrentQuest = response.CurrentQuest
	}

	mode, err := autogm.ParseSceneMode(response.SceneType)
	if err != nil {
		return err
	}
	sess.scene.Mode = mode
	sess.scene.Description = ai.StripCodeFence(response.Description)
	sess.scene.NextActions = response.NextActions
	sess.scene.MusicCue = autogm.NormalizeMusicCue(response.Music)

	imageBrief := ""
	if response.Image != nil {
		imageBrief = response.Image.Description
		if response.Image.Style != "" {
			sess.scene.ImageStyle = response.Image.Style
		}
	}

	if _, err := s.materializeList(ctx, sess, world.KindCharacter, response.NPCs, &sess.scene.NPCIDs); err != nil {
		return err
	}
	combatants, err := s.materializeList(ctx, sess, world.KindCreature, response.Combatants, &sess.scene.CombatantIDs)
	if err != nil {
		return err
	}
	if _, err := s.materializeList(ctx, sess, world.KindItem, response.Loot, &sess.scene.LootIDs); err != nil {
		return err
	}
	if _, err := s.materializeList(ctx, sess, world.KindLocation, response.Places, &sess.scene.PlaceIDs); err != nil {
		return err
	}

	s.generateSceneMedia(ctx, sess, imageBrief)

	if len(combatants) > 0 && sess.scene.Mode == autogm.SceneCombat {
		combatantPtrs := make([]*world.Entity, len(combatants))
		for i := range combatants {
			combatantPtrs[i] = &combatants[i]
		}
		if err := sess.scene.StartCombat(sess.players, combatantPtrs, sess.allies, s.seed()); err != nil {
			return err
		}
	}

	carryRoll := autogm.RollRequest{}
	if response.RequiresRoll != nil && response.RequiresRoll.Required {
		carryRoll = autogm.RollRequest{
			Required:    true,
			Type:        response.RequiresRoll.Type,
			Formula:     response.RequiresRoll.Formula,
			Attribute:   response.RequiresRoll.Attribute,
			Description: response.RequiresRoll.Description,
			Result:      coerceInt(response.RequiresRoll.Result),
		}
		if player := sess.resolvePlayer(response.RequiresRoll.Player); player != nil {
			carryRoll.PlayerID = player.ID
		}
	}

	return s.rollOver(ctx, sess, carryRoll)
}

// advanceManual applies the no-AI turn rules: media generation once the GM
// is ready, and scene rollover once both the GM and every player are.
func (s *Service) advanceManual(ctx context.Context, sess *session) error {
	if !sess.scene.GMReady {
		return nil
	}

	if !sess.party.Ready(&sess.scene) {
		s.generateSceneMedia(ctx, sess, "")
		return s.saveScene(ctx, sess)
	}

	var b strings.Builder
	b.WriteString(sess.scene.Description)
	for _, message := range sess.scene.Messages {
		if !message.Ready || strings.TrimSpace(message.Response) == "" {
			continue
		}
		name := message.PlayerID
		if player := sess.playerByID(message.PlayerID); player != nil {
			name = player.Name
		}
		fmt.Fprintf(&b, "\n\n%s: %s", name, message.Response)
	}
	sess.scene.Description = b.String()

	return s.rollOver(ctx, sess, autogm.RollRequest{})
}
