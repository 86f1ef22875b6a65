package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/platform/timeouts"
)

// RunCombatRound resolves the acting combatant's turn on the party's last
// combat scene: narration and movement are written to the entry, action
// and bonus action are upserted, and entry media is regenerated.
func (s *Service) RunCombatRound(ctx context.Context, partyID string) error {
	ctx, span := s.tracer.Start(ctx, "autogm.RunCombatRound")
	defer span.End()

	sess, err := s.loadSession(ctx, partyID)
	if err != nil {
		return err
	}
	if sess.scene.Mode != autogm.SceneCombat {
		return fmt.Errorf("%w: scene %s", autogm.ErrNotCombat, sess.scene.ID)
	}
	if sess.scene.Initiative == nil {
		return fmt.Errorf("%w: scene %s", autogm.ErrNoInitiative, sess.scene.ID)
	}

	entry, err := sess.scene.CurrentCombatTurn(nil, nil)
	if err != nil {
		return err
	}

	aiCtx, cancel := context.WithTimeout(ctx, timeouts.AIText)
	payload, err := s.client.GenerateJSON(aiCtx, combatRoundPrompt(sess, entry), combatRoundFunction())
	cancel()
	if err != nil {
		return fmt.Errorf("combat round: %w", err)
	}
	response, err := decodeJSON[combatRoundResponse](payload)
	if err != nil {
		return fmt.Errorf("decode combat round: %w", err)
	}

	entry.Description = response.Description
	entry.Movement = response.Movement
	if response.Action != nil {
		entry.AddAction(autogm.SlotAction, s.toActionRecord(sess, response.Action))
	}
	if response.BonusAction != nil {
		entry.AddAction(autogm.SlotBonusAction, s.toActionRecord(sess, response.BonusAction))
	}

	s.generateEntryMedia(ctx, sess, entry)

	return s.saveScene(ctx, sess)
}

// toActionRecord converts a combat action response, coercing numeric
// fields and resolving the target against the initiative order. An
// unresolved target degrades to no target.
func (s *Service) toActionRecord(sess *session, action *combatActionResponse) autogm.ActionRecord {
	record := autogm.ActionRecord{
		Description: action.Description,
		AttackRoll:  coerceInt(action.AttackRoll),
		DamageRoll:  coerceInt(action.DamageRoll),
		SavingThrow: coerceInt(action.SavingThrow),
		SkillCheck:  coerceInt(action.SkillCheck),
		Result:      action.Result,
	}
	target := strings.TrimSpace(action.Target)
	if target == "" {
		return record
	}
	if entry := sess.scene.Initiative.FindEntry(target); entry != nil {
		record.TargetID = entry.ActorID
		return record
	}
	for i := range sess.scene.Initiative.Order {
		if matchEntityName(sess.scene.Initiative.Order[i].Name, target) {
			record.TargetID = sess.scene.Initiative.Order[i].ActorID
			return record
		}
	}
	return record
}

// generateEntryMedia narrates the entry's turn and renders its portrait
// once. Failures are logged and tolerated.
func (s *Service) generateEntryMedia(ctx context.Context, sess *session, entry *autogm.InitiativeEntry) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AIMedia)
	defer cancel()

	if entry.Description != "" {
		audio, err := s.client.GenerateAudio(ctx, entry.Description, s.voice)
		if err != nil {
			log.Printf("entry audio failed scene_id=%s actor_id=%s err=%v", sess.scene.ID, entry.ActorID, err)
		} else {
			key := fmt.Sprintf("scene/%s/combat/%s/audio", sess.scene.ID, entry.ActorID)
			if err := s.stores.Media.PutBlob(ctx, key, audio); err != nil {
				log.Printf("entry audio store failed scene_id=%s actor_id=%s err=%v", sess.scene.ID, entry.ActorID, err)
			} else {
				entry.AudioKey = key
			}
		}
	}

	if entry.ImageKey == "" && entry.Description != "" {
		tags := []string{}
		if sess.scene.ImageStyle != "" {
			tags = append(tags, sess.scene.ImageStyle)
		}
		image, err := s.client.GenerateImage(ctx, entry.Description, tags)
		if err != nil {
			log.Printf("entry image failed scene_id=%s actor_id=%s err=%v", sess.scene.ID, entry.ActorID, err)
		} else {
			key := fmt.Sprintf("scene/%s/combat/%s/image", sess.scene.ID, entry.ActorID)
			if err := s.stores.Media.PutBlob(ctx, key, image); err != nil {
				log.Printf("entry image store failed scene_id=%s actor_id=%s err=%v", sess.scene.ID, entry.ActorID, err)
			} else {
				entry.ImageKey = key
			}
		}
	}
}
