package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/platform/timeouts"
)

// GetNextScene returns the party's pending scene, allocating one when none
// exists. With create set, an existing pending scene is first summarized
// and rolled into the arc history before the fresh scene is allocated.
func (s *Service) GetNextScene(ctx context.Context, partyID string, create bool) (autogm.Scene, error) {
	party, err := s.stores.Parties.Get(ctx, partyID)
	if err != nil {
		return autogm.Scene{}, fmt.Errorf("load party %s: %w", partyID, err)
	}
	w, err := s.stores.Worlds.Get(ctx, party.WorldID)
	if err != nil {
		return autogm.Scene{}, fmt.Errorf("load world %s: %w", party.WorldID, err)
	}

	var prior *autogm.Scene
	if party.NextSceneID != "" {
		scene, err := s.stores.Scenes.Get(ctx, party.NextSceneID)
		if err != nil {
			return autogm.Scene{}, fmt.Errorf("load scene %s: %w", party.NextSceneID, err)
		}
		prior = &scene
	}

	if create && prior != nil {
		if err := s.finalizeScene(ctx, &party, prior); err != nil {
			return autogm.Scene{}, err
		}
	}

	if party.NextSceneID != "" {
		return *prior, nil
	}

	next, err := s.allocateScene(&party, prior, w.CurrentDate, autogm.RollRequest{})
	if err != nil {
		return autogm.Scene{}, err
	}
	if err := s.stores.Scenes.Put(ctx, next); err != nil {
		return autogm.Scene{}, fmt.Errorf("save scene %s: %w", next.ID, err)
	}
	party.NextSceneID = next.ID
	party.UpdatedAt = s.now()
	if err := s.stores.Parties.Put(ctx, party); err != nil {
		return autogm.Scene{}, fmt.Errorf("save party %s: %w", party.ID, err)
	}
	return next, nil
}

// finalizeScene summarizes a realized scene and appends it to the party's
// arc history. The summary call gates the transition; its failure leaves
// party state unchanged.
func (s *Service) finalizeScene(ctx context.Context, party *autogm.Party, scene *autogm.Scene) error {
	summaryCtx, cancel := context.WithTimeout(ctx, timeouts.AIText)
	defer cancel()
	summary, err := ai.Summarize(summaryCtx, s.client, summaryInput(scene, party.ArcScenes), summaryPrimer)
	if err != nil {
		return fmt.Errorf("summarize scene %s: %w", scene.ID, err)
	}
	scene.Summary = summary

	party.ArcScenes = append(party.ArcScenes, autogm.SceneSummary{
		SceneID:     scene.ID,
		Date:        scene.Date,
		Mode:        scene.Mode,
		Description: scene.Description,
		Summary:     summary,
	})
	party.NextSceneID = ""
	if err := s.stores.Scenes.Put(ctx, *scene); err != nil {
		return fmt.Errorf("save scene %s: %w", scene.ID, err)
	}
	return nil
}

// allocateScene builds the fresh pending scene, copying carry-over context
// from the predecessor when one exists.
func (s *Service) allocateScene(party *autogm.Party, prior *autogm.Scene, worldDate string, carryRoll autogm.RollRequest) (autogm.Scene, error) {
	input := autogm.CreateSceneInput{
		PartyID:   party.ID,
		Date:      worldDate,
		PlayerIDs: party.PlayerIDs,
	}
	if prior != nil {
		input.Mode = prior.Mode
		input.GMMode = prior.GMMode
		input.Tone = prior.Tone
		input.ImageStyle = prior.ImageStyle
		if prior.Date != "" {
			input.Date = prior.Date
		}
	}

	next, err := autogm.CreateScene(input, s.now, s.newID)
	if err != nil {
		return autogm.Scene{}, err
	}
	if prior != nil {
		for _, ref := range prior.Associations.All() {
			next.AddAssociation(ref)
		}
		next.NPCIDs = append([]string{}, prior.NPCIDs...)
		next.CombatantIDs = append([]string{}, prior.CombatantIDs...)
		next.PlaceIDs = append([]string{}, prior.PlaceIDs...)
		next.LootIDs = append([]string{}, prior.LootIDs...)
		next.FactionIDs = append([]string{}, prior.FactionIDs...)
		next.VehicleIDs = append([]string{}, prior.VehicleIDs...)
		next.QuestLog = append([]autogm.Quest{}, prior.QuestLog...)
		next.CurrentQuest = prior.CurrentQuest
	}
	next.Roll = carryRoll
	return next, nil
}

// rollOver finalizes the session's pending scene and installs a fresh one,
// carrying forward a roll requirement when the narration signaled one.
func (s *Service) rollOver(ctx context.Context, sess *session, carryRoll autogm.RollRequest) error {
	if err := s.finalizeScene(ctx, &sess.party, &sess.scene); err != nil {
		return err
	}
	next, err := s.allocateScene(&sess.party, &sess.scene, sess.world.CurrentDate, carryRoll)
	if err != nil {
		return err
	}
	if err := s.stores.Scenes.Put(ctx, next); err != nil {
		return fmt.Errorf("save scene %s: %w", next.ID, err)
	}
	sess.party.NextSceneID = next.ID
	if err := s.saveParty(ctx, sess); err != nil {
		return err
	}
	sess.scene = next
	return nil
}

// EndSession closes the current arc: the arc's summaries are folded into
// the party, world, and player backstories, then the arc history is
// archived and cleared.
func (s *Service) EndSession(ctx context.Context, partyID string) error {
	party, err := s.stores.Parties.Get(ctx, partyID)
	if err != nil {
		return fmt.Errorf("load party %s: %w", partyID, err)
	}
	if len(party.ArcScenes) == 0 {
		return nil
	}
	w, err := s.stores.Worlds.Get(ctx, party.WorldID)
	if err != nil {
		return fmt.Errorf("load world %s: %w", party.WorldID, err)
	}

	first := party.ArcScenes[0]
	last := party.ArcScenes[len(party.ArcScenes)-1]
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nSession arc")
	if first.Date != "" || last.Date != "" {
		fmt.Fprintf(&b, " (%s to %s)", first.Date, last.Date)
	}
	b.WriteString(":\n")
	for _, summary := range party.ArcScenes {
		b.WriteString(summary.Summary)
		b.WriteString("\n")
	}
	arcText := b.String()

	party.Backstory += arcText
	w.Backstory += arcText
	w.UpdatedAt = s.now()
	if err := s.stores.Worlds.Put(ctx, w); err != nil {
		return fmt.Errorf("save world %s: %w", w.ID, err)
	}
	for _, playerID := range party.PlayerIDs {
		player, err := s.stores.Entities.Get(ctx, playerID)
		if err != nil {
			return fmt.Errorf("load player %s: %w", playerID, err)
		}
		player.Backstory += arcText
		player.UpdatedAt = s.now()
		if err := s.stores.Entities.Put(ctx, player); err != nil {
			return fmt.Errorf("save player %s: %w", playerID, err)
		}
	}

	party.Archived = append(party.Archived, party.ArcScenes...)
	party.ArcScenes = nil
	party.UpdatedAt = s.now()
	if err := s.stores.Parties.Put(ctx, party); err != nil {
		return fmt.Errorf("save party %s: %w", party.ID, err)
	}
	return nil
}
