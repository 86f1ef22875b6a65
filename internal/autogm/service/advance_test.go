package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/dice"
	"github.com/lorekeep/autogm/internal/world"
)

func TestAdvanceGMFillsSlotsWithoutSceneHandoff(t *testing.T) {
	f := newFixture(t, autogm.GMModeGM)
	f.client.JSONResponses["party_reactions"] = []string{
		`{"reactions":[
			{"player":"Mara Venn","response":"I step forward.","intent":"parley","emotion":"calm"},
			{"player":"Tobb","response":"I watch the exits.","intent":"","emotion":""}
		]}`,
	}

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	party := f.reloadParty()
	if party.NextSceneID != f.scene.ID {
		t.Fatalf("gm turn must not hand off the scene, pending moved to %s", party.NextSceneID)
	}
	if len(party.ArcScenes) != 0 {
		t.Fatalf("gm turn must not finalize scenes, got %d arc entries", len(party.ArcScenes))
	}

	scene := f.reloadScene(f.scene.ID)
	mara, err := scene.PlayerMessage("c1")
	if err != nil {
		t.Fatalf("mara slot: %v", err)
	}
	if !mara.Ready || mara.Response != "I step forward." || mara.Intent != "parley" {
		t.Fatalf("slot not filled: %+v", mara)
	}
	if mara.AudioKey != "scene/"+scene.ID+"/audio/c1" {
		t.Fatalf("expected reaction audio key, got %q", mara.AudioKey)
	}
	if tobb, _ := scene.PlayerMessage("c2"); tobb == nil || !tobb.Ready {
		t.Fatal("second slot must be ready")
	}
}

func TestAdvanceGMResolvesRollFromResponse(t *testing.T) {
	f := newFixture(t, autogm.GMModeGM)
	f.scene.Roll = autogm.RollRequest{Required: true, Type: "skill check", Formula: "1d20+3", Description: "Climb the cliff"}
	f.putScene(f.scene)
	f.client.JSONResponses["party_reactions"] = []string{
		`{"reactions":[
			{"player":"Mara Venn","response":"I climb.","intent":"","emotion":""},
			{"player":"Tobb","response":"I belay.","intent":"","emotion":""}
		],"requires_roll":{"required":true,"result":"17"}}`,
	}

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := f.reloadScene(f.scene.ID).Roll.Result; got != 17 {
		t.Fatalf("expected model-resolved result 17, got %d", got)
	}
}

func TestAdvanceGMFallsBackToD20OnBadFormula(t *testing.T) {
	f := newFixture(t, autogm.GMModeGM)
	f.scene.Roll = autogm.RollRequest{Required: true, Type: "skill check", Formula: "not-a-formula"}
	f.putScene(f.scene)
	f.client.JSONResponses["party_reactions"] = []string{
		`{"reactions":[
			{"player":"Mara Venn","response":"I try anyway.","intent":"","emotion":""},
			{"player":"Tobb","response":"Careful.","intent":"","emotion":""}
		]}`,
	}

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	expected, err := dice.RollFormula("1d20", 7)
	if err != nil {
		t.Fatalf("reference roll: %v", err)
	}
	if got := f.reloadScene(f.scene.ID).Roll.Result; got != expected.Total {
		t.Fatalf("expected d20 fallback %d, got %d", expected.Total, got)
	}
}

const narrationScript = `{
	"scene_type":"combat",
	"music":"battle",
	"description":"` + "```" + `\nGnolls burst from the treeline.\n` + "```" + `",
	"next_actions":["Fight","Flee","Parley"],
	"image":{"description":"Gnolls charging through mist","style":"Sana Takeda"},
	"npcs":[{"name":"Sera Caldwell","species":"human","description":"A weathered ranger","goal":"protect the road","hit_points":"12","dexterity":"14"}],
	"combatants":[{"name":"Gnoll","species":"gnoll","description":"Mangy raider","hit_points":"6","dexterity":"12","group_size":"3"}],
	"places":[{"name":"Old Mill","type":"location","description":"A ruined mill"}],
	"loot":[{"name":"Rusty Key","rarity":"common","description":"Opens something"}],
	"quest_log":[{"name":"Find the Vault","type":"main quest","status":"active","description":"Locate the sunken vault."}],
	"current_quest":"Find the Vault",
	"requires_roll":{"required":true,"type":"attack","formula":"1d20+2","attribute":"","description":"Strike first","result":"","player":"Mara Venn"}
}`

func TestAdvancePCRealizesNarrationAndHandsOff(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	f.client.JSONResponses["narrate_scene"] = []string{narrationScript}

	ctx := context.Background()
	if err := f.svc.Advance(ctx, f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	party := f.reloadParty()
	if party.NextSceneID == f.scene.ID || party.NextSceneID == "" {
		t.Fatalf("pc turn must allocate a fresh pending scene, got %q", party.NextSceneID)
	}
	if len(party.ArcScenes) != 1 {
		t.Fatalf("expected one finalized scene, got %d", len(party.ArcScenes))
	}
	if party.ArcScenes[0].Summary != "scripted summary" {
		t.Fatalf("arc summary not recorded: %+v", party.ArcScenes[0])
	}

	finalized := f.reloadScene(f.scene.ID)
	if finalized.Description != "Gnolls burst from the treeline." {
		t.Fatalf("code fence must be stripped, got %q", finalized.Description)
	}
	if finalized.Mode != autogm.SceneCombat || finalized.MusicCue != "battle" {
		t.Fatalf("scene body not applied: mode=%s music=%s", finalized.Mode, finalized.MusicCue)
	}
	if finalized.Summary != "scripted summary" {
		t.Fatalf("finalized scene must carry its summary, got %q", finalized.Summary)
	}
	if finalized.Initiative == nil {
		t.Fatal("combat narration with combatants must seed initiative")
	}
	if got := len(finalized.Initiative.Order); got < 3 || got > 5 {
		t.Fatalf("expected 2 players plus 1..3 gnolls in initiative, got %d", got)
	}
	if finalized.AudioKey == "" || finalized.ImageKey == "" {
		t.Fatalf("expected scene media keys, got audio=%q image=%q", finalized.AudioKey, finalized.ImageKey)
	}

	sera, err := f.stores.Stores().Entities.SearchByName(ctx, "w1", world.KindCharacter, "sera")
	if err != nil || len(sera) != 1 {
		t.Fatalf("expected one materialized npc, got %d (%v)", len(sera), err)
	}
	if sera[0].Stats.HP != 12 || sera[0].Stats.Dexterity != 14 {
		t.Fatalf("npc stats not coerced: %+v", sera[0].Stats)
	}
	gnolls, err := f.stores.Stores().Entities.SearchByName(ctx, "w1", world.KindCreature, "gnoll")
	if err != nil || len(gnolls) != 1 {
		t.Fatalf("expected one gnoll template, got %d (%v)", len(gnolls), err)
	}
	if gnolls[0].GroupSize != 3 {
		t.Fatalf("group size not applied: %+v", gnolls[0])
	}

	next := f.reloadScene(party.NextSceneID)
	if next.Mode != autogm.SceneCombat || next.GMMode != autogm.GMModePC {
		t.Fatalf("carry-over mode lost: %s/%s", next.Mode, next.GMMode)
	}
	if len(next.QuestLog) != 1 || next.CurrentQuest != "Find the Vault" {
		t.Fatalf("quest state not carried: %+v", next.QuestLog)
	}
	if !next.Roll.Required || next.Roll.Formula != "1d20+2" || next.Roll.PlayerID != "c1" {
		t.Fatalf("roll requirement not carried with resolved player: %+v", next.Roll)
	}
	if len(next.Messages) != 2 || next.Messages[0].Ready {
		t.Fatalf("fresh scene must have blank slots: %+v", next.Messages)
	}
}

func TestAdvancePCMaterializationIsIdempotent(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	f.client.JSONResponses["narrate_scene"] = []string{narrationScript, `{
		"scene_type":"social",
		"music":"relaxed",
		"description":"Sera Caldwell lowers her bow.",
		"next_actions":["Talk","Rest","Move on"],
		"npcs":[{"name":"Sera Caldwell","species":"","description":"","goal":"","hit_points":"","dexterity":""}]
	}`}

	ctx := context.Background()
	if err := f.svc.Advance(ctx, f.party.ID); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if err := f.svc.Advance(ctx, f.party.ID); err != nil {
		t.Fatalf("second advance: %v", err)
	}

	sera, err := f.stores.Stores().Entities.SearchByName(ctx, "w1", world.KindCharacter, "sera")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(sera) != 1 {
		t.Fatalf("repeated mention must resolve to the same npc, got %d", len(sera))
	}

	party := f.reloadParty()
	next := f.reloadScene(party.NextSceneID)
	count := 0
	for _, id := range next.NPCIDs {
		if id == sera[0].ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("npc id must appear once after normalization, got %d in %v", count, next.NPCIDs)
	}

	if _, err := f.stores.Stores().Media.GetBlob(ctx, "portrait/"+sera[0].ID); err != nil {
		t.Fatalf("new npc must get a portrait: %v", err)
	}
}

func TestAdvancePCSchemaViolationLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	f.client.JSONResponses["narrate_scene"] = []string{
		`{"scene_type":"opera","music":"battle","description":"x","next_actions":["a"]}`,
	}

	err := f.svc.Advance(context.Background(), f.party.ID)
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}

	party := f.reloadParty()
	if party.NextSceneID != f.scene.ID || len(party.ArcScenes) != 0 {
		t.Fatalf("failed generation must not mutate party state: %+v", party)
	}
	npcs, err := f.stores.Stores().Entities.ListByWorld(context.Background(), "w1", world.KindCreature)
	if err != nil || len(npcs) != 0 {
		t.Fatalf("failed generation must not create entities, got %d", len(npcs))
	}
}

func TestAdvanceManualIgnoresTurnUntilGMReady(t *testing.T) {
	f := newFixture(t, autogm.GMModeManual)

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(f.client.AudioCalls) != 0 || len(f.client.ImageCalls) != 0 {
		t.Fatal("no media until the gm is ready")
	}
	if party := f.reloadParty(); party.NextSceneID != f.scene.ID {
		t.Fatalf("scene must stay pending, got %q", party.NextSceneID)
	}
}

func TestAdvanceManualMediaOnlyUntilPlayersReady(t *testing.T) {
	f := newFixture(t, autogm.GMModeManual)
	f.scene.GMReady = true
	f.scene.Description = "The door creaks open."
	if _, err := f.scene.SetPlayerMessage("c1", "I peek inside.", "", "", true); err != nil {
		t.Fatalf("set message: %v", err)
	}
	f.putScene(f.scene)

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	party := f.reloadParty()
	if party.NextSceneID != f.scene.ID || len(party.ArcScenes) != 0 {
		t.Fatal("scene must stay pending while a player is not ready")
	}
	if scene := f.reloadScene(f.scene.ID); scene.AudioKey == "" {
		t.Fatal("expected scene audio once the gm is ready")
	}
}

func TestAdvanceManualFoldsMessagesAndHandsOff(t *testing.T) {
	f := newFixture(t, autogm.GMModeManual)
	f.scene.GMReady = true
	f.scene.Description = "The door creaks open."
	if _, err := f.scene.SetPlayerMessage("c1", "I peek inside.", "", "", true); err != nil {
		t.Fatalf("set message: %v", err)
	}
	if _, err := f.scene.SetPlayerMessage("c2", "I guard the hall.", "", "", true); err != nil {
		t.Fatalf("set message: %v", err)
	}
	f.putScene(f.scene)

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	party := f.reloadParty()
	if party.NextSceneID == f.scene.ID || len(party.ArcScenes) != 1 {
		t.Fatalf("both-ready manual turn must hand off: %+v", party)
	}

	finalized := f.reloadScene(f.scene.ID)
	if !strings.Contains(finalized.Description, "Mara Venn: I peek inside.") ||
		!strings.Contains(finalized.Description, "Tobb: I guard the hall.") {
		t.Fatalf("messages not folded into description: %q", finalized.Description)
	}
	if next := f.reloadScene(party.NextSceneID); next.Description != "" {
		t.Fatalf("fresh scene must start blank, got %q", next.Description)
	}
}
