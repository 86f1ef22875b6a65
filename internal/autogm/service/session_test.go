package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lorekeep/autogm/internal/autogm"
)

func TestGetNextSceneAllocatesWhenMissing(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	party := autogm.Party{ID: "p2", WorldID: "w1", Name: "Strays", PlayerIDs: []string{"c1", "c2"}}
	f.putParty(party)

	ctx := context.Background()
	scene, err := f.svc.GetNextScene(ctx, "p2", false)
	if err != nil {
		t.Fatalf("get next scene: %v", err)
	}
	if scene.ID == "" || len(scene.Messages) != 2 {
		t.Fatalf("expected fresh scene with player slots, got %+v", scene)
	}
	if scene.Date != "3rd of Flowertide" {
		t.Fatalf("fresh scene must take the world date, got %q", scene.Date)
	}

	reloaded, err := f.stores.Stores().Parties.Get(ctx, "p2")
	if err != nil {
		t.Fatalf("reload party: %v", err)
	}
	if reloaded.NextSceneID != scene.ID {
		t.Fatalf("pending pointer not set, got %q", reloaded.NextSceneID)
	}
}

func TestGetNextSceneReturnsExistingPending(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)

	scene, err := f.svc.GetNextScene(context.Background(), f.party.ID, false)
	if err != nil {
		t.Fatalf("get next scene: %v", err)
	}
	if scene.ID != f.scene.ID {
		t.Fatalf("expected the existing pending scene, got %q", scene.ID)
	}
}

func TestGetNextSceneWithCreateFinalizesPending(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	f.scene.Description = "The vault door finally gives."
	f.putScene(f.scene)
	f.client.TextResponse = "The party breached the vault."

	ctx := context.Background()
	scene, err := f.svc.GetNextScene(ctx, f.party.ID, true)
	if err != nil {
		t.Fatalf("get next scene: %v", err)
	}
	if scene.ID == f.scene.ID {
		t.Fatal("create must allocate a fresh scene")
	}

	party := f.reloadParty()
	if len(party.ArcScenes) != 1 || party.ArcScenes[0].Summary != "The party breached the vault." {
		t.Fatalf("pending scene not finalized into the arc: %+v", party.ArcScenes)
	}
	if party.NextSceneID != scene.ID {
		t.Fatalf("pending pointer must move to the fresh scene, got %q", party.NextSceneID)
	}
	if old := f.reloadScene(f.scene.ID); old.Summary != "The party breached the vault." {
		t.Fatalf("finalized scene must keep its summary, got %q", old.Summary)
	}
}

func TestEndSessionFoldsArcIntoBackstories(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	f.party.ArcScenes = []autogm.SceneSummary{
		{SceneID: "s1", Date: "1st of Flowertide", Mode: autogm.SceneSocial, Summary: "The party met in Vharen."},
		{SceneID: "s2", Date: "2nd of Flowertide", Mode: autogm.SceneCombat, Summary: "Gnolls were driven off."},
	}
	f.putParty(f.party)

	ctx := context.Background()
	if err := f.svc.EndSession(ctx, f.party.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}

	party := f.reloadParty()
	if len(party.ArcScenes) != 0 {
		t.Fatalf("arc must be cleared, got %d entries", len(party.ArcScenes))
	}
	if len(party.Archived) != 2 {
		t.Fatalf("arc must be archived, got %d entries", len(party.Archived))
	}
	if !strings.Contains(party.Backstory, "The party met in Vharen.") ||
		!strings.Contains(party.Backstory, "Gnolls were driven off.") {
		t.Fatalf("party backstory missing arc text: %q", party.Backstory)
	}

	w, err := f.stores.Stores().Worlds.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("reload world: %v", err)
	}
	if !strings.Contains(w.Backstory, "Gnolls were driven off.") {
		t.Fatalf("world backstory missing arc text: %q", w.Backstory)
	}

	mara, err := f.stores.Stores().Entities.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("reload player: %v", err)
	}
	if !strings.Contains(mara.Backstory, "1st of Flowertide to 2nd of Flowertide") {
		t.Fatalf("player backstory missing arc header: %q", mara.Backstory)
	}
}

func TestEndSessionWithoutArcIsNoOp(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	if err := f.svc.EndSession(context.Background(), f.party.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if party := f.reloadParty(); party.Backstory != "" || len(party.Archived) != 0 {
		t.Fatalf("empty arc must change nothing: %+v", party)
	}
}
