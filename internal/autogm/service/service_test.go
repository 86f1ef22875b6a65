package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorekeep/autogm/internal/autogm"
	"github.com/lorekeep/autogm/internal/testkit"
	"github.com/lorekeep/autogm/internal/world"
)

var fixedTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	stores *testkit.MemoryStores
	client *testkit.ScriptedAI
	svc    *Service
	party  autogm.Party
	scene  autogm.Scene
}

// newFixture seeds a fantasy world with two players, a party, and a pending
// scene in the given gm mode.
func newFixture(t *testing.T, gmMode autogm.GMMode) *fixture {
	t.Helper()
	ctx := context.Background()
	stores := testkit.NewMemoryStores()
	client := &testkit.ScriptedAI{JSONResponses: map[string][]string{}}
	bundle := stores.Stores()

	w := world.World{ID: "w1", Name: "Vharen", Genre: "fantasy", CurrentDate: "3rd of Flowertide"}
	if err := bundle.Worlds.Put(ctx, w); err != nil {
		t.Fatalf("seed world: %v", err)
	}

	players := []world.Entity{
		{
			ID: "c1", WorldID: "w1", Kind: world.KindCharacter, Name: "Mara Venn",
			IsPlayer: true, Voice: "ember",
			Stats: world.Stats{HP: 9, MaxHP: 12, Dexterity: 14},
		},
		{
			ID: "c2", WorldID: "w1", Kind: world.KindCharacter, Name: "Tobb",
			IsPlayer: true,
			Stats:    world.Stats{HP: 11, MaxHP: 11, Dexterity: 8},
		},
	}
	for _, player := range players {
		if err := bundle.Entities.Put(ctx, player); err != nil {
			t.Fatalf("seed player: %v", err)
		}
	}

	scene, err := autogm.CreateScene(autogm.CreateSceneInput{
		PartyID:   "p1",
		GMMode:    gmMode,
		PlayerIDs: []string{"c1", "c2"},
	}, testkit.Clock(fixedTime), testkit.IDGenerator("scene"))
	if err != nil {
		t.Fatalf("seed scene: %v", err)
	}
	if err := bundle.Scenes.Put(ctx, scene); err != nil {
		t.Fatalf("store scene: %v", err)
	}

	party := autogm.Party{
		ID: "p1", WorldID: "w1", Name: "The Vanguard",
		PlayerIDs:   []string{"c1", "c2"},
		NextSceneID: scene.ID,
	}
	if err := bundle.Parties.Put(ctx, party); err != nil {
		t.Fatalf("seed party: %v", err)
	}

	svc, err := New(Config{
		Stores: bundle,
		Client: client,
		Voice:  "alloy",
		Now:    testkit.Clock(fixedTime),
		NewID:  testkit.IDGenerator("id"),
		Seed:   testkit.SeedSource(7),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{t: t, stores: stores, client: client, svc: svc, party: party, scene: scene}
}

func (f *fixture) putScene(scene autogm.Scene) {
	f.t.Helper()
	if err := f.stores.Stores().Scenes.Put(context.Background(), scene); err != nil {
		f.t.Fatalf("store scene: %v", err)
	}
}

func (f *fixture) putParty(party autogm.Party) {
	f.t.Helper()
	if err := f.stores.Stores().Parties.Put(context.Background(), party); err != nil {
		f.t.Fatalf("store party: %v", err)
	}
}

func (f *fixture) reloadParty() autogm.Party {
	f.t.Helper()
	party, err := f.stores.Stores().Parties.Get(context.Background(), f.party.ID)
	if err != nil {
		f.t.Fatalf("reload party: %v", err)
	}
	return party
}

func (f *fixture) reloadScene(id string) autogm.Scene {
	f.t.Helper()
	scene, err := f.stores.Stores().Scenes.Get(context.Background(), id)
	if err != nil {
		f.t.Fatalf("reload scene %s: %v", id, err)
	}
	return scene
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{Stores: testkit.NewMemoryStores().Stores()}); err == nil {
		t.Fatal("expected error without an ai client")
	}
}

func TestAdvanceWithoutPendingScene(t *testing.T) {
	f := newFixture(t, autogm.GMModePC)
	party := autogm.Party{ID: "p2", WorldID: "w1", Name: "Strays", PlayerIDs: []string{"c1"}}
	f.putParty(party)

	err := f.svc.Advance(context.Background(), "p2")
	if !errors.Is(err, autogm.ErrNoPendingScene) {
		t.Fatalf("expected ErrNoPendingScene, got %v", err)
	}
}

func TestAdvanceRejectsUnknownGMMode(t *testing.T) {
	f := newFixture(t, autogm.GMModeManual)
	f.scene.GMMode = "weird"
	f.putScene(f.scene)

	err := f.svc.Advance(context.Background(), f.party.ID)
	if !errors.Is(err, autogm.ErrInvalidGMMode) {
		t.Fatalf("expected ErrInvalidGMMode, got %v", err)
	}
}

func TestAdvanceToleratesGroundingFailure(t *testing.T) {
	f := newFixture(t, autogm.GMModeGM)
	f.client.AttachErr = errors.New("upload quota exceeded")
	f.client.JSONResponses["party_reactions"] = []string{
		`{"reactions":[{"player":"Mara Venn","response":"I hold my ground.","intent":"","emotion":""},{"player":"Tobb","response":"Same.","intent":"","emotion":""}]}`,
	}

	if err := f.svc.Advance(context.Background(), f.party.ID); err != nil {
		t.Fatalf("grounding failure must not fail the turn: %v", err)
	}
	scene := f.reloadScene(f.scene.ID)
	if scene.ReadyPlayers() != 2 {
		t.Fatalf("turn state must persist despite grounding failure, got %d ready", scene.ReadyPlayers())
	}
}
