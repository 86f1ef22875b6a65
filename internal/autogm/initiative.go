package autogm

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lorekeep/autogm/internal/world"
)

// ActionSlot selects which of an entry's two action records an upsert
// targets.
type ActionSlot int

const (
	SlotAction ActionSlot = iota
	SlotBonusAction
)

// ActionRecord captures one combat action: narration, numeric rolls, an
// optional target, and the narrated result.
type ActionRecord struct {
	Description string `json:"description"`
	AttackRoll  int    `json:"attack_roll,omitempty"`
	DamageRoll  int    `json:"damage_roll,omitempty"`
	SavingThrow int    `json:"saving_throw,omitempty"`
	SkillCheck  int    `json:"skill_check,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	Result      string `json:"result,omitempty"`
}

// InitiativeEntry is one combatant's turn-order record.
type InitiativeEntry struct {
	ActorID     string        `json:"actor_id"`
	Name        string        `json:"name"`
	Hostile     bool          `json:"hostile"`
	IsPlayer    bool          `json:"is_player"`
	HP          int           `json:"hp"`
	Status      string        `json:"status,omitempty"`
	Position    int           `json:"position"`
	Description string        `json:"description,omitempty"`
	Movement    string        `json:"movement,omitempty"`
	Action      *ActionRecord `json:"action,omitempty"`
	BonusAction *ActionRecord `json:"bonus_action,omitempty"`
	AudioKey    string        `json:"audio_key,omitempty"`
	ImageKey    string        `json:"image_key,omitempty"`
}

// Initiative is one combat's turn order. Order is sorted by position
// descending at combat start and never re-sorted mid-combat; defeated
// entries are skipped but stay in place so a recovering actor resumes at
// its original position.
type Initiative struct {
	Round       int               `json:"round"`
	CurrentTurn int               `json:"current_turn"`
	Order       []InitiativeEntry `json:"order"`
}

// StartInitiative seeds turn order for a combat. Position is a seeded d20
// roll plus the actor's dexterity modifier. Players start at current HP,
// everyone else at max. Ties keep roster insertion order.
func StartInitiative(players, combatants, allies []*world.Entity, seed int64) (*Initiative, error) {
	if len(combatants) == 0 {
		return nil, ErrNoCombatants
	}

	rng := rand.New(rand.NewSource(seed))
	var order []InitiativeEntry

	appendEntry := func(actor *world.Entity, hostile bool) {
		hp := actor.Stats.MaxHP
		if actor.IsPlayer {
			hp = actor.Stats.HP
		}
		order = append(order, InitiativeEntry{
			ActorID:  actor.ID,
			Name:     actor.Name,
			Hostile:  hostile,
			IsPlayer: actor.IsPlayer,
			HP:       hp,
			Position: rng.Intn(20) + 1 + actor.Stats.DexModifier(),
		})
	}

	for _, player := range players {
		appendEntry(player, false)
	}
	for _, combatant := range combatants {
		appendEntry(combatant, true)
	}
	for _, ally := range allies {
		appendEntry(ally, false)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Position > order[j].Position
	})

	return &Initiative{Round: 1, Order: order}, nil
}

// CombatEnded reports whether every hostile entry is defeated.
func (in *Initiative) CombatEnded() bool {
	for _, entry := range in.Order {
		if entry.Hostile && entry.HP > 0 {
			return false
		}
	}
	return true
}

// Current returns the entry acting now: the first live entry reachable by
// scanning forward cyclically from the current turn index. The index is
// advanced past defeated entries. Returns nil when no live entry exists.
func (in *Initiative) Current() *InitiativeEntry {
	if len(in.Order) == 0 {
		return nil
	}
	for offset := 0; offset < len(in.Order); offset++ {
		idx := (in.CurrentTurn + offset) % len(in.Order)
		if in.Order[idx].HP > 0 {
			in.CurrentTurn = idx
			return &in.Order[idx]
		}
	}
	return nil
}

// Next advances to the following live entry and resets its per-turn display
// state. Returns nil without advancing when combat has ended.
func (in *Initiative) Next() *InitiativeEntry {
	if in.CombatEnded() || len(in.Order) == 0 {
		return nil
	}
	if in.CurrentTurn+1 >= len(in.Order) {
		in.Round++
	}
	in.CurrentTurn = (in.CurrentTurn + 1) % len(in.Order)
	entry := in.Current()
	if entry == nil {
		return nil
	}
	entry.Description = fmt.Sprintf("%s is up next.", entry.Name)
	entry.Movement = ""
	entry.Action = nil
	entry.BonusAction = nil
	entry.AudioKey = ""
	entry.ImageKey = ""
	return entry
}

// FindEntry resolves an actor id to its initiative entry, nil when absent.
func (in *Initiative) FindEntry(actorID string) *InitiativeEntry {
	for i := range in.Order {
		if in.Order[i].ActorID == actorID {
			return &in.Order[i]
		}
	}
	return nil
}

// AddAction upserts an action record on an entry. A populated slot is
// overwritten field by field; a blank incoming result inherits the slot's
// prior result so partial follow-up data keeps narrative continuity.
func (e *InitiativeEntry) AddAction(slot ActionSlot, record ActionRecord) {
	target := &e.Action
	if slot == SlotBonusAction {
		target = &e.BonusAction
	}
	if *target != nil && record.Result == "" {
		record.Result = (*target).Result
	}
	*target = &record
}
