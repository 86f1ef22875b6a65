package world

import (
	"encoding/json"
	"sort"
	"strings"
)

// Ref is a lightweight handle to a world entity, carried inside association
// indexes and scene object lists so that graph edges never force a full
// entity load.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Associations is a typed multi-relation index: per-kind ordered sets of
// entity references, maintained incrementally. Views are derived from the
// index instead of re-filtering a flat list on every access.
type Associations struct {
	byKind map[Kind][]Ref
}

// Add inserts a reference, keeping per-kind order stable. It reports whether
// the reference was newly added; adding an existing reference is a no-op.
func (a *Associations) Add(ref Ref) bool {
	if ref.ID == "" || ref.Kind == KindUnspecified {
		return false
	}
	if a.Contains(ref) {
		return false
	}
	if a.byKind == nil {
		a.byKind = make(map[Kind][]Ref)
	}
	a.byKind[ref.Kind] = append(a.byKind[ref.Kind], ref)
	return true
}

// Remove deletes a reference. It reports whether the reference was present.
func (a *Associations) Remove(ref Ref) bool {
	refs := a.byKind[ref.Kind]
	for i, existing := range refs {
		if existing.ID == ref.ID {
			a.byKind[ref.Kind] = append(refs[:i:i], refs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the reference is indexed.
func (a *Associations) Contains(ref Ref) bool {
	for _, existing := range a.byKind[ref.Kind] {
		if existing.ID == ref.ID {
			return true
		}
	}
	return false
}

// OfKind returns the references of one kind in insertion order.
func (a *Associations) OfKind(kind Kind) []Ref {
	refs := a.byKind[kind]
	if len(refs) == 0 {
		return nil
	}
	out := make([]Ref, len(refs))
	copy(out, refs)
	return out
}

// All returns every reference sorted by (kind rank, name). The ordering is
// stable so downstream prompt construction is deterministic.
func (a *Associations) All() []Ref {
	var out []Ref
	for _, kind := range Kinds() {
		refs := a.OfKind(kind)
		sort.SliceStable(refs, func(i, j int) bool {
			return strings.ToLower(refs[i].Name) < strings.ToLower(refs[j].Name)
		})
		out = append(out, refs...)
	}
	return out
}

// Len returns the number of indexed references.
func (a *Associations) Len() int {
	total := 0
	for _, refs := range a.byKind {
		total += len(refs)
	}
	return total
}

// MarshalJSON encodes the index as a sorted flat list.
func (a Associations) MarshalJSON() ([]byte, error) {
	refs := a.All()
	if refs == nil {
		refs = []Ref{}
	}
	return json.Marshal(refs)
}

// UnmarshalJSON rebuilds the index from a flat list.
func (a *Associations) UnmarshalJSON(data []byte) error {
	var refs []Ref
	if err := json.Unmarshal(data, &refs); err != nil {
		return err
	}
	a.byKind = nil
	for _, ref := range refs {
		a.Add(ref)
	}
	return nil
}
