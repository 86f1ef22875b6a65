// Package world models the persistent world object graph: the characters,
// creatures, items, places, factions, and vehicles that scenes reference and
// AI generations ground against.
package world

import "strings"

// Kind describes the category of a world entity. The declaration order is the
// canonical rank used when sorting mixed association lists, so prompt
// construction stays deterministic across repeated generations.
type Kind int

const (
	KindUnspecified Kind = iota
	KindCharacter
	KindCreature
	KindItem
	KindLocation
	KindDistrict
	KindCity
	KindRegion
	KindVehicle
	KindFaction
	KindEncounter
)

// Kinds lists every valid entity kind in rank order.
func Kinds() []Kind {
	return []Kind{
		KindCharacter,
		KindCreature,
		KindItem,
		KindLocation,
		KindDistrict,
		KindCity,
		KindRegion,
		KindVehicle,
		KindFaction,
		KindEncounter,
	}
}

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindCreature:
		return "creature"
	case KindItem:
		return "item"
	case KindLocation:
		return "location"
	case KindDistrict:
		return "district"
	case KindCity:
		return "city"
	case KindRegion:
		return "region"
	case KindVehicle:
		return "vehicle"
	case KindFaction:
		return "faction"
	case KindEncounter:
		return "encounter"
	default:
		return "unspecified"
	}
}

// ParseKind maps a kind name to its Kind value. Unknown names return
// KindUnspecified.
func ParseKind(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "character":
		return KindCharacter
	case "creature":
		return KindCreature
	case "item":
		return KindItem
	case "location":
		return KindLocation
	case "district":
		return KindDistrict
	case "city":
		return KindCity
	case "region":
		return KindRegion
	case "vehicle":
		return KindVehicle
	case "faction":
		return KindFaction
	case "encounter":
		return KindEncounter
	default:
		return KindUnspecified
	}
}
