// Package dice implements dice formula parsing and seeded rolling.
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/lorekeep/autogm/internal/errors"
)

// ErrInvalidFormula indicates a roll formula that could not be parsed.
var ErrInvalidFormula = apperrors.New(apperrors.CodeDiceInvalidFormula, "invalid dice formula")

// ErrInvalidSpec indicates a die specification with non-positive sides or count.
var ErrInvalidSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice must have positive sides and count")

// Mode selects how multiple rolls of the same formula are combined.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdvantage
	ModeDisadvantage
)

// Spec is a parsed dice formula: Count dice with Sides sides plus Modifier.
type Spec struct {
	Count    int
	Sides    int
	Modifier int
}

// Result captures the outcome of rolling a spec.
type Result struct {
	Spec    Spec
	Results []int
	Total   int
}

func (s Spec) String() string {
	switch {
	case s.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", s.Count, s.Sides, s.Modifier)
	case s.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", s.Count, s.Sides, s.Modifier)
	default:
		return fmt.Sprintf("%dd%d", s.Count, s.Sides)
	}
}

var formulaPattern = regexp.MustCompile(`^(\d*)[dD](\d+)\s*(?:([+-])\s*(\d+))?$`)

// Parse parses a dice formula such as "d20", "2d6", or "1d8+3", with an
// optional trailing "advantage" or "disadvantage" qualifier.
func Parse(formula string) (Spec, Mode, error) {
	trimmed := strings.TrimSpace(formula)
	mode := ModeNormal
	lower := strings.ToLower(trimmed)
	for _, qualifier := range []struct {
		suffix string
		mode   Mode
	}{
		{"disadvantage", ModeDisadvantage},
		{"advantage", ModeAdvantage},
		{"dis", ModeDisadvantage},
		{"adv", ModeAdvantage},
	} {
		if strings.HasSuffix(lower, qualifier.suffix) {
			mode = qualifier.mode
			trimmed = strings.TrimSpace(trimmed[:len(trimmed)-len(qualifier.suffix)])
			break
		}
	}

	match := formulaPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Spec{}, ModeNormal, apperrors.WithMetadata(apperrors.CodeDiceInvalidFormula,
			fmt.Sprintf("invalid dice formula %q", formula),
			map[string]string{"Formula": formula})
	}

	count := 1
	if match[1] != "" {
		parsed, err := strconv.Atoi(match[1])
		if err != nil {
			return Spec{}, ModeNormal, ErrInvalidFormula
		}
		count = parsed
	}
	sides, err := strconv.Atoi(match[2])
	if err != nil {
		return Spec{}, ModeNormal, ErrInvalidFormula
	}

	modifier := 0
	if match[4] != "" {
		parsed, err := strconv.Atoi(match[4])
		if err != nil {
			return Spec{}, ModeNormal, ErrInvalidFormula
		}
		if match[3] == "-" {
			parsed = -parsed
		}
		modifier = parsed
	}

	spec := Spec{Count: count, Sides: sides, Modifier: modifier}
	if spec.Count <= 0 || spec.Sides <= 0 {
		return Spec{}, ModeNormal, ErrInvalidSpec
	}
	return spec, mode, nil
}

// Roll rolls the spec once.
//
// Roll is deterministic with respect to seed: the same seed and spec always
// produce the same Result. The modifier is applied to the total, never to
// individual dice.
func Roll(spec Spec, seed int64) (Result, error) {
	if spec.Count <= 0 || spec.Sides <= 0 {
		return Result{}, ErrInvalidSpec
	}

	rng := rand.New(rand.NewSource(seed))
	results := make([]int, spec.Count)
	total := 0
	for i := 0; i < spec.Count; i++ {
		value := rng.Intn(spec.Sides) + 1
		results[i] = value
		total += value
	}

	return Result{
		Spec:    spec,
		Results: results,
		Total:   total + spec.Modifier,
	}, nil
}

// RollMode rolls the spec under the given mode. Advantage rolls the full
// formula twice and keeps the higher total; disadvantage keeps the lower.
func RollMode(spec Spec, mode Mode, seed int64) (Result, error) {
	first, err := Roll(spec, seed)
	if err != nil {
		return Result{}, err
	}
	if mode == ModeNormal {
		return first, nil
	}

	second, err := Roll(spec, seed+1)
	if err != nil {
		return Result{}, err
	}
	if mode == ModeAdvantage {
		if second.Total > first.Total {
			return second, nil
		}
		return first, nil
	}
	if second.Total < first.Total {
		return second, nil
	}
	return first, nil
}

// RollFormula parses and rolls a formula in one step, honoring any
// advantage or disadvantage qualifier it carries.
func RollFormula(formula string, seed int64) (Result, error) {
	spec, mode, err := Parse(formula)
	if err != nil {
		return Result{}, err
	}
	return RollMode(spec, mode, seed)
}
