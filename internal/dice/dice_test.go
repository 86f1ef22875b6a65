package dice

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		formula  string
		want     Spec
		wantMode Mode
	}{
		{formula: "d20", want: Spec{Count: 1, Sides: 20}},
		{formula: "1d20", want: Spec{Count: 1, Sides: 20}},
		{formula: "2d6", want: Spec{Count: 2, Sides: 6}},
		{formula: "1d8+3", want: Spec{Count: 1, Sides: 8, Modifier: 3}},
		{formula: "4d6-2", want: Spec{Count: 4, Sides: 6, Modifier: -2}},
		{formula: " 1d20 + 5 ", want: Spec{Count: 1, Sides: 20, Modifier: 5}},
		{formula: "1D12", want: Spec{Count: 1, Sides: 12}},
		{formula: "1d20 advantage", want: Spec{Count: 1, Sides: 20}, wantMode: ModeAdvantage},
		{formula: "3d6+2 disadvantage", want: Spec{Count: 3, Sides: 6, Modifier: 2}, wantMode: ModeDisadvantage},
		{formula: "1d20 adv", want: Spec{Count: 1, Sides: 20}, wantMode: ModeAdvantage},
		{formula: "1d20 DIS", want: Spec{Count: 1, Sides: 20}, wantMode: ModeDisadvantage},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, mode, err := Parse(tt.formula)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.formula, err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if mode != tt.wantMode {
				t.Fatalf("expected mode %v, got %v", tt.wantMode, mode)
			}
		})
	}
}

func TestParseRejectsMalformedFormulas(t *testing.T) {
	for _, formula := range []string{"", "d", "20", "roll a d20", "1d", "d20+", "advantage"} {
		t.Run(formula, func(t *testing.T) {
			_, _, err := Parse(formula)
			if !errors.Is(err, ErrInvalidFormula) {
				t.Fatalf("expected ErrInvalidFormula for %q, got %v", formula, err)
			}
		})
	}
}

func TestParseRejectsZeroSides(t *testing.T) {
	_, _, err := Parse("1d0")
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestRollIsDeterministic(t *testing.T) {
	spec := Spec{Count: 3, Sides: 6, Modifier: 2}

	first, err := Roll(spec, 42)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	second, err := Roll(spec, 42)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}

	if first.Total != second.Total {
		t.Fatalf("expected identical totals, got %d and %d", first.Total, second.Total)
	}
	for i := range first.Results {
		if first.Results[i] != second.Results[i] {
			t.Fatalf("result %d differs: %d vs %d", i, first.Results[i], second.Results[i])
		}
	}
}

func TestRollBounds(t *testing.T) {
	spec := Spec{Count: 2, Sides: 4, Modifier: 1}
	for seed := int64(0); seed < 50; seed++ {
		result, err := Roll(spec, seed)
		if err != nil {
			t.Fatalf("roll: %v", err)
		}
		if result.Total < 3 || result.Total > 9 {
			t.Fatalf("seed %d: total %d out of range [3,9]", seed, result.Total)
		}
		for _, value := range result.Results {
			if value < 1 || value > 4 {
				t.Fatalf("seed %d: die value %d out of range", seed, value)
			}
		}
	}
}

func TestRollModeAdvantageKeepsHigher(t *testing.T) {
	spec := Spec{Count: 1, Sides: 20}
	for seed := int64(0); seed < 20; seed++ {
		normal, _ := Roll(spec, seed)
		alternate, _ := Roll(spec, seed+1)
		higher := normal.Total
		if alternate.Total > higher {
			higher = alternate.Total
		}
		lower := normal.Total
		if alternate.Total < lower {
			lower = alternate.Total
		}

		adv, err := RollMode(spec, ModeAdvantage, seed)
		if err != nil {
			t.Fatalf("advantage roll: %v", err)
		}
		if adv.Total != higher {
			t.Fatalf("seed %d: expected advantage total %d, got %d", seed, higher, adv.Total)
		}

		dis, err := RollMode(spec, ModeDisadvantage, seed)
		if err != nil {
			t.Fatalf("disadvantage roll: %v", err)
		}
		if dis.Total != lower {
			t.Fatalf("seed %d: expected disadvantage total %d, got %d", seed, lower, dis.Total)
		}
	}
}

func TestRollFormula(t *testing.T) {
	result, err := RollFormula("2d6+1", 7)
	if err != nil {
		t.Fatalf("roll formula: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 dice, got %d", len(result.Results))
	}
	if result.Spec.Modifier != 1 {
		t.Fatalf("expected modifier 1, got %d", result.Spec.Modifier)
	}
}

func TestSpecString(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{spec: Spec{Count: 1, Sides: 20}, want: "1d20"},
		{spec: Spec{Count: 2, Sides: 6, Modifier: 3}, want: "2d6+3"},
		{spec: Spec{Count: 4, Sides: 8, Modifier: -1}, want: "4d8-1"},
	}
	for _, tt := range tests {
		if got := tt.spec.String(); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}
