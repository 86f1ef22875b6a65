package genre

import (
	"errors"
	"testing"
)

func TestByNameKnownProfiles(t *testing.T) {
	for _, name := range []string{"fantasy", "scifi", "horror", "western", "hardboiled", "postapocalyptic", "historical"} {
		profile, err := ByName(name)
		if err != nil {
			t.Fatalf("profile %s: %v", name, err)
		}
		if profile.Name != name {
			t.Fatalf("expected profile name %s, got %s", name, profile.Name)
		}
		if len(profile.Titles) == 0 {
			t.Fatalf("profile %s has no titles", name)
		}
	}
}

func TestByNameUnknownGenre(t *testing.T) {
	_, err := ByName("space-opera")
	if !errors.Is(err, ErrUnknownGenre) {
		t.Fatalf("expected ErrUnknownGenre, got %v", err)
	}
}

func TestByNameNormalizesInput(t *testing.T) {
	profile, err := ByName("  Fantasy ")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if profile.Name != "fantasy" {
		t.Fatalf("expected fantasy, got %s", profile.Name)
	}
}

func TestLocationEnumVariesByGenre(t *testing.T) {
	scifi, err := ByName("scifi")
	if err != nil {
		t.Fatalf("scifi: %v", err)
	}
	got := scifi.LocationEnum()
	want := []string{"star-system", "planet", "outpost", "location"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLocationKindReversesEnum(t *testing.T) {
	scifi, err := ByName("scifi")
	if err != nil {
		t.Fatalf("scifi: %v", err)
	}
	cases := []struct {
		value string
		want  string
	}{
		{"star-system", "region"},
		{"Planet", "city"},
		{"outpost", "district"},
		{"location", "location"},
		{"nebula", "location"},
	}
	for _, tc := range cases {
		if got := scifi.LocationKind(tc.value); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestMusicCuesFallBackToSocial(t *testing.T) {
	fantasy, err := ByName("fantasy")
	if err != nil {
		t.Fatalf("fantasy: %v", err)
	}
	cues := fantasy.MusicCues("no-such-mode")
	if len(cues) == 0 || cues[0] != "themesong" {
		t.Fatalf("expected social fallback, got %v", cues)
	}
}

func TestTitleFallsBackToObject(t *testing.T) {
	fantasy, err := ByName("fantasy")
	if err != nil {
		t.Fatalf("fantasy: %v", err)
	}
	if got := fantasy.Title("starship"); got != "Object" {
		t.Fatalf("expected Object fallback, got %s", got)
	}
}
