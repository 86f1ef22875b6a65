// Package genre defines the closed set of genre profiles a world can be
// created with. A profile supplies the flavor vocabulary for a setting:
// per-kind display titles, the location-type enum used in AI narration
// schemas, and music cues per scene mode. Profiles are selected once at
// world creation and passed explicitly.
package genre

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/lorekeep/autogm/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// ErrUnknownGenre indicates a genre name with no registered profile.
var ErrUnknownGenre = apperrors.New(apperrors.CodeGenreUnknown, "unknown genre")

// Profile is one genre's vocabulary and flavor configuration.
type Profile struct {
	Name     string              `yaml:"name"`
	Display  string              `yaml:"display"`
	Titles   map[string]string   `yaml:"titles"`
	Music    map[string][]string `yaml:"music"`
	MapScale string              `yaml:"map_scale"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

var (
	loadOnce sync.Once
	loadErr  error
	byName   map[string]Profile
)

func load() {
	var file profileFile
	if err := yaml.Unmarshal(profilesYAML, &file); err != nil {
		loadErr = fmt.Errorf("parse genre profiles: %w", err)
		return
	}
	byName = make(map[string]Profile, len(file.Profiles))
	for _, profile := range file.Profiles {
		byName[profile.Name] = profile
	}
}

// ByName returns the profile registered under the given name.
func ByName(name string) (Profile, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return Profile{}, loadErr
	}
	profile, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, apperrors.WithMetadata(apperrors.CodeGenreUnknown,
			fmt.Sprintf("unknown genre %q", name),
			map[string]string{"Genre": name})
	}
	return profile, nil
}

// Names lists the registered profile names.
func Names() []string {
	loadOnce.Do(load)
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return names
}

// Title returns the display title for an entity kind name, falling back to
// "Object" for unknown kinds.
func (p Profile) Title(kind string) string {
	if title, ok := p.Titles[strings.ToLower(kind)]; ok {
		return title
	}
	return "Object"
}

// LocationEnum returns the genre-specific location-type vocabulary used by
// narration schemas, lowercased, ordered broad-to-narrow.
func (p Profile) LocationEnum() []string {
	return []string{
		strings.ToLower(p.Title("region")),
		strings.ToLower(p.Title("city")),
		strings.ToLower(p.Title("district")),
		strings.ToLower(p.Title("location")),
	}
}

// LocationKind maps a genre location enum value back to its canonical kind
// name. Unknown values default to "location".
func (p Profile) LocationKind(value string) string {
	kinds := []string{"region", "city", "district", "location"}
	for i, title := range p.LocationEnum() {
		if strings.EqualFold(value, title) {
			return kinds[i]
		}
	}
	return "location"
}

// MusicCues returns the music cue list for a scene mode, falling back to the
// social cue list when a mode has no dedicated cues.
func (p Profile) MusicCues(sceneMode string) []string {
	if cues, ok := p.Music[strings.ToLower(sceneMode)]; ok && len(cues) > 0 {
		return cues
	}
	return p.Music["social"]
}

// MapPrompt renders an image-generation brief for a place entity of the
// given kind.
func (p Profile) MapPrompt(kind, name, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a top-down navigable map of a %s suitable for a %s tabletop RPG.\n", p.Title(kind), p.Display)
	fmt.Fprintf(&b, "- MAP TYPE: directly overhead, top-down\n- SCALE: %s\n", p.MapScale)
	if name != "" {
		fmt.Fprintf(&b, "- NAME: %s\n", name)
	}
	if description != "" {
		fmt.Fprintf(&b, "- DESCRIPTION: %s\n", description)
	}
	b.WriteString("!!IMPORTANT!!: DIRECTLY OVERHEAD TOP DOWN VIEW, NO TEXT, NO CREATURES, NO CHARACTERS\n")
	return b.String()
}
