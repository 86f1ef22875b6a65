package world

import (
	"fmt"
	"strings"
	"time"

	"github.com/lorekeep/autogm/internal/platform/id"
)

// World is the root of one campaign setting: every entity, party, and scene
// belongs to exactly one world.
type World struct {
	ID          string
	Name        string
	Genre       string // genre profile name, fixed at creation
	CurrentDate string // in-fiction calendar date, free-form text
	Description string
	Backstory   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateWorldInput describes the metadata needed to create a world.
type CreateWorldInput struct {
	Name        string
	Genre       string
	CurrentDate string
	Description string
}

// CreateWorld creates a new world with a generated ID and timestamps.
func CreateWorld(input CreateWorldInput, now func() time.Time, idGenerator func() (string, error)) (World, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return World{}, ErrEmptyName
	}

	worldID, err := idGenerator()
	if err != nil {
		return World{}, fmt.Errorf("generate world id: %w", err)
	}

	createdAt := now().UTC()
	return World{
		ID:          worldID,
		Name:        input.Name,
		Genre:       strings.ToLower(strings.TrimSpace(input.Genre)),
		CurrentDate: strings.TrimSpace(input.CurrentDate),
		Description: input.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}
