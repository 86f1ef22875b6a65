// Package ai defines the generative client contract the session engine
// depends on, a JSON-schema function-call model with response validation,
// and an OpenAI HTTP adapter implementing the contract.
package ai

import (
	"context"
	"encoding/json"

	apperrors "github.com/lorekeep/autogm/internal/errors"
)

// ErrGenerationFailed indicates the provider call failed or returned an
// unusable payload.
var ErrGenerationFailed = apperrors.New(apperrors.CodeAIGenerationFailed, "ai generation failed")

// ErrInvalidResponse indicates a structured response that failed schema
// validation. Callers may retry the generation.
var ErrInvalidResponse = apperrors.New(apperrors.CodeAIInvalidResponse, "ai response failed schema validation")

// ErrAttachFailed indicates a grounding file could not be attached.
var ErrAttachFailed = apperrors.New(apperrors.CodeAIAttachFailed, "ai file attach failed")

// Client is the generative surface the session engine calls. Implementations
// must be safe for concurrent use.
type Client interface {
	// GenerateJSON asks the model to respond with a JSON document conforming
	// to the function's parameter schema. The returned payload has already
	// been validated against the schema.
	GenerateJSON(ctx context.Context, prompt string, fn Function) (json.RawMessage, error)

	// GenerateText produces free-form prose.
	GenerateText(ctx context.Context, prompt, instructions string) (string, error)

	// GenerateImage produces image bytes for the prompt. Tags bias style.
	GenerateImage(ctx context.Context, prompt string, tags []string) ([]byte, error)

	// GenerateAudio renders text to speech with the given voice.
	GenerateAudio(ctx context.Context, text, voice string) ([]byte, error)

	// AttachFile uploads a grounding document the model can consult.
	AttachFile(ctx context.Context, data []byte, filename string) error

	// ClearFiles removes previously attached grounding documents.
	ClearFiles(ctx context.Context) error
}
