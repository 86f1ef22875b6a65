package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lorekeep/autogm/internal/ai"
)

// ScriptedAI is an ai.Client whose structured and text responses are
// scripted per function name. It records every call for assertions.
type ScriptedAI struct {
	mu sync.Mutex

	// JSONResponses maps function name to queued raw responses, consumed
	// in order. The last response repeats once the queue is drained.
	JSONResponses map[string][]string
	// TextResponse is returned by every GenerateText call.
	TextResponse string
	// Err, when set, fails GenerateJSON and GenerateText calls.
	Err error
	// MediaErr, when set, fails image/audio generation.
	MediaErr error
	// AttachErr, when set, fails AttachFile.
	AttachErr error

	JSONCalls   []string
	TextPrompts []string
	ImageCalls  []string
	AudioCalls  []string
	Attached    []string
	Cleared     int
}

// GenerateJSON returns the next scripted response for the function name,
// validated against the schema before returning.
func (c *ScriptedAI) GenerateJSON(_ context.Context, prompt string, fn ai.Function) (json.RawMessage, error) {
	c.mu.Lock()
	c.JSONCalls = append(c.JSONCalls, fn.Name)
	queue := c.JSONResponses[fn.Name]
	var response string
	switch {
	case len(queue) == 0:
		c.mu.Unlock()
		if c.Err != nil {
			return nil, c.Err
		}
		return nil, fmt.Errorf("no scripted response for %s", fn.Name)
	case len(queue) == 1:
		response = queue[0]
	default:
		response = queue[0]
		c.JSONResponses[fn.Name] = queue[1:]
	}
	err := c.Err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	payload := json.RawMessage(response)
	if err := fn.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *ScriptedAI) GenerateText(_ context.Context, prompt, _ string) (string, error) {
	c.mu.Lock()
	c.TextPrompts = append(c.TextPrompts, prompt)
	err := c.Err
	response := c.TextResponse
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	if response == "" {
		response = "scripted summary"
	}
	return response, nil
}

func (c *ScriptedAI) GenerateImage(_ context.Context, prompt string, _ []string) ([]byte, error) {
	c.mu.Lock()
	c.ImageCalls = append(c.ImageCalls, prompt)
	err := c.MediaErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte("image"), nil
}

func (c *ScriptedAI) GenerateAudio(_ context.Context, text, _ string) ([]byte, error) {
	c.mu.Lock()
	c.AudioCalls = append(c.AudioCalls, text)
	err := c.MediaErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte("audio"), nil
}

func (c *ScriptedAI) AttachFile(_ context.Context, _ []byte, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AttachErr != nil {
		return c.AttachErr
	}
	c.Attached = append(c.Attached, filename)
	return nil
}

func (c *ScriptedAI) ClearFiles(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Cleared++
	return nil
}
