package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	SpeechModel string
	HTTPClient  *http.Client
}

type openAIClient struct {
	cfg OpenAIConfig

	mu      sync.Mutex
	fileIDs []string
}

// NewOpenAIClient builds a Client backed by the OpenAI HTTP API.
func NewOpenAIClient(cfg OpenAIConfig) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o"
	}
	if strings.TrimSpace(cfg.ImageModel) == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	if strings.TrimSpace(cfg.SpeechModel) == "" {
		cfg.SpeechModel = "gpt-4o-mini-tts"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &openAIClient{cfg: cfg}, nil
}

func (c *openAIClient) GenerateJSON(ctx context.Context, prompt string, fn Function) (json.RawMessage, error) {
	schemaJSON, err := fn.SchemaJSON()
	if err != nil {
		return nil, err
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"input": prompt,
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   fn.Name,
				"schema": json.RawMessage(schemaJSON),
				"strict": true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal responses request: %w", err)
	}

	outputText, err := c.responses(ctx, requestBody)
	if err != nil {
		return nil, err
	}

	payload := json.RawMessage(StripCodeFence(outputText))
	if err := fn.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *openAIClient) GenerateText(ctx context.Context, prompt, instructions string) (string, error) {
	body := map[string]any{
		"model": c.cfg.Model,
		"input": prompt,
	}
	if strings.TrimSpace(instructions) != "" {
		body["instructions"] = instructions
	}
	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal responses request: %w", err)
	}
	return c.responses(ctx, requestBody)
}

// responses posts to the Responses API and extracts the output text.
func (c *openAIClient) responses(ctx context.Context, requestBody []byte) (string, error) {
	res, err := c.post(ctx, "/responses", "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return "", err
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode responses payload: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("%w: response missing output text", ErrGenerationFailed)
	}
	return outputText, nil
}

func (c *openAIClient) GenerateImage(ctx context.Context, prompt string, tags []string) ([]byte, error) {
	fullPrompt := prompt
	if len(tags) > 0 {
		fullPrompt = fmt.Sprintf("%s\nStyle: %s", prompt, strings.Join(tags, ", "))
	}
	requestBody, err := json.Marshal(map[string]any{
		"model":  c.cfg.ImageModel,
		"prompt": fullPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	res, err := c.post(ctx, "/images/generations", "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: image response missing data", ErrGenerationFailed)
	}
	image, err := base64.StdEncoding.DecodeString(payload.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return image, nil
}

func (c *openAIClient) GenerateAudio(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(voice) == "" {
		voice = "alloy"
	}
	requestBody, err := json.Marshal(map[string]any{
		"model": c.cfg.SpeechModel,
		"input": text,
		"voice": voice,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	res, err := c.post(ctx, "/audio/speech", "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech payload: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: speech response empty", ErrGenerationFailed)
	}
	return audio, nil
}

func (c *openAIClient) AttachFile(ctx context.Context, data []byte, filename string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "assistants"); err != nil {
		return fmt.Errorf("write purpose field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	res, err := c.post(ctx, "/files", writer.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAttachFailed, err)
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return fmt.Errorf("%w: %v", ErrAttachFailed, err)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode file payload: %w", err)
	}
	if payload.ID != "" {
		c.mu.Lock()
		c.fileIDs = append(c.fileIDs, payload.ID)
		c.mu.Unlock()
	}
	return nil
}

func (c *openAIClient) ClearFiles(ctx context.Context) error {
	c.mu.Lock()
	ids := c.fileIDs
	c.fileIDs = nil
	c.mu.Unlock()

	for _, id := range ids {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+"/files/"+id, nil)
		if err != nil {
			return fmt.Errorf("build delete request: %w", err)
		}
		c.authorize(req)
		res, err := c.cfg.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("delete file %s: %w", id, err)
		}
		res.Body.Close()
	}
	return nil
}

func (c *openAIClient) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrGenerationFailed, err)
	}
	return res, nil
}

// authorize sets the bearer header. Credential material is sent only as an
// Authorization header and is never echoed in errors or logs.
func (c *openAIClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return fmt.Errorf("read error body: %w", err)
	}
	return fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, res.StatusCode, strings.TrimSpace(string(body)))
}
