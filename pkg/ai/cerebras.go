package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultCerebrasURL = "https://api.cerebras.ai/v1/chat/completions"

// CerebrasService implements TextGenerator over the OpenAI-compatible chat completions API
type CerebrasService struct {
	apiKey   string
	url      string
	getModel func() string
	client   *http.Client
}

func NewCerebrasService(apiKey, model string) *CerebrasService {
	if model == "" {
		model = "llama3.1-8b"
	}
	return NewCerebrasServiceWithGetters(apiKey, DefaultCerebrasURL, func() string { return model })
}

// NewCerebrasServiceWithGetters reads the model on every call so runtime settings apply immediately
func NewCerebrasServiceWithGetters(apiKey, url string, getModel func() string) *CerebrasService {
	if url == "" {
		url = DefaultCerebrasURL
	}
	return &CerebrasService{
		apiKey:   apiKey,
		url:      url,
		getModel: getModel,
		client:   &http.Client{},
	}
}

func (c *CerebrasService) Name() string { return string(ProviderCerebras) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *CerebrasService) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("CEREBRAS_API_KEY not configured")
	}

	payload := map[string]interface{}{
		"model": c.getModel(),
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		"temperature": 0.7,
		"max_tokens":  500,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cerebras request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cerebras API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("cerebras returned no content")
	}
	return result.Choices[0].Message.Content, nil
}
