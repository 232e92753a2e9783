package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"
)

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionClient talks to an OpenAI-compatible /chat/completions
// endpoint (Groq by default).
type ChatCompletionClient struct {
	APIKey     string
	URL        string
	Model      string
	HTTPClient *http.Client
}

func NewChatCompletionClient(apiKey, baseURL, model string, httpClient *http.Client) *ChatCompletionClient {
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	if model == "" {
		model = defaultGroqModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatCompletionClient{
		APIKey:     apiKey,
		URL:        strings.TrimRight(baseURL, "/") + "/chat/completions",
		Model:      model,
		HTTPClient: httpClient,
	}
}

func (c *ChatCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	requestData := ChatCompletionRequest{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: llmTemperature,
	}

	payload, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error %d: %s", ErrUpstreamUnavailable, resp.StatusCode, clip(string(body), 300))
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &responseData); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrUpstreamUnavailable, err)
	}
	if len(responseData.Choices) == 0 || strings.TrimSpace(responseData.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: unexpected response format", ErrUpstreamUnavailable)
	}
	return responseData.Choices[0].Message.Content, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
