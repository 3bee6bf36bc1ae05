// Package llm implements a client for an OpenAI-compatible hosted
// completion API. A single call shape (system instruction + user content
// in, free text out) serves classification, rewriting, retrieval-plan
// generation, and final answer synthesis; each purpose is a different
// prompt, not a different code path.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout  = 120 * time.Second
	completionsPath = "/chat/completions"
	embeddingsPath  = "/embeddings"
)

// CompletionRequest is one blocking completion call. Zero-value sampling
// parameters are sent as-is; the provider treats 0 as a meaningful value
// for temperature and penalties.
type CompletionRequest struct {
	System           string
	User             string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// CompletionProvider is the completion gateway contract. Implemented by
// Client and mocked in assistant tests.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Embed(ctx context.Context, input string) ([]float32, error)
}

// Config holds provider connection settings.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string // e.g. https://api.openai.com/v1
}

// Client is an HTTP client for the completion and embeddings endpoints.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
}

var _ CompletionProvider = (*Client)(nil)

// NewClient creates a completion API client. A missing model name is a
// hard configuration failure: the assistant cannot run without it.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("completion model is not configured (OPENAI_MODEL)")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	return &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionPayload struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one system+user prompt pair and returns the trimmed
// response text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload := completionPayload{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}

	var resp completionResponse
	if err := c.post(ctx, completionsPath, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("completion provider error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion provider returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type embeddingPayload struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed returns the embedding vector for the given input text.
func (c *Client) Embed(ctx context.Context, input string) ([]float32, error) {
	payload := embeddingPayload{Model: c.embeddingModel, Input: input}

	var resp embeddingResponse
	if err := c.post(ctx, embeddingsPath, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("embedding provider error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding provider returned no data")
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request with bearer auth and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
