// Package vector implements a write-only client for a hosted vector
// index. Synced account and transaction records are embedded and upserted
// into namespaced collections keyed by their external ids; no read path
// is exercised by the rest of the system.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	upsertPath     = "/vectors/upsert"
)

// Vector is one embedded record.
type Vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Upserter is the vector index contract. Implemented by Client and mocked
// in sync tests.
type Upserter interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
}

// Config holds index connection settings.
type Config struct {
	APIKey    string
	IndexHost string // index-specific host URL
}

// Client is an HTTP client for the vector index upsert endpoint.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
}

var _ Upserter = (*Client)(nil)

// NewClient creates a vector index client.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		host:       cfg.IndexHost,
		apiKey:     cfg.APIKey,
	}
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Upsert writes the given vectors into the namespace. Records are keyed by
// their external ids, so repeated upserts are idempotent.
func (c *Client) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	payload, err := json.Marshal(upsertRequest{Vectors: vectors, Namespace: namespace})
	if err != nil {
		return fmt.Errorf("failed to encode upsert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+upsertPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vector index returned status %d", resp.StatusCode)
	}

	var result upsertResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode upsert response: %w", err)
	}
	return nil
}
