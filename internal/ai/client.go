// Package ai calls an external answer service for intranet questions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoAPIKey is returned when a company has no answer-service key
// configured.
var ErrNoAPIKey = errors.New("no api key configured")

// Client talks to the answer service over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the given endpoint. Every request is
// bounded by timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type askRequest struct {
	Question string `json:"question"`
	Scope    string `json:"scope"`
	Context  string `json:"context,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask sends a question to the answer service using the company's API key.
func (c *Client) Ask(ctx context.Context, apiKey, question, scope, scopeContext string) (string, error) {
	if apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(askRequest{
		Question: question,
		Scope:    scope,
		Context:  scopeContext,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call answer service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("answer service returned %d: %s", resp.StatusCode, payload)
	}

	var ar askResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return ar.Answer, nil
}
