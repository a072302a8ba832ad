package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InsightRequest is posted to the external text-generation endpoint.
type InsightRequest struct {
	Prompt string `json:"prompt"`
}

// InsightResponse is the endpoint's reply; only the text is used.
type InsightResponse struct {
	Texto string `json:"texto"`
}

// InsightClient calls the external summarizer behind a circuit breaker.
// Purely advisory: nothing it returns is persisted.
type InsightClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewInsightClient(url, apiKey string, cb *CircuitBreaker) *InsightClient {
	return &InsightClient{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cb:         cb,
	}
}

// Gerar sends the prompt and returns the generated text.
func (c *InsightClient) Gerar(ctx context.Context, prompt string) (string, error) {
	var texto string
	err := c.cb.Execute(ctx, func(ctx context.Context) error {
		t, err := c.post(ctx, prompt)
		texto = t
		return err
	})
	return texto, err
}

func (c *InsightClient) post(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(InsightRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("insights: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("insights: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("insights: endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("insights: endpoint returned %d", resp.StatusCode)
	}

	var result InsightResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return "", fmt.Errorf("insights: decode response: %w", err)
	}
	return result.Texto, nil
}
