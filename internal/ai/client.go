// Package ai is the HTTP client for the external answer-generation service
// used by the /ai_generate hook. The service owns prompting and history; the
// relay only ships the question and the conversation identity.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// Client implements hooks.Answerer against an HTTP endpoint.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type answerRequest struct {
	Platform string `json:"platform"`
	ChatID   string `json:"chat_id"`
	Prompt   string `json:"prompt,omitempty"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// Answer asks the service for a draft reply in the user's conversation.
func (c *Client) Answer(ctx context.Context, entry *store.RoutingEntry, prompt string) (string, error) {
	payload, err := json.Marshal(answerRequest{
		Platform: string(entry.Platform),
		ChatID:   entry.ChatID,
		Prompt:   prompt,
	})
	if err != nil {
		return "", fmt.Errorf("ai answer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai answer: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai answer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai answer: status %d", resp.StatusCode)
	}

	var out answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai answer: decode: %w", err)
	}
	if out.Answer == "" {
		return "", fmt.Errorf("ai answer: empty answer")
	}
	return out.Answer, nil
}
