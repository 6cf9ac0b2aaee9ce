// Package external pushes outgoing relay traffic to partner channels over a
// plain outbound webhook. The partner side acks with its own message id so
// edits can be propagated later.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// Client posts relay events to a partner endpoint.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

func New(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type outboundEvent struct {
	Event     string `json:"event"` // "message" or "edit"
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Text      string `json:"text"`
}

type outboundAck struct {
	MessageID string `json:"message_id"`
}

// Send posts a message event and returns the partner's message id.
func (c *Client) Send(ctx context.Context, req relay.SendRequest) (string, error) {
	text := req.Text
	if req.Kind != update.KindText {
		text = req.Caption
		if text == "" {
			text = fmt.Sprintf("[%s attachment]", req.Kind)
		}
	}
	ack, err := c.post(ctx, outboundEvent{
		Event:  "message",
		ChatID: req.ChatID,
		Kind:   string(req.Kind),
		Text:   text,
	})
	if err != nil {
		return "", err
	}
	return ack.MessageID, nil
}

// EditText posts an edit event for a previously delivered message.
func (c *Client) EditText(ctx context.Context, chatID, messageID, text string) error {
	_, err := c.post(ctx, outboundEvent{
		Event:     "edit",
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	return err
}

func (c *Client) post(ctx context.Context, ev outboundEvent) (*outboundAck, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("external channel endpoint not configured")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("external %s: %w", ev.Event, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("external %s: %w", ev.Event, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("external %s: %w", ev.Event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("external %s: status %d", ev.Event, resp.StatusCode)
	}

	var ack outboundAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("external %s: decode ack: %w", ev.Event, err)
	}
	return &ack, nil
}
