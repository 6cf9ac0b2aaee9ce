// Package vk delivers outgoing relay traffic to VK users through the VK
// messages API. Text-first: media payloads degrade to a caption plus a
// placeholder, since re-uploading attachments across platforms is out of
// scope for the relay.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

const (
	defaultAPIBase = "https://api.vk.com/method"
	apiVersion     = "5.199"
	maxTextLength  = 4096
)

// Client talks to the VK messages API.
type Client struct {
	token   string
	apiBase string
	client  *http.Client
}

func New(token, apiBase string) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		token:   token,
		apiBase: apiBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	Response json.RawMessage `json:"response"`
	Error    *apiError       `json:"error"`
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// Send delivers one request to a VK peer and returns the VK message id.
func (c *Client) Send(ctx context.Context, req relay.SendRequest) (string, error) {
	text := renderText(req)
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}

	params := url.Values{}
	params.Set("peer_id", req.ChatID)
	params.Set("message", text)
	params.Set("random_id", strconv.FormatInt(rand.Int63(), 10))

	var messageID int64
	if err := c.call(ctx, "messages.send", params, &messageID); err != nil {
		return "", err
	}
	return strconv.FormatInt(messageID, 10), nil
}

// EditText rewrites a previously sent VK message.
func (c *Client) EditText(ctx context.Context, chatID, messageID, text string) error {
	params := url.Values{}
	params.Set("peer_id", chatID)
	params.Set("message_id", messageID)
	params.Set("message", text)

	var ok int
	return c.call(ctx, "messages.edit", params, &ok)
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", c.token)
	params.Set("v", apiVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("vk %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vk %s: %w", method, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("vk %s: decode response: %w", method, err)
	}
	if body.Error != nil {
		return fmt.Errorf("vk %s: api error %d: %s", method, body.Error.Code, body.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(body.Response, out); err != nil {
			return fmt.Errorf("vk %s: decode result: %w", method, err)
		}
	}
	return nil
}

// renderText flattens a send request into VK message text.
func renderText(req relay.SendRequest) string {
	switch req.Kind {
	case update.KindText:
		return req.Text
	case update.KindLocation:
		return fmt.Sprintf("Location: https://maps.google.com/?q=%f,%f", req.Latitude, req.Longitude)
	case update.KindContact:
		return fmt.Sprintf("Contact: %s %s", req.ContactName, req.ContactPhone)
	default:
		slog.Debug("vk: media payload degraded to text", "kind", req.Kind)
		if req.Caption != "" {
			return fmt.Sprintf("[%s] %s", req.Kind, req.Caption)
		}
		return fmt.Sprintf("[%s attachment — see the original chat]", req.Kind)
	}
}
