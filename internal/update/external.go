package update

import (
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// externalEvent is the shape partner channels post to /webhook/external.
// Deliberately minimal: external integrations only speak text.
type externalEvent struct {
	Event     string `json:"event"` // "message" or "edited_message"
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text"`
}

// FromExternal normalizes a generic external-channel webhook payload.
func FromExternal(body []byte) (*Update, error) {
	var ev externalEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("external payload: %w", ErrMalformedPayload)
	}

	u := &Update{
		Platform:   store.PlatformExternal,
		Source:     SourceDirect,
		SenderName: ev.Sender,
	}

	switch ev.Event {
	case "message":
		u.Event = EventMessage
	case "edited_message":
		u.Event = EventEditedMessage
	default:
		u.Event = EventUnknown
		return u, nil
	}

	if ev.ChatID == "" || ev.MessageID == "" {
		return nil, fmt.Errorf("external %s without chat_id/message_id: %w", ev.Event, ErrMalformedPayload)
	}

	u.ChatID = ev.ChatID
	u.MessageID = ev.MessageID
	u.Text = ev.Text
	u.Payload = Payload{Kind: KindText, Text: ev.Text}
	return u, nil
}
