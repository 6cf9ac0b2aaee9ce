package update

import (
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// VKEvent is the VK Callback API envelope. Only the message events are
// relayed; everything else surfaces as EventUnknown.
type VKEvent struct {
	Type   string `json:"type"`
	Secret string `json:"secret,omitempty"`
	Object struct {
		Message vkMessage `json:"message"`
	} `json:"object"`
}

type vkMessage struct {
	ID     int64  `json:"id"`
	PeerID int64  `json:"peer_id"`
	FromID int64  `json:"from_id"`
	Text   string `json:"text"`
}

// VKConfirmation is the event type VK sends while verifying a callback
// endpoint; the server answers it with the configured confirmation string.
const VKConfirmation = "confirmation"

// FromVK normalizes a VK Callback API payload. VK traffic is always a direct
// conversation with the end user, so Platform and Source are fixed here.
func FromVK(body []byte) (*Update, error) {
	var ev VKEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("vk payload: %w", ErrMalformedPayload)
	}

	u := &Update{
		Platform: store.PlatformVK,
		Source:   SourceDirect,
	}

	switch ev.Type {
	case "message_new":
		u.Event = EventMessage
	case "message_edit":
		u.Event = EventEditedMessage
	default:
		u.Event = EventUnknown
		return u, nil
	}

	msg := ev.Object.Message
	if msg.PeerID == 0 {
		return nil, fmt.Errorf("vk %s without peer_id: %w", ev.Type, ErrMalformedPayload)
	}

	u.ChatID = fmt.Sprintf("%d", msg.PeerID)
	u.MessageID = fmt.Sprintf("%d", msg.ID)
	u.Text = msg.Text
	u.Payload = Payload{Kind: KindText, Text: msg.Text}
	return u, nil
}
