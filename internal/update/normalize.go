package update

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
)

// AIEditTrigger is the token carried by staff-issued AI edit instructions.
// A message containing it routes to the AI edit hook, never the relay.
const AIEditTrigger = "ai_message_edit_"

// AIDraftPrefix heads every AI draft the answer hook posts into a topic.
// Drafts are relay artifacts and must not be mirrored back to the user.
const AIDraftPrefix = "\U0001F916 AI draft"

// FromTelegram normalizes a Telegram Bot API update. Platform is left unset:
// traffic in the staff supergroup may belong to any platform, and resolving
// that requires the routing table, which normalization must not touch.
func FromTelegram(raw telego.Update) (*Update, error) {
	msg := raw.Message
	event := EventMessage
	if msg == nil && raw.EditedMessage != nil {
		msg = raw.EditedMessage
		event = EventEditedMessage
	}
	if msg == nil {
		// Callback queries, member updates and future API shapes land here.
		return &Update{Event: EventUnknown}, nil
	}
	if msg.Chat.ID == 0 {
		return nil, fmt.Errorf("telegram update %d has no chat: %w", raw.UpdateID, ErrMalformedPayload)
	}

	u := &Update{
		Event:     event,
		ChatID:    fmt.Sprintf("%d", msg.Chat.ID),
		MessageID: fmt.Sprintf("%d", msg.MessageID),
		Text:      messageText(msg),
		Payload:   classifyPayload(msg),
	}

	switch {
	case msg.Chat.Type == "private":
		u.Source = SourceDirect
	case msg.Chat.Type == "supergroup" && msg.Chat.IsForum:
		u.Source = SourceThreadedGroup
		// In non-forum groups MessageThreadID is reply context, not a topic.
		u.ThreadID = msg.MessageThreadID
	default:
		u.Source = SourceOther
	}

	if from := msg.From; from != nil {
		u.FromBot = from.IsBot
		u.SenderName = strings.TrimSpace(from.FirstName + " " + from.LastName)
		if u.SenderName == "" && from.Username != "" {
			u.SenderName = "@" + from.Username
		}
	}

	u.Flags = Flags{
		PinnedNotice: msg.PinnedMessage != nil,
		TopicEdited:  msg.ForumTopicEdited != nil,
		AITech:       isAITech(u.Text),
	}

	return u, nil
}

func isAITech(text string) bool {
	return strings.HasPrefix(text, AIDraftPrefix) || strings.Contains(text, AIEditTrigger)
}

func messageText(msg *telego.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// classifyPayload maps a Telegram message onto the platform-neutral payload
// variants the relay knows how to rebuild on the other side.
func classifyPayload(msg *telego.Message) Payload {
	switch {
	case len(msg.Photo) > 0:
		// Sizes are ordered ascending; the last one is the original.
		return Payload{Kind: KindPhoto, FileID: msg.Photo[len(msg.Photo)-1].FileID, Caption: msg.Caption}
	case msg.Document != nil:
		return Payload{Kind: KindDocument, FileID: msg.Document.FileID, Caption: msg.Caption}
	case msg.Location != nil:
		return Payload{Kind: KindLocation, Latitude: msg.Location.Latitude, Longitude: msg.Location.Longitude}
	case msg.Voice != nil:
		return Payload{Kind: KindVoice, FileID: msg.Voice.FileID, Caption: msg.Caption}
	case msg.Sticker != nil:
		return Payload{Kind: KindSticker, FileID: msg.Sticker.FileID}
	case msg.VideoNote != nil:
		return Payload{Kind: KindVideoNote, FileID: msg.VideoNote.FileID}
	case msg.Contact != nil:
		name := strings.TrimSpace(msg.Contact.FirstName + " " + msg.Contact.LastName)
		return Payload{Kind: KindContact, ContactName: name, ContactPhone: msg.Contact.PhoneNumber}
	default:
		return Payload{Kind: KindText, Text: msg.Text}
	}
}
