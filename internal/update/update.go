// Package update normalizes raw platform payloads into one canonical event
// shape. Normalization is a pure transform: no lookups, no sends.
package update

import (
	"errors"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// ErrMalformedPayload means the raw payload cannot be normalized. The event
// is aborted; the host process keeps serving.
var ErrMalformedPayload = errors.New("malformed payload")

// SourceKind classifies where an event originated.
type SourceKind string

const (
	// SourceDirect is a one-on-one chat with an end user.
	SourceDirect SourceKind = "direct"
	// SourceThreadedGroup is the staff supergroup with forum topics.
	SourceThreadedGroup SourceKind = "threaded_group"
	// SourceOther covers basic groups, channels and anything else.
	SourceOther SourceKind = "other"
)

// EventKind classifies the platform event.
type EventKind string

const (
	EventMessage       EventKind = "message"
	EventEditedMessage EventKind = "edited_message"
	// EventUnknown marks payload shapes this relay does not speak. The
	// dispatcher reports these as protocol drift instead of guessing.
	EventUnknown EventKind = ""
)

// PayloadKind tags the content variant of a message. The relay dispatches
// parameter construction on this tag; everything else is shared.
type PayloadKind string

const (
	KindText      PayloadKind = "text"
	KindPhoto     PayloadKind = "photo"
	KindDocument  PayloadKind = "document"
	KindLocation  PayloadKind = "location"
	KindVoice     PayloadKind = "voice"
	KindSticker   PayloadKind = "sticker"
	KindVideoNote PayloadKind = "video_note"
	KindContact   PayloadKind = "contact"
)

// Payload is the content of a message in platform-neutral terms. FileID is
// the originating platform's file handle for media kinds.
type Payload struct {
	Kind         PayloadKind
	Text         string
	Caption      string
	FileID       string
	Latitude     float64
	Longitude    float64
	ContactName  string
	ContactPhone string
}

// Flags are notices derived during normalization.
type Flags struct {
	// PinnedNotice is a "message was pinned" service notice.
	PinnedNotice bool
	// TopicEdited is a "topic title edited" service notice.
	TopicEdited bool
	// AITech marks a message that is itself an artifact of the AI hook and
	// must not travel through the ordinary relay.
	AITech bool
}

// Update is the canonical inbound event. Created fresh per payload,
// immutable after normalization.
type Update struct {
	// Platform is set by normalizers that know it (VK, external webhooks).
	// Telegram traffic leaves it empty; the dispatcher resolves it.
	Platform store.Platform

	Source     SourceKind
	Event      EventKind
	ChatID     string
	ThreadID   int
	MessageID  string
	SenderName string
	FromBot    bool
	Text       string
	Payload    Payload
	Flags      Flags
}

// InThread reports whether the event carries a usable topic id.
func (u *Update) InThread() bool {
	return u.ThreadID > 0
}
