package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals a routing miss. It is a defined outcome, not a failure:
// callers decide whether to fall back, create, or discard.
var ErrNotFound = errors.New("not found")

// Platform identifies the messaging platform an end user writes from.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformVK       Platform = "vk"
	PlatformExternal Platform = "external"
)

// Direction of a relayed message relative to the staff chat.
type Direction string

const (
	DirectionIncoming Direction = "incoming" // user → staff topic
	DirectionOutgoing Direction = "outgoing" // staff topic → user
)

// RoutingEntry binds one end user (platform + chat id) to a forum topic in
// the staff supergroup. ThreadID is 0 until a topic has been provisioned and
// never regresses to 0 once set.
type RoutingEntry struct {
	ID          uuid.UUID
	Platform    Platform
	ChatID      string
	ThreadID    int
	DisplayName string
	CreatedAt   time.Time
}

// MessageRecord is one relayed message. SourceMessageID is the platform
// message id on the side the message arrived from; MirrorMessageID is the id
// of the relayed copy on the opposite side. Body is a snapshot of the last
// known content, updated when an edit is propagated.
type MessageRecord struct {
	ID              uuid.UUID
	EntryID         uuid.UUID
	Direction       Direction
	SourceMessageID string
	MirrorMessageID string
	Kind            string
	Body            string
	CreatedAt       time.Time
	EditedAt        *time.Time
}

// AIState tracks the last AI draft posted into an entry's topic, so the
// edit hook knows which message to rewrite.
type AIState struct {
	EntryID        uuid.UUID
	DraftMessageID string
	UpdatedAt      time.Time
}

// EntryStore persists routing entries.
type EntryStore interface {
	// GetByChat returns the entry for (platform, chatID) or ErrNotFound.
	GetByChat(ctx context.Context, platform Platform, chatID string) (*RoutingEntry, error)
	// GetByThread returns the entry owning threadID or ErrNotFound.
	GetByThread(ctx context.Context, threadID int) (*RoutingEntry, error)
	// Create inserts entry keyed on (platform, chatID). If a concurrent
	// insert won, the existing row is returned instead so callers always get
	// the single surviving entry.
	Create(ctx context.Context, entry *RoutingEntry) (*RoutingEntry, error)
	// SetThread stores the provisioned topic id for an entry.
	SetThread(ctx context.Context, id uuid.UUID, threadID int) error
}

// MessageStore persists relayed message records.
type MessageStore interface {
	Insert(ctx context.Context, rec *MessageRecord) error
	// GetBySource looks up a record by the platform message id it was
	// relayed from, scoped by direction. Returns ErrNotFound for unknown ids.
	GetBySource(ctx context.Context, direction Direction, sourceMessageID string) (*MessageRecord, error)
	// UpdateBody replaces the content snapshot after an edit was propagated.
	UpdateBody(ctx context.Context, id uuid.UUID, body string) error
	// LastOutgoing returns the most recent staff→user record for an entry,
	// or ErrNotFound when the staff side has not written yet.
	LastOutgoing(ctx context.Context, entryID uuid.UUID) (*MessageRecord, error)
}

// AIStateStore persists per-entry AI draft state.
type AIStateStore interface {
	Get(ctx context.Context, entryID uuid.UUID) (*AIState, error)
	Set(ctx context.Context, state *AIState) error
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Entries  EntryStore
	Messages MessageStore
	AIState  AIStateStore
}
