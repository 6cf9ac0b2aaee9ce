// Package relay forwards messages between end users and the staff chat:
// incoming (user → staff topic) and outgoing (staff topic → user). Both
// directions share parameter construction and persistence; only addressing
// differs.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/routing"
	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// ErrRoutingUnavailable means a relay cannot proceed because the user has no
// topic and provisioning did not produce one. The event is reported, not
// silently dropped.
var ErrRoutingUnavailable = errors.New("routing unavailable")

// ErrSendFailed wraps platform send/edit failures. Logged at the dispatch
// boundary; never aborts sibling event processing.
var ErrSendFailed = errors.New("send failed")

// Sender delivers one SendRequest and returns the platform message id of the
// delivered copy.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (string, error)
}

// Editor rewrites the text of a previously sent message.
type Editor interface {
	EditText(ctx context.Context, chatID, messageID, text string) error
}

// Client is the full outbound capability of one platform.
type Client interface {
	Sender
	Editor
}

// Relay implements both directions of the message-relay contract.
type Relay struct {
	table       *routing.Table
	messages    store.MessageStore
	staff       Client
	staffChatID string
	users       map[store.Platform]Client
}

// New creates a relay. staff is the supervision-chat client; users maps each
// platform to the client that reaches its end users.
func New(table *routing.Table, messages store.MessageStore, staff Client, staffChatID string, users map[store.Platform]Client) *Relay {
	return &Relay{
		table:       table,
		messages:    messages,
		staff:       staff,
		staffChatID: staffChatID,
		users:       users,
	}
}

// Incoming relays a user's message into their staff topic. First contact
// creates the routing entry and provisions the topic on the way.
func (r *Relay) Incoming(ctx context.Context, u *update.Update) error {
	platform := u.Platform
	if platform == "" {
		platform = store.PlatformTelegram
	}

	entry, err := r.table.FindOrCreate(ctx, platform, u.ChatID, u.SenderName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	if entry.ThreadID == 0 {
		// FindOrCreate already attempted provisioning; the entry stays for
		// a retry on the user's next message.
		return fmt.Errorf("%w: no topic for %s/%s", ErrRoutingUnavailable, platform, u.ChatID)
	}

	req := buildSendRequest(u, r.staffChatID, entry.ThreadID)
	mirrorID, err := r.staff.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: incoming %s to thread %d: %v", ErrSendFailed, u.Payload.Kind, entry.ThreadID, err)
	}

	return r.persist(ctx, entry, store.DirectionIncoming, u, mirrorID)
}

// Outgoing relays a staff message from a topic to the owning user's chat.
func (r *Relay) Outgoing(ctx context.Context, u *update.Update) error {
	entry, err := r.table.EntryByThread(ctx, u.ThreadID)
	if err != nil {
		return fmt.Errorf("outgoing relay: thread %d: %w", u.ThreadID, err)
	}

	client, ok := r.users[entry.Platform]
	if !ok {
		return fmt.Errorf("outgoing relay: no client for platform %q", entry.Platform)
	}

	req := buildSendRequest(u, entry.ChatID, 0)
	mirrorID, err := client.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: outgoing %s to %s/%s: %v", ErrSendFailed, u.Payload.Kind, entry.Platform, entry.ChatID, err)
	}

	return r.persist(ctx, entry, store.DirectionOutgoing, u, mirrorID)
}

func (r *Relay) persist(ctx context.Context, entry *store.RoutingEntry, dir store.Direction, u *update.Update, mirrorID string) error {
	rec := &store.MessageRecord{
		ID:              uuid.Must(uuid.NewV7()),
		EntryID:         entry.ID,
		Direction:       dir,
		SourceMessageID: u.MessageID,
		MirrorMessageID: mirrorID,
		Kind:            string(u.Payload.Kind),
		Body:            u.Text,
	}
	if err := r.messages.Insert(ctx, rec); err != nil {
		// The copy is already delivered; losing the record only costs edit
		// propagation for this one message.
		slog.Error("relay: message record not persisted",
			"direction", dir, "source_id", u.MessageID, "error", err)
		return fmt.Errorf("persist %s record: %w", dir, err)
	}

	slog.Debug("relay: message delivered",
		"direction", dir, "kind", u.Payload.Kind,
		"source_id", u.MessageID, "mirror_id", mirrorID)
	return nil
}
