// Package routing maintains the directory between end users and the forum
// topics that represent them in the staff supergroup, creating topics on
// demand at first contact.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// ErrProvisioningFailed means the topic-creation capability failed. The
// routing entry is kept without a thread so a later event can retry.
var ErrProvisioningFailed = errors.New("thread provisioning failed")

// ThreadCreator is the staff-chat capability that opens a new forum topic.
type ThreadCreator interface {
	CreateThread(ctx context.Context, title string) (int, error)
}

// ContactNotifier posts the one-time "new contact" card into a freshly
// provisioned topic. Formatting is not this package's business.
type ContactNotifier interface {
	SendContactCard(ctx context.Context, entry *store.RoutingEntry) error
}

// Table resolves users to topics and back. Find-or-create and provisioning
// are serialized per (platform, chat id) key, so two concurrent first
// contacts from the same user converge on one entry and one topic.
type Table struct {
	entries  store.EntryStore
	threads  ThreadCreator
	contacts ContactNotifier
	locks    sync.Map // entry key string → *sync.Mutex
}

// NewTable creates a routing table over the given entry store and staff-chat
// capabilities. contacts may be nil to skip new-contact cards.
func NewTable(entries store.EntryStore, threads ThreadCreator, contacts ContactNotifier) *Table {
	return &Table{entries: entries, threads: threads, contacts: contacts}
}

func entryKey(platform store.Platform, chatID string) string {
	return string(platform) + ":" + chatID
}

func (t *Table) lock(key string) *sync.Mutex {
	mu, _ := t.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ResolveByThread returns the platform owning a topic, or store.ErrNotFound.
// A miss is a defined outcome; callers pick the fallback. Store failures are
// degraded to a miss so the dispatcher sees one error vocabulary.
func (t *Table) ResolveByThread(ctx context.Context, threadID int) (store.Platform, error) {
	entry, err := t.EntryByThread(ctx, threadID)
	if err != nil {
		return "", err
	}
	return entry.Platform, nil
}

// EntryByThread returns the routing entry owning a topic, or store.ErrNotFound.
func (t *Table) EntryByThread(ctx context.Context, threadID int) (*store.RoutingEntry, error) {
	if threadID <= 0 {
		return nil, store.ErrNotFound
	}
	entry, err := t.entries.GetByThread(ctx, threadID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("routing: thread lookup failed", "thread_id", threadID, "error", err)
		}
		return nil, store.ErrNotFound
	}
	return entry, nil
}

// ResolveByChat returns the entry for (platform, chatID) without creating
// anything. Misses and store failures both surface as store.ErrNotFound.
func (t *Table) ResolveByChat(ctx context.Context, platform store.Platform, chatID string) (*store.RoutingEntry, error) {
	entry, err := t.entries.GetByChat(ctx, platform, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("routing: chat lookup failed", "platform", platform, "chat_id", chatID, "error", err)
		}
		return nil, store.ErrNotFound
	}
	return entry, nil
}

// FindOrCreate returns the single routing entry for (platform, chatID),
// creating it on first contact. New entries get a topic provisioned before
// they are returned; when provisioning fails the entry is still returned
// with ThreadID 0 and the failure is left for the caller to classify.
func (t *Table) FindOrCreate(ctx context.Context, platform store.Platform, chatID, displayName string) (*store.RoutingEntry, error) {
	key := entryKey(platform, chatID)
	mu := t.lock(key)
	mu.Lock()
	defer mu.Unlock()

	entry, err := t.entries.GetByChat(ctx, platform, chatID)
	if errors.Is(err, store.ErrNotFound) {
		entry, err = t.entries.Create(ctx, &store.RoutingEntry{
			Platform:    platform,
			ChatID:      chatID,
			DisplayName: displayName,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("find or create routing entry: %w", err)
	}

	if entry.ThreadID == 0 {
		if _, provErr := t.provisionLocked(ctx, entry); provErr != nil {
			slog.Warn("routing: provisioning deferred",
				"platform", platform, "chat_id", chatID, "error", provErr)
		}
	}
	return entry, nil
}

// ProvisionThread creates the forum topic for an entry. Idempotent: an entry
// that already has a topic returns it without touching the staff chat. On
// capability failure the entry keeps ThreadID 0 and ErrProvisioningFailed is
// returned; the next event retries.
func (t *Table) ProvisionThread(ctx context.Context, entry *store.RoutingEntry) (int, error) {
	mu := t.lock(entryKey(entry.Platform, entry.ChatID))
	mu.Lock()
	defer mu.Unlock()
	return t.provisionLocked(ctx, entry)
}

func (t *Table) provisionLocked(ctx context.Context, entry *store.RoutingEntry) (int, error) {
	if entry.ThreadID != 0 {
		return entry.ThreadID, nil
	}

	// Another worker may have provisioned between our lookup and the lock.
	if current, err := t.entries.GetByChat(ctx, entry.Platform, entry.ChatID); err == nil && current.ThreadID != 0 {
		entry.ThreadID = current.ThreadID
		return entry.ThreadID, nil
	}

	title := entry.DisplayName
	if title == "" {
		title = fmt.Sprintf("%s %s", entry.Platform, entry.ChatID)
	}

	threadID, err := t.threads.CreateThread(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}
	if err := t.entries.SetThread(ctx, entry.ID, threadID); err != nil {
		return 0, fmt.Errorf("%w: store thread id: %v", ErrProvisioningFailed, err)
	}
	entry.ThreadID = threadID

	slog.Info("routing: topic provisioned",
		"platform", entry.Platform, "chat_id", entry.ChatID, "thread_id", threadID)

	if t.contacts != nil {
		if err := t.contacts.SendContactCard(ctx, entry); err != nil {
			slog.Warn("routing: contact card failed", "thread_id", threadID, "error", err)
		}
	}
	return threadID, nil
}
