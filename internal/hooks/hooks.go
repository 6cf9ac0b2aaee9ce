// Package hooks holds the short-circuit handlers that bypass the generic
// relay: /start, /contact, AI answer generation and AI draft editing.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/routing"
	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// DefaultWelcome is sent for /start when no welcome text is configured.
const DefaultWelcome = "Hi! Write your question here and our team will get back to you shortly."

// Answerer generates an AI-assisted draft reply for a user's conversation.
type Answerer interface {
	Answer(ctx context.Context, entry *store.RoutingEntry, prompt string) (string, error)
}

// Hooks wires the command handlers to the staff chat and user platforms.
type Hooks struct {
	table       *routing.Table
	staff       relay.Client
	staffChatID string
	users       map[store.Platform]relay.Client
	aiState     store.AIStateStore
	answerer    Answerer // nil = AI commands report "not configured"
	welcome     string
}

// New creates the hook set. answerer may be nil.
func New(table *routing.Table, staff relay.Client, staffChatID string, users map[store.Platform]relay.Client, aiState store.AIStateStore, answerer Answerer, welcome string) *Hooks {
	if welcome == "" {
		welcome = DefaultWelcome
	}
	return &Hooks{
		table:       table,
		staff:       staff,
		staffChatID: staffChatID,
		users:       users,
		aiState:     aiState,
		answerer:    answerer,
		welcome:     welcome,
	}
}

// HandleStart answers /start in a direct chat with the welcome message. The
// routing entry is registered on the way, so the topic already exists when
// the user sends their first real message.
func (h *Hooks) HandleStart(ctx context.Context, u *update.Update) error {
	platform := u.Platform
	if platform == "" {
		platform = store.PlatformTelegram
	}

	if _, err := h.table.FindOrCreate(ctx, platform, u.ChatID, u.SenderName); err != nil {
		slog.Warn("start hook: registration failed", "platform", platform, "chat_id", u.ChatID, "error", err)
	}

	client, ok := h.users[platform]
	if !ok {
		return fmt.Errorf("start hook: no client for platform %q", platform)
	}
	_, err := client.Send(ctx, relay.SendRequest{
		ChatID: u.ChatID,
		Kind:   update.KindText,
		Text:   h.welcome,
	})
	if err != nil {
		return fmt.Errorf("start hook: %w", err)
	}
	return nil
}

// HandleContact re-posts the contact card of a topic's user, for staff who
// ask /contact inside the topic.
func (h *Hooks) HandleContact(ctx context.Context, u *update.Update) error {
	entry, err := h.table.EntryByThread(ctx, u.ThreadID)
	if err != nil {
		return fmt.Errorf("contact hook: thread %d: %w", u.ThreadID, err)
	}
	card := &ContactCard{Staff: h.staff, StaffChatID: h.staffChatID}
	return card.SendContactCard(ctx, entry)
}

// HandleAIGenerate posts an AI draft answer into the topic. The draft is
// marked so its own webhook echo routes back to the AI path, not the relay.
func (h *Hooks) HandleAIGenerate(ctx context.Context, u *update.Update) error {
	entry, err := h.table.EntryByThread(ctx, u.ThreadID)
	if err != nil {
		return fmt.Errorf("ai generate: thread %d: %w", u.ThreadID, err)
	}

	prompt := strings.TrimSpace(strings.TrimPrefix(u.Text, "/ai_generate"))

	if h.answerer == nil {
		_, err := h.staff.Send(ctx, relay.SendRequest{
			ChatID:   h.staffChatID,
			ThreadID: entry.ThreadID,
			Kind:     update.KindText,
			Text:     update.AIDraftPrefix + "\nAI answering is not configured.",
		})
		return err
	}

	answer, err := h.answerer.Answer(ctx, entry, prompt)
	if err != nil {
		return fmt.Errorf("ai generate: %w", err)
	}

	draftID, err := h.staff.Send(ctx, relay.SendRequest{
		ChatID:   h.staffChatID,
		ThreadID: entry.ThreadID,
		Kind:     update.KindText,
		Text:     update.AIDraftPrefix + "\n" + answer,
	})
	if err != nil {
		return fmt.Errorf("ai generate: post draft: %w", err)
	}

	if err := h.aiState.Set(ctx, &store.AIState{
		EntryID:        entry.ID,
		DraftMessageID: draftID,
		UpdatedAt:      time.Now(),
	}); err != nil {
		slog.Warn("ai generate: draft state not saved", "entry_id", entry.ID, "error", err)
	}
	return nil
}

// HandleAIEdit rewrites the last AI draft in a topic. The instruction text
// follows the edit trigger token; without a recorded draft the instruction
// is dropped.
func (h *Hooks) HandleAIEdit(ctx context.Context, u *update.Update) error {
	entry, err := h.table.EntryByThread(ctx, u.ThreadID)
	if err != nil {
		return fmt.Errorf("ai edit: thread %d: %w", u.ThreadID, err)
	}

	state, err := h.aiState.Get(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("ai edit: no draft on record", "entry_id", entry.ID)
			return nil
		}
		return fmt.Errorf("ai edit: %w", err)
	}

	idx := strings.Index(u.Text, update.AIEditTrigger)
	if idx < 0 {
		return nil
	}
	newText := strings.TrimSpace(u.Text[idx+len(update.AIEditTrigger):])
	if newText == "" {
		return nil
	}

	if err := h.staff.EditText(ctx, h.staffChatID, state.DraftMessageID, update.AIDraftPrefix+"\n"+newText); err != nil {
		return fmt.Errorf("ai edit: %w", err)
	}
	return nil
}
