package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// PropagateEdit mirrors an edit of a previously relayed message to the
// opposite side and refreshes the stored snapshot. An edit whose original
// was never relayed (out-of-order delivery, pre-deploy history) is discarded:
// there is no record to update and nothing to mirror.
func (r *Relay) PropagateEdit(ctx context.Context, u *update.Update) error {
	dir := store.DirectionIncoming
	if u.Source == update.SourceThreadedGroup {
		dir = store.DirectionOutgoing
	}

	rec, err := r.messages.GetBySource(ctx, dir, u.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("relay: edit without original, discarded",
				"direction", dir, "source_id", u.MessageID)
			return nil
		}
		return fmt.Errorf("edit lookup: %w", err)
	}

	switch dir {
	case store.DirectionIncoming:
		// User edited their message; rewrite the copy in the staff topic.
		err = r.staff.EditText(ctx, r.staffChatID, rec.MirrorMessageID, u.Text)
	case store.DirectionOutgoing:
		// Staff edited in the topic; rewrite the copy in the user's chat.
		entry, lookupErr := r.table.EntryByThread(ctx, u.ThreadID)
		if lookupErr != nil {
			return fmt.Errorf("edit propagation: thread %d: %w", u.ThreadID, lookupErr)
		}
		client, ok := r.users[entry.Platform]
		if !ok {
			return fmt.Errorf("edit propagation: no client for platform %q", entry.Platform)
		}
		err = client.EditText(ctx, entry.ChatID, rec.MirrorMessageID, u.Text)
	}
	if err != nil {
		return fmt.Errorf("%w: edit of %s: %v", ErrSendFailed, rec.MirrorMessageID, err)
	}

	if err := r.messages.UpdateBody(ctx, rec.ID, u.Text); err != nil {
		return fmt.Errorf("update edit snapshot: %w", err)
	}
	return nil
}
