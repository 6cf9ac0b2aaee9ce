package hooks

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// ContactCard posts a short identity summary for a topic's user into that
// topic. It implements routing.ContactNotifier, so every freshly provisioned
// topic opens with the card.
type ContactCard struct {
	Staff       relay.Sender
	StaffChatID string
}

func (c *ContactCard) SendContactCard(ctx context.Context, entry *store.RoutingEntry) error {
	name := entry.DisplayName
	if name == "" {
		name = "(no name)"
	}
	text := fmt.Sprintf("New contact\nName: %s\nPlatform: %s\nChat ID: %s",
		name, entry.Platform, entry.ChatID)

	_, err := c.Staff.Send(ctx, relay.SendRequest{
		ChatID:   c.StaffChatID,
		ThreadID: entry.ThreadID,
		Kind:     update.KindText,
		Text:     text,
	})
	if err != nil {
		return fmt.Errorf("send contact card: %w", err)
	}
	return nil
}
