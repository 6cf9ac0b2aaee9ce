// Package telegram is the Telegram Bot API capability client: it delivers
// relay sends, edits, forum-topic creation and service-notice cleanup for
// both the staff supergroup and direct chats with Telegram users.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// generalTopicID is the fixed id of the "General" topic in forum
// supergroups. Telegram rejects send calls that name it explicitly.
const generalTopicID = 1

// Client wraps one bot connection. The same bot serves the staff supergroup
// and all Telegram end users.
type Client struct {
	bot         *telego.Bot
	staffChatID int64
}

func New(bot *telego.Bot, staffChatID int64) *Client {
	return &Client{bot: bot, staffChatID: staffChatID}
}

// Send delivers one request, dispatching on the payload kind. Returns the
// Telegram message id of the delivered copy.
func (c *Client) Send(ctx context.Context, req relay.SendRequest) (string, error) {
	chatID, err := parseChatID(req.ChatID)
	if err != nil {
		return "", fmt.Errorf("telegram send: chat id %q: %w", req.ChatID, err)
	}
	chat := tu.ID(chatID)
	threadID := sendThreadID(req.ThreadID)

	var msg *telego.Message
	switch req.Kind {
	case update.KindText:
		params := tu.Message(chat, req.Text)
		params.MessageThreadID = threadID
		msg, err = c.bot.SendMessage(ctx, params)
	case update.KindPhoto:
		msg, err = c.bot.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID: chat, MessageThreadID: threadID,
			Photo: tu.FileFromID(req.FileID), Caption: req.Caption,
		})
	case update.KindDocument:
		msg, err = c.bot.SendDocument(ctx, &telego.SendDocumentParams{
			ChatID: chat, MessageThreadID: threadID,
			Document: tu.FileFromID(req.FileID), Caption: req.Caption,
		})
	case update.KindLocation:
		msg, err = c.bot.SendLocation(ctx, &telego.SendLocationParams{
			ChatID: chat, MessageThreadID: threadID,
			Latitude: req.Latitude, Longitude: req.Longitude,
		})
	case update.KindVoice:
		msg, err = c.bot.SendVoice(ctx, &telego.SendVoiceParams{
			ChatID: chat, MessageThreadID: threadID,
			Voice: tu.FileFromID(req.FileID), Caption: req.Caption,
		})
	case update.KindSticker:
		msg, err = c.bot.SendSticker(ctx, &telego.SendStickerParams{
			ChatID: chat, MessageThreadID: threadID,
			Sticker: tu.FileFromID(req.FileID),
		})
	case update.KindVideoNote:
		msg, err = c.bot.SendVideoNote(ctx, &telego.SendVideoNoteParams{
			ChatID: chat, MessageThreadID: threadID,
			VideoNote: tu.FileFromID(req.FileID),
		})
	case update.KindContact:
		msg, err = c.bot.SendContact(ctx, &telego.SendContactParams{
			ChatID: chat, MessageThreadID: threadID,
			PhoneNumber: req.ContactPhone, FirstName: req.ContactName,
		})
	default:
		return "", fmt.Errorf("telegram send: unsupported payload kind %q", req.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("telegram send %s: %w", req.Kind, err)
	}
	return strconv.Itoa(msg.MessageID), nil
}

// EditText rewrites a previously sent message.
func (c *Client) EditText(ctx context.Context, chatID, messageID, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return fmt.Errorf("telegram edit: chat id %q: %w", chatID, err)
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("telegram edit: message id %q: %w", messageID, err)
	}
	_, err = c.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    tu.ID(id),
		MessageID: msgID,
		Text:      text,
	})
	if err != nil {
		return fmt.Errorf("telegram edit message %d: %w", msgID, err)
	}
	return nil
}

// CreateThread opens a new forum topic in the staff supergroup and returns
// its thread id.
func (c *Client) CreateThread(ctx context.Context, title string) (int, error) {
	topic, err := c.bot.CreateForumTopic(ctx, &telego.CreateForumTopicParams{
		ChatID: tu.ID(c.staffChatID),
		Name:   title,
	})
	if err != nil {
		return 0, fmt.Errorf("create forum topic: %w", err)
	}
	return topic.MessageThreadID, nil
}

// DeleteThreadNote removes a service notice from the staff supergroup.
func (c *Client) DeleteThreadNote(ctx context.Context, messageID string) error {
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("delete topic note: message id %q: %w", messageID, err)
	}
	if err := c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(c.staffChatID),
		MessageID: msgID,
	}); err != nil {
		return fmt.Errorf("delete topic note %d: %w", msgID, err)
	}
	return nil
}

func parseChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}

// sendThreadID returns the thread id to put on send params. The General
// topic must be omitted or Telegram answers "thread not found".
func sendThreadID(threadID int) int {
	if threadID == generalTopicID {
		return 0
	}
	return threadID
}
