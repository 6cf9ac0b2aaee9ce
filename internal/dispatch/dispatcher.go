// Package dispatch classifies normalized updates and hands them to the
// right handler: a command hook, one of the relay directions, or edit
// propagation. One call per inbound event; all failures stay inside the
// event.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/topicbridge/internal/hooks"
	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/routing"
	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// ErrUnknownEventKind flags payload shapes the relay does not speak. It is
// reported, not swallowed: it means the platform protocol drifted.
var ErrUnknownEventKind = errors.New("unknown event kind")

// ThreadNoteCleaner removes the service notice Telegram drops into a topic
// when its title is edited.
type ThreadNoteCleaner interface {
	DeleteThreadNote(ctx context.Context, messageID string) error
}

// Dispatcher routes one normalized update through the relay pipeline.
type Dispatcher struct {
	table  *routing.Table
	relay  *relay.Relay
	hooks  *hooks.Hooks
	notes  ThreadNoteCleaner // nil = topic notices left in place
	tracer trace.Tracer
}

func New(table *routing.Table, rl *relay.Relay, hk *hooks.Hooks, notes ThreadNoteCleaner) *Dispatcher {
	return &Dispatcher{
		table:  table,
		relay:  rl,
		hooks:  hk,
		notes:  notes,
		tracer: otel.Tracer("topicbridge/dispatch"),
	}
}

// Dispatch processes one event. A nil return covers both "handled" and
// "deliberately discarded"; errors are for operator visibility and never
// mean the host process should stop.
func (d *Dispatcher) Dispatch(ctx context.Context, u *update.Update) error {
	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("event", string(u.Event)),
			attribute.String("source", string(u.Source)),
			attribute.String("chat_id", u.ChatID),
			attribute.Int("thread_id", u.ThreadID),
		))
	defer span.End()

	err := d.dispatch(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, u *update.Update) error {
	// Automated accounts produce exactly one actionable thing: the topic
	// title notice, which triggers note cleanup. Everything else they emit
	// is an echo of our own sends.
	if u.FromBot {
		if u.Flags.TopicEdited && d.notes != nil {
			return d.notes.DeleteThreadNote(ctx, u.MessageID)
		}
		slog.Debug("dispatch: automated-account event discarded", "chat_id", u.ChatID)
		return nil
	}

	if u.Flags.PinnedNotice {
		slog.Debug("dispatch: pinned notice discarded", "chat_id", u.ChatID)
		return nil
	}

	// Threaded-group traffic without a topic id is unroutable. Dropped
	// before any routing lookup.
	if u.Source == update.SourceThreadedGroup && !u.InThread() {
		slog.Debug("dispatch: group message without topic, skipped",
			"chat_id", u.ChatID, "text", truncate(u.Text, 60))
		return nil
	}

	if u.Source == update.SourceOther {
		slog.Debug("dispatch: non-relayable source, skipped", "chat_id", u.ChatID)
		return nil
	}

	if u.Source == update.SourceThreadedGroup {
		if _, err := d.table.ResolveByThread(ctx, u.ThreadID); errors.Is(err, store.ErrNotFound) {
			// Known misroute risk during provisioning races; degrade to
			// best-effort handling on the direct platform instead of
			// losing the staff message.
			slog.Warn("dispatch: platform unresolved for topic, handling as direct platform",
				"thread_id", u.ThreadID, "chat_id", u.ChatID)
		}
	}

	if u.Flags.AITech {
		if strings.Contains(u.Text, update.AIEditTrigger) {
			return d.hooks.HandleAIEdit(ctx, u)
		}
		slog.Debug("dispatch: ai artifact skipped", "thread_id", u.ThreadID)
		return nil
	}

	if u.Event == update.EventMessage {
		inTopic := u.Source == update.SourceThreadedGroup
		switch {
		case u.Text == "/contact" && inTopic:
			return d.hooks.HandleContact(ctx, u)
		case u.Text == "/start" && !inTopic:
			return d.hooks.HandleStart(ctx, u)
		case strings.Contains(u.Text, "/ai_generate") && inTopic:
			return d.hooks.HandleAIGenerate(ctx, u)
		}
	}

	switch u.Event {
	case update.EventMessage:
		if u.Source == update.SourceThreadedGroup {
			return d.relay.Outgoing(ctx, u)
		}
		return d.relay.Incoming(ctx, u)
	case update.EventEditedMessage:
		return d.relay.PropagateEdit(ctx, u)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, u.Event)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
