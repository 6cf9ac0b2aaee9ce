package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// MessageStore implements store.MessageStore on Postgres.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

const messageColumns = `id, entry_id, direction, source_message_id, mirror_message_id, kind, body, created_at, edited_at`

func (s *MessageStore) Insert(ctx context.Context, rec *store.MessageRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_records
		 (id, entry_id, direction, source_message_id, mirror_message_id, kind, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.EntryID, string(rec.Direction), rec.SourceMessageID,
		rec.MirrorMessageID, rec.Kind, rec.Body, created)
	if err != nil {
		return fmt.Errorf("insert message record: %w", err)
	}
	return nil
}

func (s *MessageStore) GetBySource(ctx context.Context, direction store.Direction, sourceMessageID string) (*store.MessageRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM message_records
		 WHERE direction = $1 AND source_message_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		string(direction), sourceMessageID)
	return scanMessage(row)
}

func (s *MessageStore) UpdateBody(ctx context.Context, id uuid.UUID, body string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE message_records SET body = $1, edited_at = $2 WHERE id = $3`,
		body, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update message body: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *MessageStore) LastOutgoing(ctx context.Context, entryID uuid.UUID) (*store.MessageRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM message_records
		 WHERE entry_id = $1 AND direction = $2
		 ORDER BY created_at DESC LIMIT 1`,
		entryID, string(store.DirectionOutgoing))
	return scanMessage(row)
}

func scanMessage(row *sql.Row) (*store.MessageRecord, error) {
	var rec store.MessageRecord
	var direction string
	var edited sql.NullTime
	err := row.Scan(&rec.ID, &rec.EntryID, &direction, &rec.SourceMessageID,
		&rec.MirrorMessageID, &rec.Kind, &rec.Body, &rec.CreatedAt, &edited)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message record: %w", err)
	}
	rec.Direction = store.Direction(direction)
	if edited.Valid {
		rec.EditedAt = &edited.Time
	}
	return &rec, nil
}
