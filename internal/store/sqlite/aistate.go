package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// AIStateStore implements store.AIStateStore on SQLite.
type AIStateStore struct {
	db *sql.DB
}

func NewAIStateStore(db *sql.DB) *AIStateStore {
	return &AIStateStore{db: db}
}

func (s *AIStateStore) Get(ctx context.Context, entryID uuid.UUID) (*store.AIState, error) {
	var state store.AIState
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_id, draft_message_id, updated_at FROM ai_states WHERE entry_id = ?`,
		entryID.String()).Scan(&id, &state.DraftMessageID, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ai state: %w", err)
	}
	if state.EntryID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get ai state: entry id: %w", err)
	}
	return &state, nil
}

func (s *AIStateStore) Set(ctx context.Context, state *store.AIState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_states (entry_id, draft_message_id, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (entry_id) DO UPDATE
		 SET draft_message_id = excluded.draft_message_id, updated_at = excluded.updated_at`,
		state.EntryID.String(), state.DraftMessageID, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set ai state: %w", err)
	}
	return nil
}
