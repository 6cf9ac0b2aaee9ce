package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// AIStateStore implements store.AIStateStore on Postgres.
type AIStateStore struct {
	db *sql.DB
}

func NewAIStateStore(db *sql.DB) *AIStateStore {
	return &AIStateStore{db: db}
}

func (s *AIStateStore) Get(ctx context.Context, entryID uuid.UUID) (*store.AIState, error) {
	var state store.AIState
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_id, draft_message_id, updated_at FROM ai_states WHERE entry_id = $1`,
		entryID).Scan(&state.EntryID, &state.DraftMessageID, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ai state: %w", err)
	}
	return &state, nil
}

func (s *AIStateStore) Set(ctx context.Context, state *store.AIState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_states (entry_id, draft_message_id, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (entry_id) DO UPDATE
		 SET draft_message_id = EXCLUDED.draft_message_id, updated_at = EXCLUDED.updated_at`,
		state.EntryID, state.DraftMessageID, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set ai state: %w", err)
	}
	return nil
}
