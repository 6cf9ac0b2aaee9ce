package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// EntryStore implements store.EntryStore on SQLite.
type EntryStore struct {
	db *sql.DB
}

func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

const entryColumns = `id, platform, chat_id, thread_id, display_name, created_at`

func (s *EntryStore) GetByChat(ctx context.Context, platform store.Platform, chatID string) (*store.RoutingEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM routing_entries WHERE platform = ? AND chat_id = ?`,
		string(platform), chatID)
	return scanEntry(row)
}

func (s *EntryStore) GetByThread(ctx context.Context, threadID int) (*store.RoutingEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM routing_entries WHERE thread_id = ?`, threadID)
	return scanEntry(row)
}

func (s *EntryStore) Create(ctx context.Context, entry *store.RoutingEntry) (*store.RoutingEntry, error) {
	id := uuid.Must(uuid.NewV7())
	now := time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routing_entries (id, platform, chat_id, thread_id, display_name, created_at)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT (platform, chat_id) DO NOTHING`,
		id.String(), string(entry.Platform), entry.ChatID, entry.DisplayName, now)
	if err != nil {
		return nil, fmt.Errorf("insert routing entry: %w", err)
	}

	return s.GetByChat(ctx, entry.Platform, entry.ChatID)
}

func (s *EntryStore) SetThread(ctx context.Context, id uuid.UUID, threadID int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE routing_entries SET thread_id = ? WHERE id = ? AND thread_id = 0`,
		threadID, id.String())
	if err != nil {
		return fmt.Errorf("set thread id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+entryColumns+` FROM routing_entries WHERE id = ?`, id.String())
		if _, scanErr := scanEntry(row); scanErr != nil {
			return scanErr
		}
	}
	return nil
}

func scanEntry(row *sql.Row) (*store.RoutingEntry, error) {
	var entry store.RoutingEntry
	var id, platform string
	err := row.Scan(&id, &platform, &entry.ChatID, &entry.ThreadID, &entry.DisplayName, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan routing entry: %w", err)
	}
	entry.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("scan routing entry id: %w", err)
	}
	entry.Platform = store.Platform(platform)
	return &entry, nil
}
