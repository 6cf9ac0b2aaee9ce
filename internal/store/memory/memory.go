// Package memory is the in-process storage backend. It backs the test
// suites and serves as a throwaway mode for local experiments; data does not
// survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// NewStores creates a fully in-memory store set.
func NewStores() *store.Stores {
	return &store.Stores{
		Entries:  NewEntryStore(),
		Messages: NewMessageStore(),
		AIState:  NewAIStateStore(),
	}
}

// EntryStore keeps routing entries in maps guarded by one mutex, which also
// gives the Create upsert its atomicity.
type EntryStore struct {
	mu       sync.Mutex
	byChat   map[string]*store.RoutingEntry
	byThread map[int]*store.RoutingEntry
}

func NewEntryStore() *EntryStore {
	return &EntryStore{
		byChat:   make(map[string]*store.RoutingEntry),
		byThread: make(map[int]*store.RoutingEntry),
	}
}

func chatKey(platform store.Platform, chatID string) string {
	return string(platform) + ":" + chatID
}

func (s *EntryStore) GetByChat(_ context.Context, platform store.Platform, chatID string) (*store.RoutingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byChat[chatKey(platform, chatID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (s *EntryStore) GetByThread(_ context.Context, threadID int) (*store.RoutingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byThread[threadID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (s *EntryStore) Create(_ context.Context, entry *store.RoutingEntry) (*store.RoutingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatKey(entry.Platform, entry.ChatID)
	if existing, ok := s.byChat[key]; ok {
		cp := *existing
		return &cp, nil
	}

	cp := *entry
	cp.ID = uuid.Must(uuid.NewV7())
	cp.CreatedAt = time.Now()
	s.byChat[key] = &cp

	out := cp
	return &out, nil
}

func (s *EntryStore) SetThread(_ context.Context, id uuid.UUID, threadID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.byChat {
		if entry.ID == id {
			entry.ThreadID = threadID
			s.byThread[threadID] = entry
			return nil
		}
	}
	return store.ErrNotFound
}

// MessageStore keeps message records keyed by (direction, source id).
type MessageStore struct {
	mu   sync.Mutex
	recs []*store.MessageRecord
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Insert(_ context.Context, rec *store.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.recs = append(s.recs, &cp)
	return nil
}

func (s *MessageStore) GetBySource(_ context.Context, direction store.Direction, sourceMessageID string) (*store.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.recs) - 1; i >= 0; i-- {
		if s.recs[i].Direction == direction && s.recs[i].SourceMessageID == sourceMessageID {
			cp := *s.recs[i]
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MessageStore) UpdateBody(_ context.Context, id uuid.UUID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recs {
		if rec.ID == id {
			rec.Body = body
			now := time.Now()
			rec.EditedAt = &now
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *MessageStore) LastOutgoing(_ context.Context, entryID uuid.UUID) (*store.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.recs) - 1; i >= 0; i-- {
		if s.recs[i].EntryID == entryID && s.recs[i].Direction == store.DirectionOutgoing {
			cp := *s.recs[i]
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// AIStateStore keeps the per-entry AI draft pointer.
type AIStateStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]*store.AIState
}

func NewAIStateStore() *AIStateStore {
	return &AIStateStore{states: make(map[uuid.UUID]*store.AIState)}
}

func (s *AIStateStore) Get(_ context.Context, entryID uuid.UUID) (*store.AIState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[entryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *state
	return &cp, nil
}

func (s *AIStateStore) Set(_ context.Context, state *store.AIState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.EntryID] = &cp
	return nil
}
