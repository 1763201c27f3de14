package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iwanturequity/proctoring-service/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by the agent when it
// runs without a backend. It honors the same append-only and last-write-wins
// semantics as the Postgres implementation.
type MemoryStore struct {
	mu       sync.Mutex
	events   []models.Event
	sessions map[string]models.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]models.Session{}}
}

func (m *MemoryStore) AppendEvent(_ context.Context, ev models.Event) (models.Event, error) {
	ev, err := prepareEvent(ev, time.Now().UTC())
	if err != nil {
		return models.Event{}, err
	}

	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return ev, nil
}

func (m *MemoryStore) UpsertSession(_ context.Context, in models.SessionUpsert) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *models.Session
	if s, ok := m.sessions[in.SessionID]; ok {
		existing = &s
	}

	out, err := prepareSession(existing, in, time.Now().UTC())
	if err != nil {
		return models.Session{}, err
	}
	m.sessions[in.SessionID] = out
	return out, nil
}

func (m *MemoryStore) EventsByCandidate(_ context.Context, candidateID, sessionID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Event{}
	for _, ev := range m.events {
		if ev.CandidateID != candidateID {
			continue
		}
		if sessionID != "" && ev.SessionID != sessionID {
			continue
		}
		out = append(out, ev)
	}
	sortByTimestamp(out)
	return out, nil
}

func (m *MemoryStore) EventsBySession(_ context.Context, sessionID string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}
	out := []models.Event{}
	for _, ev := range m.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (m *MemoryStore) LatestSession(_ context.Context, candidateID, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *models.Session
	for id := range m.sessions {
		s := m.sessions[id]
		if s.CandidateID != candidateID {
			continue
		}
		if sessionID != "" && s.SessionID != sessionID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *MemoryStore) SessionByID(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func sortByTimestamp(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
