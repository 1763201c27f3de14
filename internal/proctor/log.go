// Package proctor holds the client-side pieces of the system: the in-memory
// session log that is the source of truth while an interview runs, and the
// best-effort gateway that mirrors it to the backend.
package proctor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/score"
)

// GenerateSessionID produces a session id in the same shape the web client
// uses: session_<epochMillis>_<random suffix>.
func GenerateSessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// GenerateCandidateID produces a candidate id: candidate_<epochMillis>.
func GenerateCandidateID() string {
	return fmt.Sprintf("candidate_%d", time.Now().UnixMilli())
}

// SessionLog is the append-only event log for one active session. It stays
// authoritative even when the backend is unreachable: local statistics and the
// local CSV fallback are computed from it alone.
type SessionLog struct {
	mu     sync.Mutex
	events []models.Event

	candidateID   string
	candidateName string
	sessionID     string
	startTime     time.Time
}

// NewSessionLog starts a session log. An empty candidateID gets a generated
// one, matching the web client's behavior.
func NewSessionLog(candidateID, candidateName string) *SessionLog {
	if candidateID == "" {
		candidateID = GenerateCandidateID()
	}
	return &SessionLog{
		candidateID:   candidateID,
		candidateName: candidateName,
		sessionID:     GenerateSessionID(),
		startTime:     time.Now().UTC(),
	}
}

func (l *SessionLog) SessionID() string    { return l.sessionID }
func (l *SessionLog) CandidateID() string  { return l.candidateID }
func (l *SessionLog) StartTime() time.Time { return l.startTime }

// Append records one observation, stamping identity, session and timestamp.
// The returned event is the exact record appended.
func (l *SessionLog) Append(eventType, message string, meta map[string]interface{}) models.Event {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	ev := models.Event{
		CandidateID:   l.candidateID,
		CandidateName: l.candidateName,
		EventType:     eventType,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		Meta:          meta,
		SessionID:     l.sessionID,
	}

	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	return ev
}

// Events returns a snapshot copy; the log itself is never handed out.
func (l *SessionLog) Events() []models.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out
}

// LiveStats computes the live-display statistics over the current log.
func (l *SessionLog) LiveStats() score.Stats {
	return score.Live(l.Events())
}

// StartUpsert builds the session payload sent when the interview begins.
func (l *SessionLog) StartUpsert() models.SessionUpsert {
	start := l.startTime
	return models.SessionUpsert{
		SessionID:     l.sessionID,
		CandidateID:   l.candidateID,
		CandidateName: l.candidateName,
		StartTime:     &start,
		Status:        models.StatusActive,
	}
}

// EndUpsert builds the completion payload: end time, derived duration on the
// server, and the live integrity score as the session's final stored score.
func (l *SessionLog) EndUpsert(end time.Time) models.SessionUpsert {
	start := l.startTime
	finalScore := l.LiveStats().IntegrityScore
	return models.SessionUpsert{
		SessionID:      l.sessionID,
		CandidateID:    l.candidateID,
		CandidateName:  l.candidateName,
		StartTime:      &start,
		EndTime:        &end,
		IntegrityScore: &finalScore,
		Status:         models.StatusCompleted,
	}
}
