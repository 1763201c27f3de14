// Package store persists proctoring events and interview sessions. Events are
// append-only; sessions upsert by sessionId with last-write-wins semantics.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iwanturequity/proctoring-service/internal/models"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Store is the persistence contract the HTTP layer depends on.
type Store interface {
	// AppendEvent validates and persists one event, assigning an id and a
	// timestamp when the caller did not supply one. Stored events are never
	// edited or deleted.
	AppendEvent(ctx context.Context, ev models.Event) (models.Event, error)

	// UpsertSession inserts or updates the session keyed by SessionID.
	// Optional fields absent from the payload are preserved on an existing
	// record; supplied fields overwrite.
	UpsertSession(ctx context.Context, in models.SessionUpsert) (models.Session, error)

	// EventsByCandidate returns the candidate's events, optionally narrowed
	// to one session, in ascending timestamp order.
	EventsByCandidate(ctx context.Context, candidateID, sessionID string) ([]models.Event, error)

	// LatestSession returns the most recently created session matching the
	// filter, or ErrNotFound. Without a sessionID this is ambiguous when a
	// candidate runs concurrent sessions; callers accept that.
	LatestSession(ctx context.Context, candidateID, sessionID string) (*models.Session, error)

	// SessionByID returns the session, or ErrNotFound.
	SessionByID(ctx context.Context, sessionID string) (*models.Session, error)

	// EventsBySession returns the session's events in ascending timestamp
	// order, or ErrNotFound when no such session exists.
	EventsBySession(ctx context.Context, sessionID string) ([]models.Event, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

// prepareEvent validates the required fields and fills server-assigned ones.
// Shared by every Store implementation so the contract cannot drift.
func prepareEvent(ev models.Event, now time.Time) (models.Event, error) {
	ev.CandidateID = strings.TrimSpace(ev.CandidateID)
	ev.CandidateName = strings.TrimSpace(ev.CandidateName)

	if ev.CandidateID == "" || ev.CandidateName == "" || ev.EventType == "" ||
		ev.Message == "" || ev.SessionID == "" {
		return models.Event{}, fmt.Errorf(
			"%w: missing required fields: candidateId, candidateName, eventType, message, sessionId",
			ErrValidation)
	}
	if !models.ValidEventType(ev.EventType) {
		return models.Event{}, fmt.Errorf("%w: unknown eventType %q", ErrValidation, ev.EventType)
	}

	ev.ID = uuid.New().String()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	if ev.Meta == nil {
		ev.Meta = map[string]interface{}{}
	}
	ev.CreatedAt = now
	return ev, nil
}

// prepareSession merges an upsert payload over the existing record (nil for a
// fresh insert) and derives duration/status when an end time is supplied.
func prepareSession(existing *models.Session, in models.SessionUpsert, now time.Time) (models.Session, error) {
	in.CandidateID = strings.TrimSpace(in.CandidateID)
	in.CandidateName = strings.TrimSpace(in.CandidateName)

	if in.SessionID == "" || in.CandidateID == "" || in.CandidateName == "" {
		return models.Session{}, fmt.Errorf(
			"%w: missing required fields: sessionId, candidateId, candidateName", ErrValidation)
	}
	switch in.Status {
	case "", models.StatusActive, models.StatusCompleted, models.StatusTerminated:
	default:
		return models.Session{}, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	var out models.Session
	if existing != nil {
		out = *existing
	} else {
		score := 100
		out = models.Session{IntegrityScore: &score, CreatedAt: now}
	}

	out.SessionID = in.SessionID
	out.CandidateID = in.CandidateID
	out.CandidateName = in.CandidateName

	// Start time and status are always taken from the payload, defaulting the
	// same way the wire contract defaults them.
	if in.StartTime != nil {
		out.StartTime = *in.StartTime
	} else {
		out.StartTime = now
	}
	if in.Status != "" {
		out.Status = in.Status
	} else {
		out.Status = models.StatusActive
	}

	if in.EndTime != nil {
		end := *in.EndTime
		out.EndTime = &end
		minutes := int(math.Round(end.Sub(out.StartTime).Minutes()))
		out.Duration = &minutes
		// Terminated is an explicit external decision and is never overridden.
		if in.Status != models.StatusTerminated {
			out.Status = models.StatusCompleted
		}
	}
	if in.IntegrityScore != nil {
		score := *in.IntegrityScore
		out.IntegrityScore = &score
	}

	out.UpdatedAt = now
	return out, nil
}
