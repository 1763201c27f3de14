package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iwanturequity/proctoring-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for events and sessions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// AppendEvent persists one event. Each insert is an independent row, so
// concurrent appends never race on shared state.
func (p *PostgresStore) AppendEvent(ctx context.Context, ev models.Event) (models.Event, error) {
	ev, err := prepareEvent(ev, time.Now().UTC())
	if err != nil {
		return models.Event{}, err
	}

	metaJSON, err := json.Marshal(ev.Meta)
	if err != nil {
		return models.Event{}, err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO proctoring_events(id, candidate_id, candidate_name, event_type, message, ts, meta, session_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8,$9)
	`, ev.ID, ev.CandidateID, ev.CandidateName, ev.EventType, ev.Message, ev.Timestamp, string(metaJSON), ev.SessionID, ev.CreatedAt)
	if err != nil {
		return models.Event{}, err
	}

	return ev, nil
}

// UpsertSession merges the payload over any existing record and writes the
// full row back. Concurrent upserts for the same sessionId resolve
// last-write-wins; the row lock keeps each merge-and-write atomic.
func (p *PostgresStore) UpsertSession(ctx context.Context, in models.SessionUpsert) (models.Session, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return models.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing *models.Session
	row := tx.QueryRow(ctx, sessionSelect+` WHERE session_id=$1 FOR UPDATE`, in.SessionID)
	s, err := scanSession(row)
	switch {
	case err == nil:
		existing = &s
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return models.Session{}, err
	}

	out, err := prepareSession(existing, in, time.Now().UTC())
	if err != nil {
		return models.Session{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO interview_sessions(session_id, candidate_id, candidate_name, start_time, end_time, duration, integrity_score, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (session_id) DO UPDATE SET
			candidate_id    = EXCLUDED.candidate_id,
			candidate_name  = EXCLUDED.candidate_name,
			start_time      = EXCLUDED.start_time,
			end_time        = EXCLUDED.end_time,
			duration        = EXCLUDED.duration,
			integrity_score = EXCLUDED.integrity_score,
			status          = EXCLUDED.status,
			updated_at      = EXCLUDED.updated_at
	`, out.SessionID, out.CandidateID, out.CandidateName, out.StartTime, out.EndTime,
		out.Duration, out.IntegrityScore, out.Status, out.CreatedAt, out.UpdatedAt)
	if err != nil {
		return models.Session{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Session{}, err
	}
	return out, nil
}

const eventSelect = `
	SELECT id, candidate_id, candidate_name, event_type, message, ts, meta, session_id, created_at
	FROM proctoring_events`

// EventsByCandidate returns the candidate's events, optionally narrowed to one
// session, in ascending timestamp order.
func (p *PostgresStore) EventsByCandidate(ctx context.Context, candidateID, sessionID string) ([]models.Event, error) {
	query := eventSelect + ` WHERE candidate_id=$1 ORDER BY ts ASC`
	args := []interface{}{candidateID}
	if sessionID != "" {
		query = eventSelect + ` WHERE candidate_id=$1 AND session_id=$2 ORDER BY ts ASC`
		args = append(args, sessionID)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

// EventsBySession returns one session's events ascending by timestamp, or
// ErrNotFound when the session does not exist.
func (p *PostgresStore) EventsBySession(ctx context.Context, sessionID string) ([]models.Event, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM interview_sessions WHERE session_id=$1)`, sessionID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := p.pool.Query(ctx, eventSelect+` WHERE session_id=$1 ORDER BY ts ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

const sessionSelect = `
	SELECT session_id, candidate_id, candidate_name, start_time, end_time, duration, integrity_score, status, created_at, updated_at
	FROM interview_sessions`

// LatestSession returns the most recently created session for the filter.
func (p *PostgresStore) LatestSession(ctx context.Context, candidateID, sessionID string) (*models.Session, error) {
	query := sessionSelect + ` WHERE candidate_id=$1 ORDER BY created_at DESC LIMIT 1`
	args := []interface{}{candidateID}
	if sessionID != "" {
		query = sessionSelect + ` WHERE candidate_id=$1 AND session_id=$2 ORDER BY created_at DESC LIMIT 1`
		args = append(args, sessionID)
	}

	s, err := scanSession(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionByID returns the session keyed by sessionID, or ErrNotFound.
func (p *PostgresStore) SessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	s, err := scanSession(p.pool.QueryRow(ctx, sessionSelect+` WHERE session_id=$1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectEvents(rows pgx.Rows) ([]models.Event, error) {
	events := []models.Event{}
	for rows.Next() {
		var ev models.Event
		var metaJSON []byte
		if err := rows.Scan(&ev.ID, &ev.CandidateID, &ev.CandidateName, &ev.EventType,
			&ev.Message, &ev.Timestamp, &metaJSON, &ev.SessionID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &ev.Meta); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	var score int
	err := row.Scan(&s.SessionID, &s.CandidateID, &s.CandidateName, &s.StartTime,
		&s.EndTime, &s.Duration, &score, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.Session{}, err
	}
	s.IntegrityScore = &score
	return s, nil
}
