package models

import "time"

// Session statuses.
const (
	StatusActive     = "active"
	StatusCompleted  = "completed"
	StatusTerminated = "terminated"
)

// Session is one proctoring interview instance, keyed by SessionID. Upserts
// are idempotent on that key; EndTime being set implies the session finished.
type Session struct {
	SessionID      string     `json:"sessionId"`
	CandidateID    string     `json:"candidateId"`
	CandidateName  string     `json:"candidateName"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Duration       *int       `json:"duration,omitempty"` // minutes
	IntegrityScore *int       `json:"integrityScore,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt,omitempty"`
}

// SessionUpsert is the POST /sessions payload. Optional fields left nil are
// preserved on an existing record; supplied fields overwrite (last write wins).
type SessionUpsert struct {
	SessionID      string     `json:"sessionId"`
	CandidateID    string     `json:"candidateId"`
	CandidateName  string     `json:"candidateName"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	IntegrityScore *int       `json:"integrityScore,omitempty"`
	Status         string     `json:"status,omitempty"`
}

// SessionResponse is returned by POST /sessions.
type SessionResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Session Session `json:"session"`
}
