package models

import "time"

// Event types emitted by the detection pipeline. The set is closed: the store
// rejects anything else.
const (
	EventFace           = "face"
	EventNoFace         = "no-face"
	EventMultipleFaces  = "multiple-faces"
	EventLookAway       = "look-away"
	EventFocusLost      = "focus-lost"
	EventPhoneDetected  = "phone-detected"
	EventNotesDetected  = "notes-detected"
	EventBook           = "book"
	EventLaptop         = "laptop"
	EventKeyboard       = "keyboard"
	EventMouse          = "mouse"
	EventNotebook       = "notebook"
	EventPaper          = "paper"
	EventObjectCleared  = "object-cleared"
	EventInterviewStart = "interview-start"
	EventInterviewEnd   = "interview-end"
)

var eventTypes = map[string]struct{}{
	EventFace: {}, EventNoFace: {}, EventMultipleFaces: {}, EventLookAway: {},
	EventFocusLost: {}, EventPhoneDetected: {}, EventNotesDetected: {}, EventBook: {},
	EventLaptop: {}, EventKeyboard: {}, EventMouse: {}, EventNotebook: {},
	EventPaper: {}, EventObjectCleared: {}, EventInterviewStart: {}, EventInterviewEnd: {},
}

// ValidEventType reports whether t belongs to the closed event-type set.
func ValidEventType(t string) bool {
	_, ok := eventTypes[t]
	return ok
}

// Event is one timestamped observation recorded during a proctoring session.
// Events are immutable once stored; the store only ever appends.
type Event struct {
	ID            string                 `json:"id,omitempty"`
	CandidateID   string                 `json:"candidateId"`
	CandidateName string                 `json:"candidateName"`
	EventType     string                 `json:"eventType"`
	Message       string                 `json:"message"`
	Timestamp     time.Time              `json:"timestamp"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
	SessionID     string                 `json:"sessionId"`
	CreatedAt     time.Time              `json:"createdAt,omitempty"`
}

// EventResponse is returned by POST /events.
type EventResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Event   Event  `json:"event"`
}
