// Package score computes integrity statistics over a session's event stream.
//
// Two variants exist on purpose and must not be merged: the report variant is
// what the backend persists and exports, while the live variant is what the
// candidate-facing UI shows while the interview is still running. They count
// different event-type sets and can disagree for the same session.
package score

import "github.com/iwanturequity/proctoring-service/internal/models"

// Stats is the aggregate over one candidate/session event stream.
type Stats struct {
	TotalEvents      int `json:"totalEvents"`
	FocusLostCount   int `json:"focusLostCount"`
	SuspiciousEvents int `json:"suspiciousEvents"`
	IntegrityScore   int `json:"integrityScore"`
}

// reportSuspicious is the event-type set the report variant penalizes.
var reportSuspicious = map[string]struct{}{
	models.EventMultipleFaces: {},
	models.EventNoFace:        {},
	models.EventPhoneDetected: {},
	models.EventNotesDetected: {},
	models.EventBook:          {},
	models.EventLaptop:        {},
}

// liveSuspicious is the smaller set the live UI penalizes.
var liveSuspicious = map[string]struct{}{
	models.EventMultipleFaces: {},
	models.EventNoFace:        {},
	models.EventPhoneDetected: {},
	models.EventNotesDetected: {},
}

// Report computes the server-side statistics for a report. focusLost counts
// look-away and focus-lost events; suspicious counts the six-type set. When
// override is nil the score is 100 minus 5 per focus-lost and 10 per
// suspicious event, deliberately unclamped below zero. A non-nil override
// (the session's stored score) wins over the derived value.
func Report(events []models.Event, override *int) Stats {
	s := Stats{TotalEvents: len(events)}
	for _, e := range events {
		if e.EventType == models.EventLookAway || e.EventType == models.EventFocusLost {
			s.FocusLostCount++
		}
		if _, ok := reportSuspicious[e.EventType]; ok {
			s.SuspiciousEvents++
		}
	}
	if override != nil {
		s.IntegrityScore = *override
	} else {
		s.IntegrityScore = 100 - 5*s.FocusLostCount - 10*s.SuspiciousEvents
	}
	return s
}

// Live computes the client-side statistics shown during an active interview.
// Only focus-lost events count toward focusLost, and book/laptop detections
// are excluded from the suspicious set.
func Live(events []models.Event) Stats {
	s := Stats{TotalEvents: len(events)}
	for _, e := range events {
		if e.EventType == models.EventFocusLost {
			s.FocusLostCount++
		}
		if _, ok := liveSuspicious[e.EventType]; ok {
			s.SuspiciousEvents++
		}
	}
	s.IntegrityScore = 100 - 5*s.FocusLostCount - 10*s.SuspiciousEvents
	return s
}
