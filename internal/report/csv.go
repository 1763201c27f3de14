// Package report renders a session's event stream into the downloadable CSV
// proctoring report.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/score"
)

// ErrNoData indicates there are no events to report on. Callers surface it as
// a not-found condition rather than emitting an empty report.
var ErrNoData = errors.New("no events found for this candidate")

// isoTime renders an instant the way the wire format does everywhere else:
// millisecond-precision UTC ISO-8601.
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Filename suggests a download name that will not collide across repeated
// exports for the same candidate.
func Filename(candidateID string, now time.Time) string {
	return fmt.Sprintf("ProctoringReport_%s_%d.csv", candidateID, now.UnixMilli())
}

// BuildCSV renders the report for one candidate's event stream. session may be
// nil, in which case the interview bounds default to the first/last event
// timestamps. Events are re-sorted by ascending timestamp regardless of
// arrival order. Commas inside messages are replaced with semicolons so the
// row format stays unambiguous.
func BuildCSV(session *models.Session, events []models.Event) (string, error) {
	if len(events) == 0 {
		return "", ErrNoData
	}

	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	candidateName := sorted[0].CandidateName
	candidateID := sorted[0].CandidateID
	startTime := sorted[0].Timestamp
	endTime := sorted[len(sorted)-1].Timestamp

	var override *int
	if session != nil {
		override = session.IntegrityScore
		candidateName = session.CandidateName
		candidateID = session.CandidateID
		startTime = session.StartTime
		if session.EndTime != nil {
			endTime = *session.EndTime
		}
	}
	if candidateName == "" {
		candidateName = "Unknown"
	}

	stats := score.Report(sorted, override)

	duration := int(math.Round(endTime.Sub(startTime).Minutes()))
	if session != nil && session.Duration != nil {
		duration = *session.Duration
	}

	var b strings.Builder
	b.WriteString("PROCTORING REPORT SUMMARY\n")
	b.WriteString("========================\n")
	fmt.Fprintf(&b, "Candidate Name,%s\n", candidateName)
	fmt.Fprintf(&b, "Candidate ID,%s\n", candidateID)
	fmt.Fprintf(&b, "Interview Start Time,%s\n", isoTime(startTime))
	fmt.Fprintf(&b, "Interview End Time,%s\n", isoTime(endTime))
	fmt.Fprintf(&b, "Interview Duration (minutes),%d\n", duration)
	fmt.Fprintf(&b, "Focus Lost Count,%d\n", stats.FocusLostCount)
	fmt.Fprintf(&b, "Suspicious Events Count,%d\n", stats.SuspiciousEvents)
	fmt.Fprintf(&b, "Integrity Score,%d\n", stats.IntegrityScore)
	fmt.Fprintf(&b, "Total Events Logged,%d\n", stats.TotalEvents)
	b.WriteString("\n")
	b.WriteString("DETAILED EVENT LOGS\n")
	b.WriteString("==================\n")
	b.WriteString("Event Type,Message,Timestamp,Session ID\n")

	for _, e := range sorted {
		msg := strings.ReplaceAll(e.Message, ",", ";")
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", e.EventType, msg, isoTime(e.Timestamp), e.SessionID)
	}

	return b.String(), nil
}
