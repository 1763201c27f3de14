package proctor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwanturequity/proctoring-service/internal/models"
)

func TestSessionLog_AppendStampsIdentity(t *testing.T) {
	l := NewSessionLog("cand-1", "Jane Doe")

	ev := l.Append(models.EventFocusLost, "Focus lost", nil)
	assert.Equal(t, "cand-1", ev.CandidateID)
	assert.Equal(t, "Jane Doe", ev.CandidateName)
	assert.Equal(t, l.SessionID(), ev.SessionID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.NotNil(t, ev.Meta)
}

func TestSessionLog_GeneratesIDsWhenMissing(t *testing.T) {
	l := NewSessionLog("", "Jane Doe")
	assert.True(t, strings.HasPrefix(l.CandidateID(), "candidate_"))
	assert.True(t, strings.HasPrefix(l.SessionID(), "session_"))
}

func TestSessionLog_EventsSnapshotIsACopy(t *testing.T) {
	l := NewSessionLog("cand-1", "Jane Doe")
	l.Append(models.EventLookAway, "Candidate looking away", nil)

	snap := l.Events()
	require.Len(t, snap, 1)
	snap[0].Message = "mutated"

	assert.Equal(t, "Candidate looking away", l.Events()[0].Message)
}

func TestSessionLog_LiveStatsUseClientVariant(t *testing.T) {
	l := NewSessionLog("cand-1", "Jane Doe")
	l.Append(models.EventLookAway, "Candidate looking away", nil) // not counted live
	l.Append(models.EventFocusLost, "Focus lost", nil)            // -5
	l.Append(models.EventPhoneDetected, "Mobile phone detected", nil) // -10
	l.Append(models.EventBook, "Book detected", nil)              // not counted live

	stats := l.LiveStats()
	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, 1, stats.FocusLostCount)
	assert.Equal(t, 1, stats.SuspiciousEvents)
	assert.Equal(t, 85, stats.IntegrityScore)
}

func TestSessionLog_UpsertPayloads(t *testing.T) {
	l := NewSessionLog("cand-1", "Jane Doe")
	l.Append(models.EventFocusLost, "Focus lost", nil)

	start := l.StartUpsert()
	assert.Equal(t, models.StatusActive, start.Status)
	require.NotNil(t, start.StartTime)
	assert.Nil(t, start.EndTime)

	end := time.Now().UTC().Add(30 * time.Minute)
	done := l.EndUpsert(end)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, end, *done.EndTime)
	require.NotNil(t, done.IntegrityScore)
	assert.Equal(t, 95, *done.IntegrityScore)
}
