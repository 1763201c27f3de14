package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/report"
	"github.com/iwanturequity/proctoring-service/internal/score"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

// RegisterReportRoutes registers the serving-path endpoints.
//
// GET /reports/:candidateId?sessionId=   aggregate report as JSON
// GET /report/csv/:candidateId?sessionId= CSV download
//
// Without a sessionId the session context falls back to the candidate's most
// recently created session, which is ambiguous under concurrent sessions; the
// statistics are computed over whatever event set the filter selects.
func RegisterReportRoutes(r gin.IRoutes, st store.Store, m *metrics.Metrics) {
	r.GET("/reports/:candidateId", func(c *gin.Context) {
		candidateID := c.Param("candidateId")
		sessionID := c.Query("sessionId")

		events, sess, err := loadReportData(c, st, candidateID, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
			return
		}

		var override *int
		if sess != nil {
			override = sess.IntegrityScore
		}
		stats := score.Report(events, override)

		candidateName := "Unknown"
		if len(events) > 0 {
			candidateName = events[0].CandidateName
		}

		m.IncReportServed("json")

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"candidateId":   candidateID,
			"candidateName": candidateName,
			"session":       sess,
			"statistics":    stats,
			"events":        events,
			"totalEvents":   stats.TotalEvents,
		})
	})

	r.GET("/report/csv/:candidateId", func(c *gin.Context) {
		candidateID := c.Param("candidateId")
		sessionID := c.Query("sessionId")

		events, sess, err := loadReportData(c, st, candidateID, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSV report"})
			return
		}

		csv, err := report.BuildCSV(sess, events)
		if errors.Is(err, report.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No events found for this candidate"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSV report"})
			return
		}

		log.Printf("CSV report generated for candidate %s", candidateID)
		m.IncReportServed("csv")

		filename := report.Filename(candidateID, time.Now())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/csv", []byte(csv))
	})
}

// loadReportData fetches the candidate's events and session context. A missing
// session is not an error; the report falls back to event-derived bounds.
func loadReportData(c *gin.Context, st store.Store, candidateID, sessionID string) ([]models.Event, *models.Session, error) {
	events, err := st.EventsByCandidate(c.Request.Context(), candidateID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	sess, err := st.LatestSession(c.Request.Context(), candidateID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return events, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return events, sess, nil
}
