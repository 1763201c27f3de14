package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

// RegisterSessionRoutes registers session upsert and lookup.
//
// POST /sessions
// - Insert-or-update keyed by sessionId; endTime derives duration and
//   completed status
//
// GET /sessions/:sessionId
// - One session plus its full event stream, 404 when unknown
func RegisterSessionRoutes(r gin.IRoutes, st store.Store, m *metrics.Metrics) {
	r.POST("/sessions", func(c *gin.Context) {
		var in models.SessionUpsert
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		sess, err := st.UpsertSession(c.Request.Context(), in)
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update session"})
			return
		}

		m.IncSessionUpserted()

		c.JSON(http.StatusOK, models.SessionResponse{
			Success: true,
			Message: "Session updated successfully",
			Session: sess,
		})
	})

	r.GET("/sessions/:sessionId", func(c *gin.Context) {
		sessionID := c.Param("sessionId")

		sess, err := st.SessionByID(c.Request.Context(), sessionID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch session"})
			return
		}

		events, err := st.EventsBySession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"session":     sess,
			"eventsCount": len(events),
			"events":      events,
		})
	})
}
