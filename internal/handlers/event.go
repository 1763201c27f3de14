package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

// RegisterEventRoutes registers the ingestion-path endpoint.
//
// POST /events
// - Validates the five required fields and the closed eventType set
// - Durable: returns success only after the store write completes
// - Timestamp is server-assigned when the caller omits it
func RegisterEventRoutes(r gin.IRoutes, st store.Store, m *metrics.Metrics) {
	r.POST("/events", func(c *gin.Context) {
		var ev models.Event
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		stored, err := st.AppendEvent(c.Request.Context(), ev)
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save event"})
			return
		}

		log.Printf("event logged: %s for %s (%s)", stored.EventType, stored.CandidateName, stored.CandidateID)
		m.IncEventLogged(stored.EventType)

		c.JSON(http.StatusCreated, models.EventResponse{
			Success: true,
			Message: "Event logged successfully",
			Event:   stored,
		})
	})
}
