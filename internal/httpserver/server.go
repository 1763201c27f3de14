package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iwanturequity/proctoring-service/internal/handlers"
	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

// NewRouter wires the public endpoints and the proctoring APIs.
func NewRouter(st store.Store, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// API information block, matching what clients probe on first load.
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Proctoring System API",
			"status":  "Active",
			"version": "1.0.0",
			"endpoints": gin.H{
				"health":   "/health",
				"events":   "POST /events",
				"sessions": "POST /sessions",
				"reports":  "GET /reports/:candidateId",
				"csv":      "GET /report/csv/:candidateId",
				"session":  "GET /sessions/:sessionId",
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "Proctoring backend is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  "connected",
		})
	})

	// Readiness: confirms the store dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterEventRoutes(r, st, m)
	handlers.RegisterSessionRoutes(r, st, m)
	handlers.RegisterReportRoutes(r, st, m)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "path": c.Request.URL.Path})
	})

	return r
}
