package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwanturequity/proctoring-service/internal/httpserver"
	"github.com/iwanturequity/proctoring-service/internal/metrics"
	"github.com/iwanturequity/proctoring-service/internal/models"
	"github.com/iwanturequity/proctoring-service/internal/store"
)

func newTestRouter() (*gin.Engine, *store.MemoryStore) {
	st := store.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	return httpserver.NewRouter(st, m), st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func eventPayload(eventType string) map[string]interface{} {
	return map[string]interface{}{
		"candidateId":   "cand-1",
		"candidateName": "Jane Doe",
		"eventType":     eventType,
		"message":       eventType + " observed",
		"sessionId":     "sess-1",
	}
}

func TestPostEvents(t *testing.T) {
	router, _ := newTestRouter()

	t.Run("valid event returns 201 with stored record", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/events", eventPayload(models.EventLookAway))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp models.EventResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Event.ID)
		assert.False(t, resp.Event.Timestamp.IsZero())
	})

	t.Run("missing field returns 400", func(t *testing.T) {
		payload := eventPayload(models.EventLookAway)
		delete(payload, "sessionId")
		w := doJSON(t, router, http.MethodPost, "/events", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing required fields")
	})

	t.Run("unknown event type returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/events", eventPayload("dance-detected"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "dance-detected")
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPostSessions(t *testing.T) {
	router, _ := newTestRouter()

	upsert := map[string]interface{}{
		"sessionId":     "sess-1",
		"candidateId":   "cand-1",
		"candidateName": "Jane Doe",
	}

	t.Run("upsert returns 200 with defaults", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions", upsert)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, models.StatusActive, resp.Session.Status)
		require.NotNil(t, resp.Session.IntegrityScore)
		assert.Equal(t, 100, *resp.Session.IntegrityScore)
	})

	t.Run("completing upsert derives duration and status", func(t *testing.T) {
		start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
		end := start.Add(25 * time.Minute)
		payload := map[string]interface{}{
			"sessionId":      "sess-1",
			"candidateId":    "cand-1",
			"candidateName":  "Jane Doe",
			"startTime":      start.Format(time.RFC3339),
			"endTime":        end.Format(time.RFC3339),
			"integrityScore": 80,
		}
		w := doJSON(t, router, http.MethodPost, "/sessions", payload)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusCompleted, resp.Session.Status)
		require.NotNil(t, resp.Session.Duration)
		assert.Equal(t, 25, *resp.Session.Duration)
		assert.Equal(t, 80, *resp.Session.IntegrityScore)
	})

	t.Run("missing field returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions", map[string]interface{}{"sessionId": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetReports(t *testing.T) {
	router, _ := newTestRouter()

	for _, ty := range []string{models.EventLookAway, models.EventPhoneDetected, models.EventMultipleFaces} {
		w := doJSON(t, router, http.MethodPost, "/events", eventPayload(ty))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("statistics follow the report scoring variant", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/reports/cand-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success       bool   `json:"success"`
			CandidateName string `json:"candidateName"`
			Statistics    struct {
				TotalEvents      int `json:"totalEvents"`
				FocusLostCount   int `json:"focusLostCount"`
				SuspiciousEvents int `json:"suspiciousEvents"`
				IntegrityScore   int `json:"integrityScore"`
			} `json:"statistics"`
			TotalEvents int `json:"totalEvents"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Jane Doe", resp.CandidateName)
		assert.Equal(t, 3, resp.Statistics.TotalEvents)
		assert.Equal(t, 1, resp.Statistics.FocusLostCount)
		assert.Equal(t, 2, resp.Statistics.SuspiciousEvents)
		assert.Equal(t, 75, resp.Statistics.IntegrityScore)
		assert.Equal(t, 3, resp.TotalEvents)
	})

	t.Run("stored session score overrides the derived one", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions", map[string]interface{}{
			"sessionId":      "sess-1",
			"candidateId":    "cand-1",
			"candidateName":  "Jane Doe",
			"integrityScore": 55,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/reports/cand-1?sessionId=sess-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Statistics struct {
				IntegrityScore int `json:"integrityScore"`
			} `json:"statistics"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 55, resp.Statistics.IntegrityScore)
	})

	t.Run("unknown candidate still reports, with zero events", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/reports/nobody", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"candidateName":"Unknown"`)
		assert.Contains(t, w.Body.String(), `"integrityScore":100`)
	})
}

func TestGetCSVReport(t *testing.T) {
	router, _ := newTestRouter()

	t.Run("zero events returns 404, not an empty CSV", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/report/csv/cand-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "No events found")
	})

	t.Run("events yield a CSV attachment", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/events", eventPayload(models.EventPhoneDetected))
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, router, http.MethodGet, "/report/csv/cand-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "ProctoringReport_cand-1_")
		assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Body.String(), "PROCTORING REPORT SUMMARY")
		assert.Contains(t, w.Body.String(), "Integrity Score,90")
	})
}

func TestGetSession(t *testing.T) {
	router, st := newTestRouter()

	t.Run("unknown session returns 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/sessions/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Session not found")
	})

	t.Run("known session returns record plus events", func(t *testing.T) {
		_, err := st.UpsertSession(context.Background(), models.SessionUpsert{
			SessionID: "sess-1", CandidateID: "cand-1", CandidateName: "Jane Doe",
		})
		require.NoError(t, err)
		w := doJSON(t, router, http.MethodPost, "/events", eventPayload(models.EventNoFace))
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, router, http.MethodGet, "/sessions/sess-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success     bool           `json:"success"`
			Session     models.Session `json:"session"`
			EventsCount int            `json:"eventsCount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "sess-1", resp.Session.SessionID)
		assert.Equal(t, 1, resp.EventsCount)
	})
}

func TestPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter()

	t.Run("health", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"OK"`)
	})

	t.Run("ready", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("root lists endpoints", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "POST /events")
	})

	t.Run("unknown route returns JSON 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Route not found")
	})
}
