package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the proctoring API.
type Metrics struct {
	// Events accepted by POST /events, by event type
	EventsLogged *prometheus.CounterVec

	// Session upserts accepted by POST /sessions
	SessionsUpserted prometheus.Counter

	// Reports served, by format ("json" or "csv")
	ReportsServed *prometheus.CounterVec
}

// New registers the API metrics on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctoring_events_logged_total",
			Help: "Total events accepted, by event type",
		}, []string{"event_type"}),

		SessionsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "proctoring_sessions_upserted_total",
			Help: "Total session upserts accepted",
		}),

		ReportsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proctoring_reports_served_total",
			Help: "Total reports served, by format",
		}, []string{"format"}),
	}
}

// IncEventLogged records one accepted event.
func (m *Metrics) IncEventLogged(eventType string) {
	if m != nil {
		m.EventsLogged.WithLabelValues(eventType).Inc()
	}
}

// IncSessionUpserted records one accepted session upsert.
func (m *Metrics) IncSessionUpserted() {
	if m != nil {
		m.SessionsUpserted.Inc()
	}
}

// IncReportServed records one served report.
func (m *Metrics) IncReportServed(format string) {
	if m != nil {
		m.ReportsServed.WithLabelValues(format).Inc()
	}
}
