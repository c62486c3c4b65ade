// Package metrics groups the Prometheus instruments for the intake service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all instruments. One instance per process.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	PromptsSent      *prometheus.CounterVec
	ExtractionMisses prometheus.Counter
	LeadDispatches   *prometheus.CounterVec
}

// New registers the instruments under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open relay sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		PromptsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompts_sent_total",
			Help:      "Prompts emitted to the relay by dialogue step.",
		}, []string{"step"}),
		ExtractionMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_misses_total",
			Help:      "Inbound events from which no utterance could be extracted.",
		}),
		LeadDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_dispatches_total",
			Help:      "Lead dispatch outcomes.",
		}, []string{"status"}),
	}
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
