package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	transactionsCreated       *prometheus.CounterVec
	transactionsDeleted       prometheus.Counter
	exportDuration            prometheus.Histogram
	recurrenceDueTemplates    prometheus.Gauge
	recurrenceLastRun         *prometheus.GaugeVec
	recurrenceRunDuration     prometheus.Histogram
	authenticationEventsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the finance tracker metrics with reg.
// The server passes prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		transactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_created_total",
				Help: "Total number of transactions created",
			},
			[]string{"status", "type"},
		),
		transactionsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transactions_deleted_total",
				Help: "Total number of transactions deleted",
			},
		),
		exportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transaction_export_duration_milliseconds",
				Help:    "CSV export duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		recurrenceDueTemplates: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "recurrence_due_templates",
				Help: "Recurring templates found due in the last run",
			},
		),
		recurrenceLastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "recurrence_last_run_occurrences",
				Help: "Occurrences handled in the last recurrence run by outcome",
			},
			[]string{"status"},
		),
		recurrenceRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recurrence_run_duration_seconds",
				Help:    "Recurrence run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case "transaction_created":
		m.transactionsCreated.WithLabelValues(tags["status"], tags["type"]).Inc()
	case "transaction_deleted":
		m.transactionsDeleted.Inc()
	case "authentication_event":
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "transaction_export":
		m.exportDuration.Observe(float64(duration.Milliseconds()))
	case "recurrence_run":
		m.recurrenceRunDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "recurrence_due_templates":
		m.recurrenceDueTemplates.Set(value)
	case "recurrence_last_run":
		if status := tags["status"]; status != "" {
			m.recurrenceLastRun.WithLabelValues(status).Set(value)
		}
	}
}
