package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type PrometheusMetricsTestSuite struct {
	suite.Suite
	registry *prometheus.Registry
	metrics  *PrometheusMetrics
}

func (s *PrometheusMetricsTestSuite) SetupTest() {
	s.registry = prometheus.NewRegistry()
	s.metrics = NewPrometheusMetrics(s.registry).(*PrometheusMetrics)
}

func TestPrometheusMetricsSuite(t *testing.T) {
	suite.Run(t, new(PrometheusMetricsTestSuite))
}

func (s *PrometheusMetricsTestSuite) TestTransactionCounters() {
	s.metrics.IncrementCounter("transaction_created", map[string]string{"status": "success", "type": "income"})
	s.metrics.IncrementCounter("transaction_created", map[string]string{"status": "success", "type": "income"})
	s.metrics.IncrementCounter("transaction_deleted", nil)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.transactionsCreated.WithLabelValues("success", "income")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.transactionsDeleted))
}

func (s *PrometheusMetricsTestSuite) TestAuthenticationEvents() {
	s.metrics.IncrementCounter("authentication_event", map[string]string{"event_type": "login_success"})
	s.metrics.IncrementCounter("authentication_event", map[string]string{})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.authenticationEventsTotal.WithLabelValues("login_success")))
	s.Equal(1, testutil.CollectAndCount(s.metrics.authenticationEventsTotal))
}

func (s *PrometheusMetricsTestSuite) TestRecurrenceGauges() {
	s.metrics.RecordGauge("recurrence_due_templates", 4, nil)
	s.metrics.RecordGauge("recurrence_last_run", 3, map[string]string{"status": "created"})
	s.metrics.RecordGauge("recurrence_last_run", 1, map[string]string{"status": "skipped"})

	s.Equal(4.0, testutil.ToFloat64(s.metrics.recurrenceDueTemplates))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.recurrenceLastRun.WithLabelValues("created")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.recurrenceLastRun.WithLabelValues("skipped")))
}

func (s *PrometheusMetricsTestSuite) TestDurations() {
	s.metrics.RecordProcessingTime("transaction_export", 25*time.Millisecond)
	s.metrics.RecordProcessingTime("recurrence_run", 2*time.Second)
	s.metrics.RecordProcessingTime("unknown", time.Second)

	s.Equal(1, testutil.CollectAndCount(s.metrics.exportDuration))
	s.Equal(1, testutil.CollectAndCount(s.metrics.recurrenceRunDuration))
}

func (s *PrometheusMetricsTestSuite) TestRegistersWithRegistry() {
	families, err := s.registry.Gather()
	s.Require().NoError(err)
	s.NotNil(families)
}
