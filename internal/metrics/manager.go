package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/liftlog/internal/records"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the application's Prometheus collectors.
type Manager struct {
	gatherer prometheus.Gatherer

	// counters
	CounterRequests    *prometheus.CounterVec
	CounterEvaluations *prometheus.CounterVec
	CounterNewRecords  prometheus.Counter
	CounterFinished    prometheus.Counter

	// histograms
	HistRequestDuration    prometheus.Histogram
	HistEvaluationDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("liftlog", "test", prometheus.NewRegistry())
}

// NewManager registers all collectors on reg. reg is also used as the
// gatherer for Handler.
func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		gatherer: reg,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
		CounterEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_evaluations_total",
			Help:      "Personal record evaluations by outcome",
		}, []string{"result"}),
		CounterNewRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_new_total",
			Help:      "Personal record rows inserted",
		}),
		CounterFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_finished_total",
			Help:      "Training sessions marked finished",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}),
		HistEvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_evaluation_duration_seconds",
			Help:      "Duration of a personal record evaluation, store round trips included",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveRequest counts one served HTTP request.
func (m *Manager) ObserveRequest(method string, status int, d time.Duration) {
	m.CounterRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HistRequestDuration.Observe(d.Seconds())
}

// ObserveEvaluation records the outcome of one records.EvaluateSession call.
func (m *Manager) ObserveEvaluation(d time.Duration, newRecords int, err error) {
	m.HistEvaluationDuration.Observe(d.Seconds())
	m.CounterEvaluations.WithLabelValues(evaluationResult(err)).Inc()
	if newRecords > 0 {
		m.CounterNewRecords.Add(float64(newRecords))
	}
}

// Handler exposes the registered collectors in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func evaluationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, records.ErrStoreRead):
		return "read_error"
	case errors.Is(err, records.ErrStoreWrite):
		return "write_error"
	default:
		return "error"
	}
}
