package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	gradeConflictsTotal    *prometheus.CounterVec
	autoSubmitsTotal       prometheus.Counter
	notificationsPublished *prometheus.CounterVec
	wsClientsActive        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusflow_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusflow_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusflow_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradeConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusflow_grade_conflicts_total",
			Help: "Grade writes rejected because the submission version was stale.",
		}, []string{"entity"})

		autoSubmitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campusflow_quiz_auto_submits_total",
			Help: "Quiz attempts force-closed after their timer expired.",
		})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusflow_notifications_published_total",
			Help: "Notifications published, labelled by type.",
		}, []string{"type"})

		wsClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campusflow_ws_clients_active",
			Help: "Currently connected notification websocket clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradeConflictsTotal,
			autoSubmitsTotal,
			notificationsPublished,
			wsClientsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradeConflicts exposes the stale-grade-write counter.
func GradeConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeConflictsTotal
}

// AutoSubmits exposes the expired-attempt close counter.
func AutoSubmits() prometheus.Counter {
	RegisterMetrics()
	return autoSubmitsTotal
}

// NotificationsPublishedTotal exposes the notification counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// WSClientsActive exposes the live subscriber gauge.
func WSClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return wsClientsActive
}
