package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Intake workflow metrics
	intakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intakes_total",
			Help: "Total number of patient intakes by outcome",
		},
		[]string{"outcome"},
	)

	triageScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_scores",
			Help:    "Distribution of assigned triage scores",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	triageFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_fallbacks_total",
			Help: "Total number of triage calls that degraded to the default score",
		},
	)

	alertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emergency_alerts_total",
			Help: "Total number of emergency alerts created",
		},
	)

	assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doctor_assignments_total",
			Help: "Total number of doctor assignment attempts by result",
		},
		[]string{"result"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of doctor notifications by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		intakesTotal,
		triageScores,
		triageFallbacksTotal,
		alertsTotal,
		assignmentsTotal,
		notificationsTotal,
	)
}

// RecordIntake records a completed intake with its outcome
// (assigned, unassigned, failed)
func RecordIntake(outcome string) {
	intakesTotal.WithLabelValues(outcome).Inc()
}

// RecordTriageScore records an assigned triage score
func RecordTriageScore(score int) {
	triageScores.Observe(float64(score))
}

// RecordTriageFallback records a scorer call that fell back to the default
func RecordTriageFallback() {
	triageFallbacksTotal.Inc()
}

// RecordAlert records a created emergency alert
func RecordAlert() {
	alertsTotal.Inc()
}

// RecordAssignment records an assignment attempt result
// (assigned, none_available, contention)
func RecordAssignment(result string) {
	assignmentsTotal.WithLabelValues(result).Inc()
}

// RecordNotification records a notification attempt (sent, failed)
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
