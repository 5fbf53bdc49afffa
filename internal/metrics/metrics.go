package metrics

import (
	"sync"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collabdoor_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collabdoor_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ApplicationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabdoor_applications_submitted_total",
			Help: "Applications created, by partnership type.",
		},
		[]string{"partnership_type"},
	)

	ApplicationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabdoor_application_decisions_total",
			Help: "Application status changes, by resulting status.",
		},
		[]string{"status"},
	)

	PhasesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabdoor_phases_generated_total",
			Help: "Phases seeded from templates, by partnership type.",
		},
		[]string{"partnership_type"},
	)

	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabdoor_notifications_total",
			Help: "Notification inserts, by outcome.",
		},
		[]string{"outcome"},
	)

	ReviewsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collabdoor_reviews_submitted_total",
		Help: "Reviews submitted.",
	})

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestDuration,
			ApplicationsSubmitted,
			ApplicationDecisions,
			PhasesGenerated,
			NotificationsCreated,
			ReviewsSubmitted,
		)
	})
}

func Handler() drift.HandlerFunc {
	h := promhttp.Handler()
	return func(c *drift.Context) {
		h.ServeHTTP(c.Response, c.Request)
	}
}

func Instrument() drift.HandlerFunc {
	return func(c *drift.Context) {
		httpInFlight.Inc()
		start := time.Now()
		c.Next()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(time.Since(start).Seconds())
		httpInFlight.Dec()
	}
}
