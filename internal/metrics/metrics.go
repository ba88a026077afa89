// Package metrics exposes Prometheus instrumentation for the booking engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueueWaiting = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "turnstile_queue_waiting",
		Help: "Entries waiting for admission, per showtime",
	}, []string{"showtime"})

	QueueReady = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "turnstile_queue_ready",
		Help: "Entries inside the active booking window, per showtime",
	}, []string{"showtime"})

	ActiveHolds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turnstile_active_holds",
		Help: "Seats currently under an active hold",
	})

	HoldsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turnstile_holds_total",
		Help: "Hold attempts by outcome",
	}, []string{"outcome"}) // acquired, rejected, released, expired

	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turnstile_reservations_total",
		Help: "Reservation transitions by outcome",
	}, []string{"outcome"}) // created, confirmed, cancelled, expired, failed

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turnstile_seat_subscribers",
		Help: "Open seat-status subscriptions",
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "turnstile_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
