// Package metrics exposes Prometheus collectors for wisdombot.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	broadcastsTotal            *prometheus.CounterVec
	tierFallthroughTotal       *prometheus.CounterVec
	channelSendsTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	scheduledRunsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		broadcastsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisdombot_broadcasts_total",
				Help: "Broadcast dispatches, labeled by selected tier and status.",
			},
			[]string{"tier", "status"},
		)

		tierFallthroughTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisdombot_tier_fallthrough_total",
				Help: "Selection tiers that yielded no content, labeled by tier.",
			},
			[]string{"tier"},
		)

		channelSendsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisdombot_channel_sends_total",
				Help: "Deliveries per broadcast channel, labeled by channel and status.",
			},
			[]string{"channel", "status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"method", "route"},
		)

		scheduledRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisdombot_scheduled_runs_total",
				Help: "Scheduler triggers, labeled by schedule name and result.",
			},
			[]string{"name", "result"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveBroadcast counts one dispatch.
func ObserveBroadcast(tier, status string) {
	Init()
	broadcastsTotal.WithLabelValues(tier, status).Inc()
}

// ObserveFallthrough counts a tier that produced nothing.
func ObserveFallthrough(tier string) {
	Init()
	tierFallthroughTotal.WithLabelValues(tier).Inc()
}

// ObserveChannelSend counts one channel delivery.
func ObserveChannelSend(channel string, err error) {
	Init()
	status := "ok"
	if err != nil {
		status = "error"
	}
	channelSendsTotal.WithLabelValues(channel, status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveScheduledRun counts one scheduler trigger ("ok", "error", "skipped").
func ObserveScheduledRun(name, result string) {
	Init()
	scheduledRunsTotal.WithLabelValues(name, result).Inc()
}
