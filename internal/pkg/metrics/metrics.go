// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handbook"

// Registry is the registry served on /metrics
var Registry = prometheus.NewRegistry()

var (
	// MessagesWritten counts accepted message writes by operation
	MessagesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_written_total",
		Help:      "Message writes accepted, by operation.",
	}, []string{"op"})

	// NotificationsEmitted counts stored notifications by type
	NotificationsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_emitted_total",
		Help:      "Notifications stored, by type.",
	}, []string{"type"})

	// SideEffectFailures counts notification side effects that were dropped
	SideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Notification side effects that failed or were dropped, by event kind.",
	}, []string{"kind"})

	// HTTPRequestDuration observes request latency by route and status
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// RetentionPurged counts notifications removed by the retention job
	RetentionPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_purged_total",
		Help:      "Read notifications deleted by the retention job.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesWritten,
		NotificationsEmitted,
		SideEffectFailures,
		HTTPRequestDuration,
		RetentionPurged,
	)
}

var queueDepthMu sync.Mutex

// RegisterQueueDepth exposes the backlog of the in-process dispatcher.
// Only the first registration wins, later calls are ignored.
func RegisterQueueDepth(depth func() float64) {
	queueDepthMu.Lock()
	defer queueDepthMu.Unlock()

	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Events waiting in the in-process notification dispatcher.",
	}, depth)

	var already prometheus.AlreadyRegisteredError
	if err := Registry.Register(gauge); err != nil && !errors.As(err, &already) {
		panic(err)
	}
}

// Handler serves the registry in the prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
