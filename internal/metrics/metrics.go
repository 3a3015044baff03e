package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "civic"
	subsystem = "department"
)

// Collector holds all metrics for the department service.
// Recording methods are no-ops on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	complaintsIngested prometheus.Counter
	statusUpdates      *prometheus.CounterVec
	authRejections     *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	eventPublishErrors prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		complaintsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "complaints_ingested_total",
			Help:      "Total number of complaints accepted from the gateway",
		}),
		statusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_updates_total",
			Help:      "Total number of applied status updates by target status",
		}, []string{"status"}),
		authRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "auth_rejections_total",
			Help:      "Requests rejected by the service token gate",
		}, []string{"reason"}),
		operationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_failures_total",
			Help:      "Internal failures by complaint operation",
		}, []string{"operation"}),
		eventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "event_publish_errors_total",
			Help:      "Lifecycle events that could not be published",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (c *Collector) RecordIngest() {
	if c == nil {
		return
	}
	c.complaintsIngested.Inc()
}

func (c *Collector) RecordStatusUpdate(status string) {
	if c == nil {
		return
	}
	c.statusUpdates.WithLabelValues(status).Inc()
}

// RecordAuthRejection counts a gate rejection; reason is "unauthenticated" or "forbidden".
func (c *Collector) RecordAuthRejection(reason string) {
	if c == nil {
		return
	}
	c.authRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordFailure(operation string) {
	if c == nil {
		return
	}
	c.operationFailures.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordPublishError() {
	if c == nil {
		return
	}
	c.eventPublishErrors.Inc()
}

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
