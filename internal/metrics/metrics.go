// Package metrics exposes Prometheus counters and histograms for the HTTP
// API, the analytics engine and the alert publisher.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances (tests, embedded
// servers) never collide on metric names. A nil *Collector is a no-op.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	anomaliesDetected *prometheus.CounterVec
	analyticsErrors   *prometheus.CounterVec
	alertsPublished   prometheus.Counter
	alertErrors       prometheus.Counter
}

// New registers all metrics under namespace
func New(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		anomaliesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_detected_total",
			Help:      "Total number of anomalies detected",
		}, []string{"algorithm", "severity"}),
		analyticsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_errors_total",
			Help:      "Analytics operations rejected or failed, by error code",
		}, []string{"operation", "code"}),
		alertsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Alerts accepted by the alert queue",
		}),
		alertErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Failed alert publish attempts",
		}),
	}
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware records request count and latency. Routes are labelled by
// their pattern, not the raw path, to bound cardinality.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if c == nil {
			return ctx.Next()
		}
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}

		route := ctx.Route().Path
		method := ctx.Method()
		c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		c.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}

// AnomalyDetected counts one detected anomaly
func (c *Collector) AnomalyDetected(algorithm, severity string) {
	if c == nil {
		return
	}
	c.anomaliesDetected.WithLabelValues(algorithm, severity).Inc()
}

// AnalyticsError counts a failed analytics operation
func (c *Collector) AnalyticsError(operation, code string) {
	if c == nil {
		return
	}
	c.analyticsErrors.WithLabelValues(operation, code).Inc()
}

// AlertsPublished adds n published alerts
func (c *Collector) AlertsPublished(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.alertsPublished.Add(float64(n))
}

// AlertPublishFailed counts a failed publish attempt
func (c *Collector) AlertPublishFailed() {
	if c == nil {
		return
	}
	c.alertErrors.Inc()
}
