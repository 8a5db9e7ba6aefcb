// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Swipes       *prometheus.CounterVec
	MatchCreated prometheus.Counter
	Negotiations *prometheus.CounterVec
	NegTurns     prometheus.Histogram

	ExternalCalls    *prometheus.CounterVec
	ExternalDuration *prometheus.HistogramVec

	StaleSessions prometheus.Counter
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Swipes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swipes_total",
				Help:      "Swipes recorded, by actor role and action",
			},
			[]string{"role", "action"},
		),
		MatchCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_created_total",
				Help:      "Total number of matches created",
			},
		),
		Negotiations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "negotiations_total",
				Help:      "Finished negotiations, by terminal status",
			},
			[]string{"status"},
		),
		NegTurns: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "negotiation_turns",
				Help:      "Turns taken per finished negotiation",
				Buckets:   prometheus.LinearBuckets(1, 1, 12),
			},
		),
		ExternalCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_calls_total",
				Help:      "Calls to external collaborators, by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		ExternalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "external_call_duration_seconds",
				Help:      "External call duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"service"},
		),
		StaleSessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "negotiation_stale_failed_total",
				Help:      "Negotiations failed by the stale session sweeper",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Swipes,
		c.MatchCreated,
		c.Negotiations,
		c.NegTurns,
		c.ExternalCalls,
		c.ExternalDuration,
		c.StaleSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveExternalCall satisfies resilience.Observer.
func (c *Collector) ObserveExternalCall(service, outcome string, elapsed time.Duration) {
	c.ExternalCalls.WithLabelValues(service, outcome).Inc()
	c.ExternalDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (c *Collector) RecordSwipe(role, action string) {
	c.Swipes.WithLabelValues(role, action).Inc()
}

func (c *Collector) RecordMatch() {
	c.MatchCreated.Inc()
}

func (c *Collector) RecordNegotiation(status string, turns int) {
	c.Negotiations.WithLabelValues(status).Inc()
	c.NegTurns.Observe(float64(turns))
}

func (c *Collector) RecordStaleSessions(n int64) {
	if n > 0 {
		c.StaleSessions.Add(float64(n))
	}
}

// Middleware records request count and latency keyed by the matched route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		c.HTTPRequests.WithLabelValues(ctx.Request.Method, route, status).Inc()
		c.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
