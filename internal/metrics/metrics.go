// Package metrics holds the Prometheus collectors of the ad-serving path.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adserve"

// Metrics groups every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	SDKInits           *prometheus.CounterVec
	AdsServed          *prometheus.CounterVec
	SDKEvents          *prometheus.CounterVec
	RateLimitRejection *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		SDKInits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sdk_inits_total",
			Help:      "SDK init calls by result (ok, unsupported, error).",
		}, []string{"result"}),
		AdsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ads_served_total",
			Help:      "Creatives returned by SDK init, by source (live, fallback, none).",
		}, []string{"source"}),
		SDKEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sdk_events_total",
			Help:      "Recorded SDK events by type.",
		}, []string{"event_type"}),
		RateLimitRejection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejections_total",
			Help:      "Requests rejected by the fixed-window limiter, by bucket.",
		}, []string{"bucket"}),
	}
	reg.MustRegister(
		m.HTTPRequests,
		m.SDKInits,
		m.AdsServed,
		m.SDKEvents,
		m.RateLimitRejection,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing the exposition handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware counts requests once the handler chain has completed.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
