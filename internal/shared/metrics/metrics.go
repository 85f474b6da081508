package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_mutations_total",
			Help: "Effective CV document mutations by operation",
		},
		[]string{"op"},
	)

	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_renders_total",
			Help: "CV renders by template",
		},
		[]string{"template"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_render_duration_seconds",
			Help:    "CV render duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"template"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cv_sessions_active",
			Help: "Editing sessions currently held in memory",
		},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_exports_total",
			Help: "CV exports by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	httpDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
)

// IncMutation counts one effective store mutation.
func IncMutation(op string) {
	mutationsTotal.WithLabelValues(op).Inc()
}

// ObserveRender records one render of template.
func ObserveRender(template string, d time.Duration) {
	rendersTotal.WithLabelValues(template).Inc()
	renderDuration.WithLabelValues(template).Observe(d.Seconds())
}

// SetSessionsActive reports the number of live sessions.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// IncExport counts an export attempt; outcome is "ok" or "error".
func IncExport(format, outcome string) {
	exportsTotal.WithLabelValues(format, outcome).Inc()
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
