// Package metrics registers the Prometheus instrumentation for the server.
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
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contour",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contour",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	// IngestsTotal counts raster ingestions by detected format and outcome.
	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contour",
		Subsystem: "ingest",
		Name:      "rasters_total",
		Help:      "Total raster ingestions",
	}, []string{"format", "outcome"})

	// IngestDuration tracks end-to-end ingestion latency.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "contour",
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "Raster ingestion latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// InferencesTotal counts vision bounds inference calls by outcome.
	InferencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contour",
		Subsystem: "vision",
		Name:      "inferences_total",
		Help:      "Total vision bounds inference calls",
	}, []string{"outcome"})

	// UpstreamErrors counts failed calls to external geo-data services.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contour",
		Subsystem: "upstream",
		Name:      "errors_total",
		Help:      "Total failed calls to upstream geo-data services",
	}, []string{"service"})
)

// Middleware records request metrics for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns a gin handler serving the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
