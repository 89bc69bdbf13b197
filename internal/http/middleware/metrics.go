// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels stay
// on (method, route pattern, status): index UIDs and document ids never
// become label values, so cardinality is bounded no matter how many indexes
// a deployment holds. Payload size is observed on the request side rather
// than the response side, because this API's large bodies are document
// uploads while responses are small JSON views.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is intentionally omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpReqSize captures declared request body sizes by method and route
	// path. Buckets span a single small document up to the payload limit.
	httpReqSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_size_bytes",
			Help: "Size of HTTP request bodies in bytes.",
			Buckets: []float64{
				256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, // one doc .. small batch
				256 << 10, 1 << 20, 4 << 20, 16 << 20, // typical batches
				64 << 20, 128 << 20, // near the default payload limit
			},
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpReqSize)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus:
// http_requests_total(method, path, status) per request,
// http_request_duration_seconds(method, path) on completion,
// http_requests_inflight while handlers run, and
// http_request_size_bytes(method, path) when the client declared a
// Content-Length. Mount promhttp.Handler() on /metrics to serve the values.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		method := c.Request.Method
		path := routePath(c)

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// ContentLength is -1 when the client did not declare one.
		if n := c.Request.ContentLength; n >= 0 {
			httpReqSize.WithLabelValues(method, path).Observe(float64(n))
		}
	}
}
