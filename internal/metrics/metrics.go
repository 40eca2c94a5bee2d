package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelvault",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, partitioned by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelvault",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	storageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelvault",
			Name:      "object_store_operations_total",
			Help:      "Object store calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	quotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelvault",
			Name:      "quota_rejections_total",
			Help:      "Uploads rejected because they would exceed the tenant quota.",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, storageOps, quotaRejections)
	})
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStorage counts one object store call.
func ObserveStorage(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storageOps.WithLabelValues(op, outcome).Inc()
}

// QuotaRejected counts one quota rejection.
func QuotaRejected() {
	quotaRejections.Inc()
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
