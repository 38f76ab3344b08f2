package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alumni",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "alumni",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alumni",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "被限流的请求数",
	}, []string{"backend"})
)

// PrometheusMiddleware 记录请求数与耗时
// route 使用注册时的路由模板（如 /api/v1/auth/friend/send/:id），避免路径参数撑爆标签基数
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
