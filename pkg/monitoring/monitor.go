package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AIRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Generative text requests by purpose and outcome",
		},
		[]string{"purpose", "status"},
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Latency of generative text requests",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"purpose"},
	)

	LessonCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_total",
			Help: "Lesson content resolutions by cache result",
		},
		[]string{"result"},
	)

	ComplianceRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_rejections_total",
			Help: "AI responses replaced by the compliance fallback, by issue kind",
		},
		[]string{"issue"},
	)

	GenerationSkippedItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "course_generation_skipped_items_total",
			Help: "Modules and lessons skipped after a failed insert during course generation",
		},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the per-user fixed window limiter",
		},
		[]string{"scope"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AIRequestCounter,
			AIRequestDuration,
			LessonCacheCounter,
			ComplianceRejections,
			GenerationSkippedItems,
			RateLimitRejections,
		)
	})
}

func ObserveAIRequest(purpose string, err error, started time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AIRequestCounter.WithLabelValues(purpose, status).Inc()
	AIRequestDuration.WithLabelValues(purpose).Observe(time.Since(started).Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
