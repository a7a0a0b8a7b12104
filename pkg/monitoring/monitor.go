package monitoring

import (
	"strconv"
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

	// 业务指标：作答、计星、去重跳过、会话结束
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainer_answers_total",
			Help: "Total submitted answers",
		},
		[]string{"correct"},
	)

	StarsCreditedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trainer_stars_credited_total",
			Help: "Total stars credited to profiles",
		},
	)

	DuplicateSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trainer_duplicate_credit_skips_total",
			Help: "Correct submissions skipped by the completion guard",
		},
	)

	SessionsEndedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trainer_sessions_ended_total",
			Help: "Sessions finalized via end-session",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(StarsCreditedTotal)
	prometheus.MustRegister(DuplicateSkipsTotal)
	prometheus.MustRegister(SessionsEndedTotal)
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
