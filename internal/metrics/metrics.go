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
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecotrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrack_completions_total",
			Help: "Committed activity completions by category",
		},
		[]string{"category"},
	)
	PointsAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrack_points_awarded_total",
			Help: "Points granted, split by source",
		},
		[]string{"source"}, // activity | challenge
	)
	BadgesAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrack_badges_awarded_total",
			Help: "Badge awards by badge id",
		},
		[]string{"badge"},
	)
	ChallengesCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecotrack_challenges_completed_total",
			Help: "Challenge memberships that reached their target",
		},
	)
	ConflictRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecotrack_conflict_retries_total",
			Help: "Completion transactions retried after a concurrent update",
		},
	)
	SchedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecotrack_scheduler_runs_total",
			Help: "Scheduled job executions by job and result",
		},
		[]string{"job", "result"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			CompletionsTotal,
			PointsAwardedTotal,
			BadgesAwardedTotal,
			ChallengesCompletedTotal,
			ConflictRetriesTotal,
			SchedulerRunsTotal,
		)
	})
}

// Middleware records request counts and latency keyed by the route template,
// so ids in paths do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
