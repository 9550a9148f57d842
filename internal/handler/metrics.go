package handler

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the ranking backend.
var Metrics = struct {
	CollectionsTotal  *prometheus.CounterVec
	SnapshotsSaved    prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	DBConnsInUse      prometheus.GaugeFunc
	DBConnsIdle       prometheus.GaugeFunc
	CollectionRuntime prometheus.Histogram
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(db *sql.DB) {
	Metrics.CollectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_collections_total",
			Help: "Channel collection runs, by outcome status.",
		},
		[]string{"status"},
	)

	Metrics.SnapshotsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_video_snapshots_saved_total",
			Help: "Per-video daily snapshots written.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranking_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	Metrics.CollectionRuntime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_collection_duration_seconds",
			Help:    "Duration of single-channel collection runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	if db != nil {
		Metrics.DBConnsInUse = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ranking_db_connections_in_use",
				Help: "Number of database connections currently in use.",
			},
			func() float64 {
				return float64(db.Stats().InUse)
			},
		)

		Metrics.DBConnsIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ranking_db_connections_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(db.Stats().Idle)
			},
		)

		prometheus.MustRegister(Metrics.DBConnsInUse)
		prometheus.MustRegister(Metrics.DBConnsIdle)
	}

	prometheus.MustRegister(
		Metrics.CollectionsTotal,
		Metrics.SnapshotsSaved,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
		Metrics.CollectionRuntime,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if len(path) > 14 && path[:14] == "/api/channels/" {
		if len(path) > len("/api/channels/")+24 && path[len(path)-len("/history"):] == "/history" {
			return "/api/channels/:channelId/history"
		}
		return "/api/channels/:channelId"
	}
	return path
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
