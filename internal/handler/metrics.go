package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lexilens/lexilens-go/internal/event"
)

// Metrics holds all Prometheus collectors for the sync daemon.
var Metrics = struct {
	SavesTotal       *prometheus.CounterVec
	DeletesTotal     *prometheus.CounterVec
	SyncRunsTotal    *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	EventsTotal      *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup. The
// pool is nil when the remote store is not Postgres-backed.
func InitMetrics(pool *pgxpool.Pool) {
	Metrics.SavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexilens_saves_total",
			Help: "Total successful write-through saves, by collection.",
		},
		[]string{"collection"},
	)

	Metrics.DeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexilens_deletes_total",
			Help: "Total successful write-through deletes, by collection.",
		},
		[]string{"collection"},
	)

	Metrics.SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexilens_sync_runs_total",
			Help: "Full sync runs, by result.",
		},
		[]string{"result"},
	)

	Metrics.SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lexilens_sync_duration_seconds",
			Help:    "Duration of full sync runs.",
			Buckets: prometheus.DefBuckets,
		},
	)

	Metrics.EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexilens_events_total",
			Help: "Events dispatched on the bus, by kind.",
		},
		[]string{"kind"},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexilens_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexilens_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	// DB pool gauges — read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "lexilens_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "lexilens_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.SavesTotal,
		Metrics.DeletesTotal,
		Metrics.SyncRunsTotal,
		Metrics.SyncDuration,
		Metrics.EventsTotal,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
	)
}

// ObserveEvents counts every bus event by kind.
func ObserveEvents(bus *event.Bus) {
	bus.Tap(func(ev event.Event) {
		Metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()
	})
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
	switch {
	case len(path) > 11 && path[:11] == "/api/notes/":
		return "/api/notes/:id"
	case len(path) > 11 && path[:11] == "/api/chats/":
		return "/api/chats/:id"
	case len(path) > 11 && path[:11] == "/api/words/":
		return "/api/words/:id"
	case len(path) > 15 && path[:15] == "/api/wordlists/":
		return "/api/wordlists/:id"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
