package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusgeo",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	httpRequestSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusgeo",
		Subsystem: "http",
		Name:      "request_size_bytes",
		Help:      "HTTP request body size in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"method", "path"})

	// Detection pipeline metrics
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "results_total",
		Help:      "Identified photos by building label",
	}, []string{"building"})

	DetectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "failures_total",
		Help:      "Failed identifications by reason",
	}, []string{"reason"})

	DistanceUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "distance_unavailable_total",
		Help:      "Identifications whose box base was at or above the image midline",
	})

	LookupFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "lookup_fallbacks_total",
		Help:      "Labels missing from the building catalog",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"stage"})

	StageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "stage_errors_total",
		Help:      "Pipeline stage failures",
	}, []string{"stage"})

	DistanceMeters = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "distance_meters",
		Help:      "Estimated camera-to-building distance",
		Buckets:   []float64{2, 5, 10, 20, 30, 50, 75, 100, 150, 250},
	})

	ImagePixels = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "campusgeo",
		Subsystem: "detection",
		Name:      "image_megapixels",
		Help:      "Decoded image size in megapixels",
		Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 12, 16, 24, 48},
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Detection events published by outcome",
	}, []string{"outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "campusgeo",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgeo",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the route pattern, which keeps label cardinality bounded
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpRequestSize.WithLabelValues(method, path).Observe(float64(len(c.Request().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
