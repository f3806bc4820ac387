package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insetmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insetmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})

	// Map rendering metrics
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insetmap",
		Subsystem: "render",
		Name:      "renders_total",
		Help:      "Total map renders by outcome (ok, partial, failed)",
	}, []string{"outcome"})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insetmap",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time to compose, rasterize and encode one map",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	LayerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insetmap",
		Subsystem: "ingest",
		Name:      "layer_failures_total",
		Help:      "Optional layers or uploads that could not be loaded",
	}, []string{"kind"})

	BasemapTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insetmap",
		Subsystem: "basemap",
		Name:      "tiles_total",
		Help:      "Basemap tile lookups by provider and result (hit, fetched, error)",
	}, []string{"provider", "result"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Instrument records request counts and latency for every request.
// Labels stay low-cardinality: method and status only.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
