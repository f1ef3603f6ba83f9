package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	markersRendered     *prometheus.CounterVec
	exportRunsTotal     *prometheus.CounterVec
	exportRunDuration   prometheus.Histogram
	exportedFeatures    *prometheus.CounterVec
	colorTableLoads     *prometheus.CounterVec
	snapshotFiles       *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP, marker and export metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the tahisis service",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tahisis",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the tahisis service",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	markersRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "markers_rendered_total",
		Help:      "Marker icons rendered, by shape",
	}, []string{"shape"})

	exportRunsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "export_runs_total",
		Help:      "GeoJSON export runs, by result",
	}, []string{"result"})

	exportRunDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tahisis",
		Name:      "export_run_duration_seconds",
		Help:      "Duration of full GeoJSON export runs",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})

	exportedFeatures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "exported_features_total",
		Help:      "GeoJSON features written, by table",
	}, []string{"table"})

	colorTableLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "color_table_loads_total",
		Help:      "Estate type colour table fetches, by result",
	}, []string{"result"})

	snapshotFiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tahisis",
		Name:      "snapshot_files_written_total",
		Help:      "Files written by the scheduled exporter, by result",
	}, []string{"result"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		markersRendered,
		exportRunsTotal,
		exportRunDuration,
		exportedFeatures,
		colorTableLoads,
		snapshotFiles,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		markersRendered:     markersRendered,
		exportRunsTotal:     exportRunsTotal,
		exportRunDuration:   exportRunDuration,
		exportedFeatures:    exportedFeatures,
		colorTableLoads:     colorTableLoads,
		snapshotFiles:       snapshotFiles,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// IncMarkerRendered counts one rendered marker of the given shape
// ("placeholder", "ring" or "pie").
func (m *Metrics) IncMarkerRendered(shape string) {
	if m == nil {
		return
	}
	m.markersRendered.WithLabelValues(shape).Inc()
}

// ObserveExportRun records one full export run.
func (m *Metrics) ObserveExportRun(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.exportRunsTotal.WithLabelValues(result).Inc()
	m.exportRunDuration.Observe(duration.Seconds())
}

func (m *Metrics) AddExportedFeatures(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.exportedFeatures.WithLabelValues(table).Add(float64(n))
}

func (m *Metrics) IncColorTableLoad(result string) {
	if m == nil {
		return
	}
	m.colorTableLoads.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSnapshotFile(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.snapshotFiles.WithLabelValues(result).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
