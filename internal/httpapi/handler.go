package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"tahisis/core-go/internal/db"
	"tahisis/core-go/internal/estates"
	"tahisis/core-go/internal/export"
	"tahisis/core-go/internal/metrics"
	"tahisis/core-go/internal/settings"
	"tahisis/core-go/internal/sqlcgen"
)

const (
	requestTimeout = 15 * time.Second
	exportTimeout  = 2 * time.Minute
	maxBodyBytes   = 1 << 20
)

type settlementQueries interface {
	GetSettlementSummary(ctx context.Context, id int64) (sqlcgen.SettlementSummary, error)
	ListEstatesForSettlements(ctx context.Context, settlementIDs []int64) ([]sqlcgen.SettlementEstate, error)
}

type exportService interface {
	ExportSettlements(ctx context.Context) (*geojson.FeatureCollection, error)
	ExportAllTables(ctx context.Context) (export.AllTablesResult, error)
	Statistics(ctx context.Context) (export.Statistics, error)
}

type Options struct {
	Metrics  *metrics.Metrics
	Settings settings.Store
	// Colors is shared with other users of the census database. Built from
	// the pool when nil.
	Colors          *estates.ColorTable
	ExportBatchSize int
}

type Handler struct {
	log     zerolog.Logger
	pool    *db.Pool
	metrics *metrics.Metrics

	settlements settlementQueries
	exporter    exportService
	colors      *estates.ColorTable
	settings    settings.Store
}

func NewHandler(log zerolog.Logger, pool *db.Pool, opts Options) *Handler {
	h := &Handler{
		log:      log,
		pool:     pool,
		metrics:  opts.Metrics,
		colors:   opts.Colors,
		settings: opts.Settings,
	}
	if q := pool.Queries(); q != nil {
		if h.colors == nil {
			h.colors = estates.NewColorTable(log, q, opts.Metrics)
		}
		h.settlements = q
		h.exporter = export.New(log, q, export.Options{
			BatchSize: opts.ExportBatchSize,
			Colors:    h.colors,
			Metrics:   opts.Metrics,
		})
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Get("/metrics", h.metrics.Handler().ServeHTTP)

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))

				r.Route("/markers", func(r chi.Router) {
					r.Post("/", h.handleRenderMarker)
					r.Get("/placeholder", h.handleMarkerPlaceholder)
				})

				r.Post("/estates/aggregate", h.handleAggregateEstates)

				r.Route("/settlements/{id}", func(r chi.Router) {
					r.Get("/estates", h.handleSettlementEstates)
					r.Get("/marker", h.handleSettlementMarker)
					r.Get("/popup", h.handleSettlementPopup)
				})

				r.Route("/colors", func(r chi.Router) {
					r.Get("/estate-types", h.handleEstateTypeColors)
					r.Get("/palette/{index}", h.handlePaletteColor)
					r.Post("/alpha", h.handleWithAlpha)
				})

				r.Post("/vector-layers/validate", h.handleValidateVectorLayer)

				r.Route("/settings", func(r chi.Router) {
					r.Get("/map", h.handleGetMapSettings)
					r.Put("/map", h.handlePutMapSettings)
					r.Get("/page", h.handleGetPageState)
					r.Put("/page", h.handlePutPageState)
					r.Get("/view", h.handleGetMapView)
					r.Put("/view", h.handlePutMapView)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(exportTimeout))

				r.Get("/export/settlements", h.handleExportSettlements)
				r.Get("/export/tables", h.handleExportTables)
				r.Get("/stats", h.handleStats)
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), elapsed)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeHTML(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, markup)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pool == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (h *Handler) ensureSettlements(w http.ResponseWriter) bool {
	if h.settlements == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return false
	}
	return true
}

func (h *Handler) ensureExporter(w http.ResponseWriter) bool {
	if h.exporter == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return false
	}
	return true
}

func (h *Handler) ensureSettings(w http.ResponseWriter) bool {
	if h.settings == nil {
		h.writeError(w, http.StatusServiceUnavailable, "settings_unavailable", "settings store not configured", nil)
		return false
	}
	return true
}

func parseSettlementID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
