package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"tahisis/core-go/internal/estates"
	"tahisis/core-go/internal/export"
	"tahisis/core-go/internal/marker"
	"tahisis/core-go/internal/sqlcgen"
)

type markerRequest struct {
	Slices []marker.Slice `json:"slices"`
}

func (h *Handler) handleRenderMarker(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	var req markerRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	h.metrics.IncMarkerRendered(marker.Shape(req.Slices))
	h.writeHTML(w, marker.Generate(req.Slices))
}

func (h *Handler) handleMarkerPlaceholder(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncMarkerRendered(marker.Shape(nil))
	h.writeHTML(w, marker.Placeholder)
}

type aggregateResponse struct {
	EstateTypes     []estates.AggregatedType `json:"estate_types"`
	TotalPopulation int                      `json:"total_population"`
}

func newAggregateResponse(types []estates.AggregatedType) aggregateResponse {
	resp := aggregateResponse{EstateTypes: types}
	for _, t := range types {
		resp.TotalPopulation += t.Population()
	}
	return resp
}

// handleAggregateEstates accepts a JSON array (or a single object) of
// loosely shaped estate records.
func (h *Handler) handleAggregateEstates(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "failed to read body", map[string]any{"error": err.Error()})
		return
	}
	if !json.Valid(raw) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", nil)
		return
	}

	records := h.colorize(r.Context(), estates.NormalizeAll(raw))
	h.writeJSON(w, http.StatusOK, newAggregateResponse(estates.Aggregate(records)))
}

// colorize fills missing type colours from the colour table. A failed load
// leaves the records as they are.
func (h *Handler) colorize(ctx context.Context, records []estates.Record) []estates.Record {
	if h.colors == nil || len(records) == 0 {
		return records
	}
	if _, err := h.colors.Load(ctx); err != nil {
		h.log.Warn().Err(err).Msg("estate type colors unavailable")
		return records
	}
	return h.colors.Apply(records)
}

type settlementEstates struct {
	summary sqlcgen.SettlementSummary
	records []estates.Record
}

// loadSettlement writes the error response itself and reports false when
// the settlement cannot be served.
func (h *Handler) loadSettlement(w http.ResponseWriter, r *http.Request) (settlementEstates, bool) {
	id, ok := parseSettlementID(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "settlement id must be a positive integer", map[string]any{"id": chi.URLParam(r, "id")})
		return settlementEstates{}, false
	}
	if !h.ensureSettlements(w) {
		return settlementEstates{}, false
	}

	summary, err := h.settlements.GetSettlementSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "not_found", "settlement not found", map[string]any{"id": id})
			return settlementEstates{}, false
		}
		h.log.Error().Err(err).Int64("id", id).Msg("get settlement failed")
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to fetch settlement", nil)
		return settlementEstates{}, false
	}

	rows, err := h.settlements.ListEstatesForSettlements(r.Context(), []int64{id})
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("list settlement estates failed")
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to fetch settlement estates", nil)
		return settlementEstates{}, false
	}
	records := make([]estates.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, export.RecordFromRow(row))
	}

	return settlementEstates{summary: summary, records: h.colorize(r.Context(), records)}, true
}

func (h *Handler) handleSettlementEstates(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSettlement(w, r)
	if !ok {
		return
	}
	resp := newAggregateResponse(estates.Aggregate(s.records))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"settlement_id":    s.summary.ID,
		"name_old":         s.summary.NameOld,
		"estate_types":     resp.EstateTypes,
		"total_population": resp.TotalPopulation,
	})
}

func (h *Handler) handleSettlementMarker(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSettlement(w, r)
	if !ok {
		return
	}
	slices := marker.SlicesFromTypes(estates.Aggregate(s.records))
	h.metrics.IncMarkerRendered(marker.Shape(slices))
	h.writeHTML(w, marker.Generate(slices))
}

func (h *Handler) handleSettlementPopup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSettlement(w, r)
	if !ok {
		return
	}
	h.writeHTML(w, marker.Popup(marker.PopupSettlement{
		Name:       deref(s.summary.NameOld),
		NameModern: deref(s.summary.NameModern),
		District:   deref(s.summary.DistrictName),
		Estates:    s.records,
	}))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
