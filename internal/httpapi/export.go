package httpapi

import (
	"errors"
	"net/http"

	"tahisis/core-go/internal/export"
)

func (h *Handler) handleExportSettlements(w http.ResponseWriter, r *http.Request) {
	if !h.ensureExporter(w) {
		return
	}

	fc, err := h.exporter.ExportSettlements(r.Context())
	if err != nil {
		if errors.Is(err, export.ErrNoData) {
			h.writeError(w, http.StatusNotFound, "no_data", "no settlements to export", nil)
			return
		}
		h.log.Error().Err(err).Msg("export settlements failed")
		h.writeError(w, http.StatusInternalServerError, "export_failed", "failed to export settlements", nil)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="tahisis_settlements.geojson"`)
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	b, err := fc.MarshalJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("encode settlements failed")
		return
	}
	_, _ = w.Write(b)
}

func (h *Handler) handleExportTables(w http.ResponseWriter, r *http.Request) {
	if !h.ensureExporter(w) {
		return
	}

	res, err := h.exporter.ExportAllTables(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("export tables failed")
		h.writeError(w, http.StatusInternalServerError, "export_failed", "failed to export tables", nil)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="tahisis_tables.json"`)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !h.ensureExporter(w) {
		return
	}

	st, err := h.exporter.Statistics(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("statistics failed")
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to compute statistics", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}
