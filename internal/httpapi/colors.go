package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tahisis/core-go/internal/colors"
)

func (h *Handler) handleEstateTypeColors(w http.ResponseWriter, r *http.Request) {
	if h.colors == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return
	}
	table, err := h.colors.Load(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to load estate type colors", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"colors": table})
}

func (h *Handler) handlePaletteColor(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "palette index must be an integer", map[string]any{"index": raw})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"index": idx,
		"color": colors.PaletteColor(idx),
		"size":  colors.PaletteSize(),
	})
}

type alphaRequest struct {
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

func (h *Handler) handleWithAlpha(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	var req alphaRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.Alpha < 0 || req.Alpha > 1 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "alpha must be between 0 and 1", map[string]any{"alpha": req.Alpha})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"color": colors.WithAlpha(req.Color, req.Alpha)})
}
