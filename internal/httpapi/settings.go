package httpapi

import (
	"net/http"

	"tahisis/core-go/internal/settings"
)

func (h *Handler) settingsFailed(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	h.writeError(w, http.StatusInternalServerError, "settings_error", msg, nil)
}

func (h *Handler) handleGetMapSettings(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSettings(w) {
		return
	}
	s, err := settings.LoadMapSettings(r.Context(), h.settings)
	if err != nil {
		h.settingsFailed(w, err, "load map settings failed")
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handlePutMapSettings(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	req := settings.DefaultMapSettings()
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if !req.ColorMode.Valid() {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown color mode", map[string]any{"colorMode": req.ColorMode})
		return
	}
	if req.Display.Opacity < 0 || req.Display.Opacity > 1 {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "opacity must be between 0 and 1", nil)
		return
	}
	if !h.ensureSettings(w) {
		return
	}

	if err := settings.SaveMapSettings(r.Context(), h.settings, req); err != nil {
		h.settingsFailed(w, err, "save map settings failed")
		return
	}
	// Filters are echoed back but not stored.
	h.writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleGetPageState(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSettings(w) {
		return
	}
	p, err := settings.LoadPageState(r.Context(), h.settings)
	if err != nil {
		h.settingsFailed(w, err, "load page state failed")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// handlePutPageState merges the given pages over the stored state.
func (h *Handler) handlePutPageState(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	var req settings.PageState
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if !h.ensureSettings(w) {
		return
	}

	p, err := settings.LoadPageState(r.Context(), h.settings)
	if err != nil {
		h.settingsFailed(w, err, "load page state failed")
		return
	}
	p.Merge(req)
	if err := settings.SavePageState(r.Context(), h.settings, p); err != nil {
		h.settingsFailed(w, err, "save page state failed")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetMapView(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSettings(w) {
		return
	}
	v, err := settings.LoadMapView(r.Context(), h.settings)
	if err != nil {
		h.settingsFailed(w, err, "load map view failed")
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

// mapViewUpdate is a viewport report from either map widget. Center is
// [lon, lat]; extent is [minLon, minLat, maxLon, maxLat].
type mapViewUpdate struct {
	Provider string    `json:"provider"`
	Center   []float64 `json:"center"`
	Zoom     *float64  `json:"zoom"`
	Extent   []float64 `json:"extent"`
}

func (h *Handler) handlePutMapView(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	var req mapViewUpdate
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	switch req.Provider {
	case settings.ProviderLeaflet:
		if len(req.Center) != 2 || req.Zoom == nil || len(req.Extent) != 4 {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "leaflet view needs center, zoom and extent", nil)
			return
		}
	case settings.ProviderOpenLayers:
	default:
		h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown map provider", map[string]any{"provider": req.Provider})
		return
	}
	if !h.ensureSettings(w) {
		return
	}

	v, err := settings.LoadMapView(r.Context(), h.settings)
	if err != nil {
		h.settingsFailed(w, err, "load map view failed")
		return
	}
	if req.Provider == settings.ProviderLeaflet {
		v.SetLeafletView(req.Center[1], req.Center[0], *req.Zoom, req.Extent[1], req.Extent[0], req.Extent[3], req.Extent[2])
	} else {
		v.SetOpenLayersView(req.Center, req.Zoom, req.Extent)
	}
	if err := settings.SaveMapView(r.Context(), h.settings, v); err != nil {
		h.settingsFailed(w, err, "save map view failed")
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}
