package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tahisis/core-go/internal/vectorlayers"
)

type vectorLayerCheck struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// handleValidateVectorLayer checks upload metadata before the client sends
// the file itself.
func (h *Handler) handleValidateVectorLayer(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)
	var req vectorLayerCheck
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "name is required", nil)
		return
	}

	details := map[string]any{
		"kind":       vectorlayers.KindFromFileName(req.Name),
		"size_label": vectorlayers.FormatSize(req.Size),
	}
	if err := vectorlayers.ValidateFile(req.Name, req.MimeType, req.Size); err != nil {
		switch {
		case errors.Is(err, vectorlayers.ErrTooLarge):
			h.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), details)
		case errors.Is(err, vectorlayers.ErrUnsupported):
			h.writeError(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error(), details)
		default:
			h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), details)
		}
		return
	}

	details["valid"] = true
	h.writeJSON(w, http.StatusOK, details)
}
