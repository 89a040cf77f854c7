package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"truck-route-service/internal/api/dto"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

const defaultClosureRadiusMeters = 5000

type ClosureHandler struct {
	Provider ports.ClosureProvider
	Recorder ports.Recorder
	Log      *zap.Logger
}

// Query answers a closures query for either a single point's surroundings or
// the rectangle spanning a start/end pair.
func (h *ClosureHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, h.Log, http.MethodGet)
		return
	}

	start, err := parsePoint(r, "lat", "lng")
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	var rect domain.BoundingRect
	q := r.URL.Query()
	if q.Get("endLat") != "" || q.Get("endLng") != "" {
		end, err := parsePoint(r, "endLat", "endLng")
		if err != nil {
			writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
			return
		}
		rect = domain.RectSpanning(start, end)
	} else {
		rect = domain.RectAround(start, defaultClosureRadiusMeters)
	}

	closures, err := h.Provider.FetchClosures(r.Context(), rect)
	if err != nil {
		h.Log.Warn("closures fetch failed", zap.Error(err))
		writeJSON(w, r, h.Log, http.StatusOK, dto.ClosuresResponse{
			Success:  false,
			Closures: []dto.ClosureResponse{},
			Error:    "closures provider unavailable",
		})
		return
	}

	if h.Recorder != nil && len(closures) > 0 {
		if err := h.Recorder.RecordClosures(r.Context(), closures); err != nil {
			h.Log.Warn("record closures failed", zap.Error(err))
		}
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.ClosuresResponse{
		Success:  true,
		Closures: dto.FromClosures(closures),
	})
}
