package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"truck-route-service/internal/api/dto"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
	"truck-route-service/internal/realtime"
)

const defaultTrafficRadiusMeters = 1000

type TrafficHandler struct {
	Provider ports.TrafficProvider
	Synth    *realtime.SyntheticGenerator
	Recorder ports.Recorder
	Log      *zap.Logger
}

// Query answers a point congestion query. A live provider failure degrades to
// the synthetic generator; the source tag tells the two apart.
func (h *TrafficHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, h.Log, http.MethodGet)
		return
	}

	center, err := parsePoint(r, "lat", "lng")
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	radius := float64(defaultTrafficRadiusMeters)
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			writeError(w, r, h.Log, http.StatusBadRequest, "radius must be a positive number")
			return
		}
	}

	source := realtime.SourceLive
	report, err := h.Provider.FetchTraffic(r.Context(), center, radius)
	if err != nil {
		h.Log.Warn("live traffic fetch failed, serving synthetic", zap.Error(err))
		report = h.Synth.Traffic(center)
		source = realtime.SourceSynthetic
	}

	if h.Recorder != nil && source == realtime.SourceLive {
		if err := h.Recorder.RecordTraffic(r.Context(), center, report); err != nil {
			h.Log.Warn("record traffic failed", zap.Error(err))
		}
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.TrafficResponse{
		Success: true,
		Data: dto.TrafficData{
			Congestion: report.Congestion,
			Details:    report.Details,
			Source:     source,
		},
	})
}

func parsePoint(r *http.Request, latKey, lngKey string) (domain.GeoPoint, error) {
	lat, err := parseCoord(r, latKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lng, err := parseCoord(r, lngKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return p, nil
}

func parseCoord(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, &missingParamError{key}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &invalidParamError{key}
	}
	return v, nil
}

type missingParamError struct{ key string }

func (e *missingParamError) Error() string { return e.key + " is required" }

type invalidParamError struct{ key string }

func (e *invalidParamError) Error() string { return e.key + " must be a number" }
