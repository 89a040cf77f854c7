package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"truck-route-service/internal/api/dto"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/platform/obs"
	"truck-route-service/internal/ports"
	"truck-route-service/internal/services"
)

type RouteHandler struct {
	Resolver *services.RouteResolver
	Enricher *services.Enricher
	Recorder ports.Recorder
	Log      *zap.Logger
}

// Resolve handles the full route request: resolution with ordered fallback,
// concurrent enrichment, and the save hook. Partial enrichment failure is not
// an HTTP-level error; only invalid input and total resolution failure are.
func (h *RouteHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.Log, http.MethodPost)
		return
	}

	var req dto.RouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, h.Log, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	svcReq, err := buildRouteRequest(req)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	done := obs.Time(r.Context(), h.Log, "resolve_route")
	routes, err := h.Resolver.Resolve(r.Context(), svcReq)
	done(&err)
	if err != nil {
		if errors.Is(err, services.ErrNoRouteAvailable) {
			writeJSON(w, r, h.Log, http.StatusInternalServerError, dto.ResolveRouteResponse{
				Success:  false,
				Routes:   []dto.RouteResponse{},
				Closures: []dto.ClosureResponse{},
				Error:    "no provider could produce a route",
			})
			return
		}
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	enriched := h.Enricher.Enrich(r.Context(), routes, svcReq)

	// Save-hook failures are logged, never surfaced: persistence is an
	// external collaborator, not part of the request contract.
	if h.Recorder != nil {
		for _, rt := range enriched.Routes {
			if err := h.Recorder.RecordRoute(r.Context(), rt); err != nil {
				h.Log.Warn("record route failed", zap.String("route", rt.ID), zap.Error(err))
			}
		}
		if len(enriched.Closures) > 0 {
			if err := h.Recorder.RecordClosures(r.Context(), enriched.Closures); err != nil {
				h.Log.Warn("record closures failed", zap.Error(err))
			}
		}
	}

	res := dto.ResolveRouteResponse{
		Success:             true,
		Routes:              make([]dto.RouteResponse, 0, len(enriched.Routes)),
		Closures:            dto.FromClosures(enriched.Closures),
		HasTolls:            enriched.HasTolls,
		TollsUnavailable:    enriched.TollsUnavailable,
		TrafficUnavailable:  enriched.TrafficUnavailable,
		ClosuresUnavailable: enriched.ClosuresUnavailable,
	}
	for _, rt := range enriched.Routes {
		res.Routes = append(res.Routes, dto.FromRoute(rt))
	}

	writeJSON(w, r, h.Log, http.StatusOK, res)
}

// buildRouteRequest validates the inbound body field by field so a 400 names
// the specific missing or out-of-range coordinate.
func buildRouteRequest(req dto.RouteRequest) (ports.RouteRequest, error) {
	coords := []struct {
		name  string
		value *float64
	}{
		{"startLat", req.StartLat},
		{"startLng", req.StartLng},
		{"endLat", req.EndLat},
		{"endLng", req.EndLng},
	}
	for _, c := range coords {
		if c.value == nil {
			return ports.RouteRequest{}, fmt.Errorf("%s is required", c.name)
		}
	}

	start := domain.GeoPoint{Lat: *req.StartLat, Lng: *req.StartLng}
	if err := start.Validate(); err != nil {
		return ports.RouteRequest{}, fmt.Errorf("start coordinates: %v", err)
	}
	end := domain.GeoPoint{Lat: *req.EndLat, Lng: *req.EndLng}
	if err := end.Validate(); err != nil {
		return ports.RouteRequest{}, fmt.Errorf("end coordinates: %v", err)
	}

	return ports.RouteRequest{
		Start:        start,
		End:          end,
		VehicleClass: req.VehicleClass,
	}, nil
}
