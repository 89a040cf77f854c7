package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"truck-route-service/internal/api/dto"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

type TollHandler struct {
	Provider ports.TollProvider
	Log      *zap.Logger
}

// Quote prices tolls along an explicit coordinate sequence. A provider failure
// degrades to an unpriced answer rather than an HTTP error.
func (h *TollHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.Log, http.MethodPost)
		return
	}

	var req dto.TollRequest
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}

	points, err := buildTollPoints(req.Points)
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.Provider.FetchTolls(r.Context(), points, req.VehicleType)
	if err != nil {
		h.Log.Warn("toll fetch failed", zap.Error(err))
		writeJSON(w, r, h.Log, http.StatusOK, dto.TollResponse{
			Success: false,
			Tolls:   []dto.TollPointResponse{},
			Error:   "toll provider unavailable",
		})
		return
	}

	tolls := make([]dto.TollPointResponse, 0, len(summary.Points))
	for _, tp := range summary.Points {
		tolls = append(tolls, dto.TollPointResponse{
			Location: dto.FromGeoPoint(tp.Location),
			Name:     tp.Name,
			Cost:     tp.Cost,
			Currency: tp.Currency,
		})
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.TollResponse{
		Success: true,
		Summary: dto.TollSummaryResponse{
			TotalCost: summary.TotalCost,
			Currency:  summary.Currency,
		},
		Tolls:    tolls,
		HasTolls: summary.TotalCost > 0,
	})
}

func buildTollPoints(raw []dto.TollRequestPoint) ([]domain.GeoPoint, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("points must contain at least 2 coordinates")
	}

	points := make([]domain.GeoPoint, 0, len(raw))
	for i, rp := range raw {
		if rp.Lat == nil || rp.Lng == nil {
			return nil, fmt.Errorf("points[%d] must include lat and lng", i)
		}
		p := domain.GeoPoint{Lat: *rp.Lat, Lng: *rp.Lng}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("points[%d]: %v", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}
