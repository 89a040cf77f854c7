package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/geometry"
	"truck-route-service/internal/ports"
)

// TollGuruTollProvider is the toll-pricing gateway. It sends the route's
// coordinate sequence and vehicle type and maps the itemized answer into the
// canonical toll summary. Toll locations arrive in GeoJSON (lng, lat) order
// and are normalized through the geometry codec.
type TollGuruTollProvider struct {
	gateway
	apiKey string
}

func NewTollGuruTollProvider(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *TollGuruTollProvider {
	return &TollGuruTollProvider{
		gateway: newGateway("tollguru", baseURL, timeout, log),
		apiKey:  apiKey,
	}
}

type tollRequest struct {
	Polyline    string `json:"polyline"`
	VehicleType string `json:"vehicleType"`
}

type tollResponse struct {
	Summary *struct {
		TotalCost float64 `json:"totalCost"`
		Currency  string  `json:"currency"`
	} `json:"summary"`
	Tolls []struct {
		Name     string    `json:"name"`
		Location []float64 `json:"location"` // (lng, lat)
		Cost     float64   `json:"cost"`
		Currency string    `json:"currency"`
	} `json:"tolls"`
}

func tollVehicleType(class string) string {
	switch class {
	case "", "truck":
		return "2AxlesTruck"
	case "heavy":
		return "4AxlesTruck"
	default:
		return class
	}
}

func (p *TollGuruTollProvider) FetchTolls(ctx context.Context, points []domain.GeoPoint, vehicleClass string) (ports.TollSummary, error) {
	encoded, err := geometry.Encode(points, 5)
	if err != nil {
		return ports.TollSummary{}, fmt.Errorf("tollguru fetch tolls: encode polyline: %w", err)
	}

	payload, err := json.Marshal(tollRequest{
		Polyline:    encoded,
		VehicleType: tollVehicleType(vehicleClass),
	})
	if err != nil {
		return ports.TollSummary{}, fmt.Errorf("tollguru fetch tolls: marshal request: %w", err)
	}

	httpReq, err := p.newRequest(ctx, http.MethodPost, p.baseURL+"/v2/complete-polyline-from-mapping-service", bytes.NewReader(payload))
	if err != nil {
		return ports.TollSummary{}, fmt.Errorf("tollguru fetch tolls: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.apiKey)

	var decoded tollResponse
	if err := p.doJSON(httpReq, &decoded); err != nil {
		return ports.TollSummary{}, err
	}

	if decoded.Summary == nil {
		return ports.TollSummary{}, p.badResponse("missing summary")
	}
	if decoded.Summary.TotalCost < 0 {
		return ports.TollSummary{}, p.badResponse("negative total cost")
	}

	out := ports.TollSummary{
		TotalCost: decoded.Summary.TotalCost,
		Currency:  decoded.Summary.Currency,
		Points:    make([]domain.TollPoint, 0, len(decoded.Tolls)),
	}

	for i, t := range decoded.Tolls {
		normalized, err := geometry.FromPairs([][]float64{t.Location}, geometry.OrderLngLat)
		if err != nil {
			return ports.TollSummary{}, p.badResponse("toll %d: %v", i, err)
		}
		out.Points = append(out.Points, domain.TollPoint{
			Location: normalized[0],
			Name:     t.Name,
			Cost:     t.Cost,
			Currency: t.Currency,
		})
	}

	return out, nil
}
