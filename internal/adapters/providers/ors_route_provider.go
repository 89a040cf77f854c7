package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/ports"
)

// orsPolylinePrecision is the OpenRouteService directions encoding (1e5).
const orsPolylinePrecision = 5

// ORSRouteProvider is the fallback route-geometry gateway, speaking the
// OpenRouteService directions API with the heavy-goods-vehicle profile.
type ORSRouteProvider struct {
	gateway
	apiKey string
}

func NewORSRouteProvider(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *ORSRouteProvider {
	return &ORSRouteProvider{
		gateway: newGateway("ors", baseURL, timeout, log),
		apiKey:  apiKey,
	}
}

func (p *ORSRouteProvider) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := p.gateway.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)
	return req, nil
}

type orsDirectionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Alternatives struct {
		TargetCount int `json:"target_count"`
	} `json:"alternative_routes"`
}

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func profileForVehicleClass(class string) string {
	switch class {
	case "car":
		return "driving-car"
	default:
		// Trucks are the service's subject; HGV covers every truck class hint.
		return "driving-hgv"
	}
}

func (p *ORSRouteProvider) FetchRoutes(ctx context.Context, req ports.RouteRequest) ([]ports.RouteCandidate, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s", p.baseURL, profileForVehicleClass(req.VehicleClass))

	// ORS takes GeoJSON axis order: (lng, lat).
	var body orsDirectionsRequest
	body.Coordinates = [][]float64{
		{req.Start.Lng, req.Start.Lat},
		{req.End.Lng, req.End.Lat},
	}
	body.Alternatives.TargetCount = 2

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ors fetch routes: marshal request: %w", err)
	}

	httpReq, err := p.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ors fetch routes: %w", err)
	}

	var decoded orsDirectionsResponse
	if err := p.doJSON(httpReq, &decoded); err != nil {
		return nil, err
	}

	if len(decoded.Routes) == 0 {
		return nil, p.badResponse("no routes in response")
	}

	out := make([]ports.RouteCandidate, 0, len(decoded.Routes))
	for i, r := range decoded.Routes {
		if r.Summary.Distance < 0 || r.Summary.Duration < 0 {
			return nil, p.badResponse("route %d has negative metrics", i)
		}
		out = append(out, ports.RouteCandidate{
			DistanceMeters:  r.Summary.Distance,
			DurationSeconds: r.Summary.Duration,
			Geometry: ports.RouteGeometry{
				Encoded:         r.Geometry,
				PrecisionDigits: orsPolylinePrecision,
			},
		})
	}

	return out, nil
}
