package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/ports"
)

// osrmPolylinePrecision is fixed by the request's geometries=polyline6 option.
const osrmPolylinePrecision = 6

// OSRMRouteProvider is the primary route-geometry gateway, speaking the OSRM
// route API. Geometry comes back polyline-encoded at 1e6 precision.
type OSRMRouteProvider struct {
	gateway
	profile string
}

func NewOSRMRouteProvider(baseURL string, timeout time.Duration, log *zap.Logger) *OSRMRouteProvider {
	return &OSRMRouteProvider{
		gateway: newGateway("osrm", baseURL, timeout, log),
		profile: "driving",
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func (p *OSRMRouteProvider) FetchRoutes(ctx context.Context, req ports.RouteRequest) ([]ports.RouteCandidate, error) {
	url := fmt.Sprintf(
		"%s/route/v1/%s/%f,%f;%f,%f",
		p.baseURL, p.profile,
		req.Start.Lng, req.Start.Lat,
		req.End.Lng, req.End.Lat,
	)

	httpReq, err := p.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm fetch routes: %w", err)
	}

	q := httpReq.URL.Query()
	q.Set("alternatives", "true")
	q.Set("overview", "full")
	q.Set("geometries", "polyline6")
	httpReq.URL.RawQuery = q.Encode()

	var decoded osrmResponse
	if err := p.doJSON(httpReq, &decoded); err != nil {
		return nil, err
	}

	if decoded.Code != "Ok" {
		return nil, p.badResponse("code %q", decoded.Code)
	}
	if len(decoded.Routes) == 0 {
		return nil, p.badResponse("no routes in response")
	}

	out := make([]ports.RouteCandidate, 0, len(decoded.Routes))
	for i, r := range decoded.Routes {
		if r.Distance < 0 || r.Duration < 0 {
			return nil, p.badResponse("route %d has negative metrics", i)
		}
		out = append(out, ports.RouteCandidate{
			DistanceMeters:  r.Distance,
			DurationSeconds: r.Duration,
			Geometry: ports.RouteGeometry{
				Encoded:         r.Geometry,
				PrecisionDigits: osrmPolylinePrecision,
			},
		})
	}

	return out, nil
}
