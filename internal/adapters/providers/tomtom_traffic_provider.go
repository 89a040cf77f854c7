package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// TomTomTrafficProvider is the traffic gateway, speaking the TomTom flow
// segment API. The provider's speed pair is mapped onto the canonical 0-10
// congestion scale.
type TomTomTrafficProvider struct {
	gateway
	apiKey string
}

func NewTomTomTrafficProvider(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *TomTomTrafficProvider {
	return &TomTomTrafficProvider{
		gateway: newGateway("tomtom", baseURL, timeout, log),
		apiKey:  apiKey,
	}
}

type tomtomFlowResponse struct {
	FlowSegmentData *struct {
		CurrentSpeed  float64         `json:"currentSpeed"`
		FreeFlowSpeed float64         `json:"freeFlowSpeed"`
		Confidence    float64         `json:"confidence"`
		RoadClosure   bool            `json:"roadClosure"`
		Coordinates   json.RawMessage `json:"coordinates"`
	} `json:"flowSegmentData"`
}

// congestionScale maps a current/free-flow speed ratio to 0-10.
// Full stop (or an explicit closure) is 10, free flow is 0.
func congestionScale(current, freeFlow float64) int {
	if freeFlow <= 0 {
		return 0
	}
	level := int(math.Round(10 * (1 - current/freeFlow)))
	if level < 0 {
		return 0
	}
	if level > 10 {
		return 10
	}
	return level
}

func (p *TomTomTrafficProvider) FetchTraffic(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (ports.TrafficReport, error) {
	url := p.baseURL + "/traffic/services/4/flowSegmentData/absolute/10/json"

	httpReq, err := p.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.TrafficReport{}, fmt.Errorf("tomtom fetch traffic: %w", err)
	}

	q := httpReq.URL.Query()
	q.Set("key", p.apiKey)
	q.Set("point", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	httpReq.URL.RawQuery = q.Encode()

	var decoded tomtomFlowResponse
	if err := p.doJSON(httpReq, &decoded); err != nil {
		return ports.TrafficReport{}, err
	}

	seg := decoded.FlowSegmentData
	if seg == nil {
		return ports.TrafficReport{}, p.badResponse("missing flowSegmentData")
	}
	if seg.CurrentSpeed < 0 || seg.FreeFlowSpeed < 0 {
		return ports.TrafficReport{}, p.badResponse("negative speed values")
	}

	level := congestionScale(seg.CurrentSpeed, seg.FreeFlowSpeed)
	if seg.RoadClosure {
		level = 10
	}

	raw, err := json.Marshal(seg)
	if err != nil {
		return ports.TrafficReport{}, fmt.Errorf("tomtom fetch traffic: marshal detail: %w", err)
	}

	return ports.TrafficReport{
		Congestion: level,
		Details:    []json.RawMessage{raw},
	}, nil
}
