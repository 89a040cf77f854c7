package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
)

// OverpassClosureProvider is the closures gateway, querying an Overpass-style
// API for ways tagged as closed or under construction within a bounding box.
type OverpassClosureProvider struct {
	gateway
}

func NewOverpassClosureProvider(baseURL string, timeout time.Duration, log *zap.Logger) *OverpassClosureProvider {
	return &OverpassClosureProvider{
		gateway: newGateway("overpass", baseURL, timeout, log),
	}
}

type overpassResponse struct {
	Elements []struct {
		Type     string            `json:"type"`
		ID       int64             `json:"id"`
		Tags     map[string]string `json:"tags"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

func closureQuery(rect domain.BoundingRect) string {
	bbox := fmt.Sprintf("%f,%f,%f,%f", rect.MinLat, rect.MinLng, rect.MaxLat, rect.MaxLng)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  way["highway"]["access"="no"](%[1]s);
  way["highway"]["construction"](%[1]s);
  way["highway"="construction"](%[1]s);
);
out geom;`, bbox)
}

func closureReason(tags map[string]string) string {
	switch {
	case tags["construction"] != "":
		return "construction: " + tags["construction"]
	case tags["highway"] == "construction":
		return "construction"
	case tags["access"] == "no":
		return "access restricted"
	default:
		return "closed"
	}
}

func tolledWayQuery(rect domain.BoundingRect) string {
	bbox := fmt.Sprintf("%f,%f,%f,%f", rect.MinLat, rect.MinLng, rect.MaxLat, rect.MaxLng)
	return fmt.Sprintf(`[out:json][timeout:25];
way["highway"]["toll"="yes"](%s);
out geom;`, bbox)
}

// FetchClosures returns way-level restrictions inside rect, deduplicated by
// way id.
func (p *OverpassClosureProvider) FetchClosures(ctx context.Context, rect domain.BoundingRect) ([]domain.ClosureRecord, error) {
	return p.fetchWays(ctx, closureQuery(rect))
}

// FetchTolledWays returns toll-tagged segments inside rect. It feeds the
// heuristic toll estimator, not the closures overlay.
func (p *OverpassClosureProvider) FetchTolledWays(ctx context.Context, rect domain.BoundingRect) ([]domain.ClosureRecord, error) {
	return p.fetchWays(ctx, tolledWayQuery(rect))
}

func (p *OverpassClosureProvider) fetchWays(ctx context.Context, query string) ([]domain.ClosureRecord, error) {
	form := url.Values{"data": {query}}
	httpReq, err := p.newRequest(ctx, http.MethodPost, p.baseURL+"/api/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass fetch closures: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var decoded overpassResponse
	if err := p.doJSON(httpReq, &decoded); err != nil {
		return nil, err
	}

	records := make([]domain.ClosureRecord, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		if el.Type != "way" || len(el.Geometry) == 0 {
			continue
		}

		points := make([]domain.GeoPoint, 0, len(el.Geometry))
		var sumLat, sumLng float64
		for _, g := range el.Geometry {
			pt := domain.GeoPoint{Lat: g.Lat, Lng: g.Lon}
			if err := pt.Validate(); err != nil {
				return nil, p.badResponse("way %d: %v", el.ID, err)
			}
			points = append(points, pt)
			sumLat += pt.Lat
			sumLng += pt.Lng
		}

		n := float64(len(points))
		records = append(records, domain.ClosureRecord{
			ID:                "way/" + strconv.FormatInt(el.ID, 10),
			Center:            domain.GeoPoint{Lat: sumLat / n, Lng: sumLng / n},
			Reason:            closureReason(el.Tags),
			AffectedWayPoints: points,
			Tags:              el.Tags,
		})
	}

	return domain.DedupeClosures(records), nil
}
