package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// TolledWaySource lists toll-tagged road segments within a bounding
// rectangle. OverpassClosureProvider implements it.
type TolledWaySource interface {
	FetchTolledWays(ctx context.Context, rect domain.BoundingRect) ([]domain.ClosureRecord, error)
}

// HeuristicTollEstimator prices tolls from road-segment tags when no
// dedicated toll provider is configured: tolled segments in the route's
// bounding box × a fixed unit cost. The unit cost and currency are
// configuration, not business logic.
type HeuristicTollEstimator struct {
	ways     TolledWaySource
	unitCost float64
	currency string
	log      *zap.Logger
}

func NewHeuristicTollEstimator(ways TolledWaySource, unitCost float64, currency string, log *zap.Logger) *HeuristicTollEstimator {
	return &HeuristicTollEstimator{
		ways:     ways,
		unitCost: unitCost,
		currency: currency,
		log:      log.Named("toll-heuristic"),
	}
}

func (h *HeuristicTollEstimator) FetchTolls(ctx context.Context, points []domain.GeoPoint, vehicleClass string) (ports.TollSummary, error) {
	if len(points) == 0 {
		return ports.TollSummary{Currency: h.currency}, nil
	}

	rect := domain.RectSpanning(points[0], points[len(points)-1])
	ways, err := h.ways.FetchTolledWays(ctx, rect)
	if err != nil {
		return ports.TollSummary{}, fmt.Errorf("heuristic toll estimate: %w", err)
	}

	summary := ports.TollSummary{Currency: h.currency}
	for _, way := range ways {
		summary.TotalCost += h.unitCost
		summary.Points = append(summary.Points, domain.TollPoint{
			Location: way.Center,
			Name:     way.Tags["name"],
			Cost:     h.unitCost,
			Currency: h.currency,
		})
	}

	h.log.Debug("estimated tolls from way tags",
		zap.Int("tolled_segments", len(summary.Points)),
		zap.Float64("total", summary.TotalCost),
	)
	return summary, nil
}
