package ports

import (
	"context"

	"truck-route-service/internal/domain"
)

// Recorder is the save-hook offered finished results after successful
// resolution and enrichment. Implementations are free to persist, log, or
// drop the data; failures are logged by callers and never fail a request.
type Recorder interface {
	RecordRoute(ctx context.Context, route *domain.CanonicalRoute) error
	RecordTraffic(ctx context.Context, center domain.GeoPoint, report TrafficReport) error
	RecordClosures(ctx context.Context, closures []domain.ClosureRecord) error
}
