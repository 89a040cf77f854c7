package recorder

import (
	"context"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// NoopRecorder satisfies the save-hook when no store is configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordRoute(ctx context.Context, route *domain.CanonicalRoute) error {
	return nil
}

func (NoopRecorder) RecordTraffic(ctx context.Context, center domain.GeoPoint, report ports.TrafficReport) error {
	return nil
}

func (NoopRecorder) RecordClosures(ctx context.Context, closures []domain.ClosureRecord) error {
	return nil
}
