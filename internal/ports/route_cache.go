package ports

import (
	"context"

	"truck-route-service/internal/domain"
)

// RouteCache stores resolved base routes keyed by request endpoints and
// vehicle class. It is consulted before the primary provider; enrichment is
// never cached so traffic, toll, and closure data stay live.
type RouteCache interface {
	Get(ctx context.Context, req RouteRequest) ([]*domain.CanonicalRoute, bool, error)
	Put(ctx context.Context, req RouteRequest, routes []*domain.CanonicalRoute) error
}
