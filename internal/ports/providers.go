package ports

import (
	"context"
	"encoding/json"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/geometry"
)

// RouteRequest is the uniform request shape sent to both route providers:
// two geographic endpoints plus a vehicle-class hint.
type RouteRequest struct {
	Start        domain.GeoPoint
	End          domain.GeoPoint
	VehicleClass string
}

// RouteGeometry carries one provider path geometry exactly as the provider
// shaped it. Either Encoded (a polyline at PrecisionDigits) or Pairs (a
// structured list in Order axis order) is set; the resolver normalizes it
// through the geometry codec.
type RouteGeometry struct {
	Encoded         string
	PrecisionDigits int

	Pairs [][]float64
	Order geometry.AxisOrder
}

// RouteCandidate is one alternative path from a route provider, in
// provider-reported preference order.
type RouteCandidate struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        RouteGeometry
}

// RouteProvider fetches candidate paths between two endpoints.
type RouteProvider interface {
	// FetchRoutes returns one or more candidate paths, best first.
	FetchRoutes(ctx context.Context, req RouteRequest) ([]RouteCandidate, error)
}

// TollSummary is the canonical toll answer for one coordinate sequence.
type TollSummary struct {
	TotalCost float64
	Currency  string
	Points    []domain.TollPoint
}

// TollProvider prices tolls along an ordered coordinate sequence.
type TollProvider interface {
	FetchTolls(ctx context.Context, points []domain.GeoPoint, vehicleClass string) (TollSummary, error)
}

// TrafficReport is the canonical congestion answer for one point query.
type TrafficReport struct {
	// Congestion is a 0-10 scale; 0 is free flow.
	Congestion int
	Details    []json.RawMessage
}

// TrafficProvider reports congestion around a center point.
type TrafficProvider interface {
	FetchTraffic(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (TrafficReport, error)
}

// ClosureProvider reports way-level road restrictions within a bounding
// rectangle.
type ClosureProvider interface {
	FetchClosures(ctx context.Context, rect domain.BoundingRect) ([]domain.ClosureRecord, error)
}
