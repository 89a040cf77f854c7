package providers

import (
	"context"
	"sync/atomic"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// Deterministic in-memory providers for tests. Each counts calls so tests can
// assert fallback-at-most-once and no-orphaned-work invariants.

type MockRouteProvider struct {
	Candidates []ports.RouteCandidate
	Err        error
	Calls      atomic.Int64
}

func (m *MockRouteProvider) FetchRoutes(ctx context.Context, req ports.RouteRequest) ([]ports.RouteCandidate, error) {
	m.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Candidates, nil
}

type MockTollProvider struct {
	Summary ports.TollSummary
	Err     error
	Calls   atomic.Int64
}

func (m *MockTollProvider) FetchTolls(ctx context.Context, points []domain.GeoPoint, vehicleClass string) (ports.TollSummary, error) {
	m.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return ports.TollSummary{}, err
	}
	if m.Err != nil {
		return ports.TollSummary{}, m.Err
	}
	return m.Summary, nil
}

type MockTrafficProvider struct {
	Report ports.TrafficReport
	Err    error
	Calls  atomic.Int64

	// LastCenter records the most recent query point for midpoint assertions.
	LastCenter atomic.Value
}

func (m *MockTrafficProvider) FetchTraffic(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (ports.TrafficReport, error) {
	m.Calls.Add(1)
	m.LastCenter.Store(center)
	if err := ctx.Err(); err != nil {
		return ports.TrafficReport{}, err
	}
	if m.Err != nil {
		return ports.TrafficReport{}, m.Err
	}
	return m.Report, nil
}

type MockClosureProvider struct {
	Closures []domain.ClosureRecord
	Err      error
	Calls    atomic.Int64
}

func (m *MockClosureProvider) FetchClosures(ctx context.Context, rect domain.BoundingRect) ([]domain.ClosureRecord, error) {
	m.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Closures, nil
}
