package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truck-route-service/internal/adapters/providers"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

func baseRoutes() []*domain.CanonicalRoute {
	return []*domain.CanonicalRoute{
		{
			ID:              "r1",
			DistanceMeters:  1345000,
			DurationSeconds: 64000,
			Geometry: []domain.GeoPoint{
				{Lat: 13.0827, Lng: 80.2707},
				{Lat: 15.5, Lng: 78.1},
				{Lat: 17.2, Lng: 75.6},
				{Lat: 19.0760, Lng: 72.8777},
			},
			Source: domain.SourcePrimary,
		},
	}
}

func TestEnrichAllOverlaysSucceed(t *testing.T) {
	toll := &providers.MockTollProvider{
		Summary: ports.TollSummary{
			TotalCost: 410.5,
			Currency:  "INR",
			Points:    []domain.TollPoint{{Name: "Paranur Plaza", Cost: 410.5, Currency: "INR"}},
		},
	}
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 6}}
	closures := &providers.MockClosureProvider{
		Closures: []domain.ClosureRecord{{ID: "way/1", Reason: "construction"}},
	}

	e := NewEnricher(toll, traffic, closures, time.Second, zap.NewNop())
	result := e.Enrich(context.Background(), baseRoutes(), resolveReq)

	require.Len(t, result.Routes, 1)
	r := result.Routes[0]

	assert.True(t, result.HasTolls)
	assert.False(t, result.TollsUnavailable)
	assert.Equal(t, 410.5, r.TollCost)
	assert.Equal(t, "INR", r.TollCurrency)

	require.NotNil(t, r.TrafficLevel)
	assert.Equal(t, 6, *r.TrafficLevel)
	assert.False(t, result.TrafficUnavailable)

	assert.Len(t, result.Closures, 1)
	assert.False(t, result.ClosuresUnavailable)
}

func TestEnrichTrafficQueriesMidpoint(t *testing.T) {
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 2}}
	e := NewEnricher(&providers.MockTollProvider{}, traffic, &providers.MockClosureProvider{}, time.Second, zap.NewNop())

	routes := baseRoutes()
	e.Enrich(context.Background(), routes, resolveReq)

	// index floor(4/2) = 2
	want := routes[0].Geometry[2]
	got, _ := traffic.LastCenter.Load().(domain.GeoPoint)
	assert.Equal(t, want, got, "traffic must be queried at the geometric midpoint")
}

func TestEnrichTollFailureDegrades(t *testing.T) {
	toll := &providers.MockTollProvider{
		Err: &ports.ProviderError{Provider: "tollguru", Kind: ports.ProviderTimeout},
	}
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 3}}
	closures := &providers.MockClosureProvider{}

	e := NewEnricher(toll, traffic, closures, time.Second, zap.NewNop())
	result := e.Enrich(context.Background(), baseRoutes(), resolveReq)

	// a toll outage is distinct from a genuine zero-cost route
	assert.True(t, result.TollsUnavailable)
	assert.False(t, result.HasTolls)
	assert.Zero(t, result.Routes[0].TollCost)

	// other overlays are unaffected
	require.NotNil(t, result.Routes[0].TrafficLevel)
	assert.False(t, result.ClosuresUnavailable)
}

func TestEnrichTrafficFailureLeavesLevelNil(t *testing.T) {
	traffic := &providers.MockTrafficProvider{
		Err: &ports.ProviderError{Provider: "tomtom", Kind: ports.ProviderUnreachable},
	}
	e := NewEnricher(&providers.MockTollProvider{}, traffic, &providers.MockClosureProvider{}, time.Second, zap.NewNop())

	result := e.Enrich(context.Background(), baseRoutes(), resolveReq)

	// nil, not zero: callers must be able to tell "no data" from "no congestion"
	assert.Nil(t, result.Routes[0].TrafficLevel)
	assert.True(t, result.TrafficUnavailable)
}

func TestEnrichClosureFailureSetsFlag(t *testing.T) {
	closures := &providers.MockClosureProvider{
		Err: &ports.ProviderError{Provider: "overpass", Kind: ports.ProviderTimeout},
	}
	e := NewEnricher(&providers.MockTollProvider{}, &providers.MockTrafficProvider{}, closures, time.Second, zap.NewNop())

	result := e.Enrich(context.Background(), baseRoutes(), resolveReq)

	assert.True(t, result.ClosuresUnavailable, "empty list alone cannot signal an outage")
	assert.NotNil(t, result.Closures)
	assert.Empty(t, result.Closures)
}

func TestEnrichTotalOutageKeepsBaseRoute(t *testing.T) {
	e := NewEnricher(
		&providers.MockTollProvider{Err: &ports.ProviderError{Provider: "tollguru", Kind: ports.ProviderUnreachable}},
		&providers.MockTrafficProvider{Err: &ports.ProviderError{Provider: "tomtom", Kind: ports.ProviderUnreachable}},
		&providers.MockClosureProvider{Err: &ports.ProviderError{Provider: "overpass", Kind: ports.ProviderUnreachable}},
		time.Second,
		zap.NewNop(),
	)

	routes := baseRoutes()
	result := e.Enrich(context.Background(), routes, resolveReq)

	require.Len(t, result.Routes, 1)
	assert.Equal(t, routes[0].DistanceMeters, result.Routes[0].DistanceMeters)
	assert.True(t, result.TollsUnavailable)
	assert.True(t, result.TrafficUnavailable)
	assert.True(t, result.ClosuresUnavailable)
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	toll := &providers.MockTollProvider{Summary: ports.TollSummary{TotalCost: 100, Currency: "INR"}}
	e := NewEnricher(toll, &providers.MockTrafficProvider{}, &providers.MockClosureProvider{}, time.Second, zap.NewNop())

	routes := baseRoutes()
	result := e.Enrich(context.Background(), routes, resolveReq)

	assert.Zero(t, routes[0].TollCost, "input snapshot must stay immutable")
	assert.Equal(t, 100.0, result.Routes[0].TollCost)
}

func TestEnrichExpiredDeadlineMarksOverlaysUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnricher(
		&providers.MockTollProvider{Summary: ports.TollSummary{TotalCost: 50}},
		&providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 1}},
		&providers.MockClosureProvider{},
		time.Second,
		zap.NewNop(),
	)

	result := e.Enrich(ctx, baseRoutes(), resolveReq)

	// incomplete overlays are marked unavailable, the base route survives
	require.Len(t, result.Routes, 1)
	assert.True(t, result.TollsUnavailable)
	assert.True(t, result.TrafficUnavailable)
	assert.True(t, result.ClosuresUnavailable)
}
