package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// EnrichedResult is the final answer handed to callers: base routes plus
// whatever overlays succeeded, with an explicit unavailable marker per overlay
// so "no data" is never mistaken for "measured nothing".
type EnrichedResult struct {
	Routes []*domain.CanonicalRoute

	HasTolls         bool
	TollsUnavailable bool

	TrafficUnavailable bool

	Closures            []domain.ClosureRecord
	ClosuresUnavailable bool
}

// Enricher overlays toll, traffic, and closure data onto resolved routes. The
// three overlays run concurrently, each under its own timeout, and each may
// fail independently without failing the request; a total provider outage
// still returns the base routes with every overlay in its unavailable state.
type Enricher struct {
	toll     ports.TollProvider
	traffic  ports.TrafficProvider
	closures ports.ClosureProvider

	overlayTimeout time.Duration
	log            *zap.Logger
}

func NewEnricher(
	toll ports.TollProvider,
	traffic ports.TrafficProvider,
	closures ports.ClosureProvider,
	overlayTimeout time.Duration,
	log *zap.Logger,
) *Enricher {
	return &Enricher{
		toll:           toll,
		traffic:        traffic,
		closures:       closures,
		overlayTimeout: overlayTimeout,
		log:            log.Named("enricher"),
	}
}

// Enrich returns a new immutable snapshot; the input routes are not mutated.
// Overlay outcomes are independent of arrival order because each overlay
// writes a disjoint field set. Every overlay honors both its own timeout and
// the caller's deadline, so the join below is bounded by the maximum
// individual overlay timeout, never their sum; on early deadline expiry the
// overlays that finished are kept and the rest are marked unavailable.
func (e *Enricher) Enrich(ctx context.Context, routes []*domain.CanonicalRoute, req ports.RouteRequest) *EnrichedResult {
	result := &EnrichedResult{Routes: cloneAll(routes)}
	if len(result.Routes) == 0 {
		return result
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		e.overlayTolls(ctx, result, req)
	}()
	go func() {
		defer wg.Done()
		e.overlayTraffic(ctx, result)
	}()
	go func() {
		defer wg.Done()
		e.overlayClosures(ctx, result, req)
	}()

	wg.Wait()
	return result
}

// overlayTolls prices the best candidate's geometry and applies the summary
// to it. Failure leaves tollCost at 0 with TollsUnavailable set, so a genuine
// zero-cost route stays distinguishable from missing data.
func (e *Enricher) overlayTolls(ctx context.Context, result *EnrichedResult, req ports.RouteRequest) {
	octx, cancel := context.WithTimeout(ctx, e.overlayTimeout)
	defer cancel()

	best := result.Routes[0]
	summary, err := e.toll.FetchTolls(octx, best.Geometry, req.VehicleClass)
	if err != nil {
		e.log.Warn("toll overlay unavailable", zap.Error(err))
		result.TollsUnavailable = true
		return
	}

	best.TollCost = summary.TotalCost
	best.TollCurrency = summary.Currency
	best.TollPoints = summary.Points
	result.HasTolls = summary.TotalCost > 0 || len(summary.Points) > 0
}

// overlayTraffic queries congestion once per candidate at its geometric
// midpoint. Failure leaves TrafficLevel nil, never a defaulted 0.
func (e *Enricher) overlayTraffic(ctx context.Context, result *EnrichedResult) {
	octx, cancel := context.WithTimeout(ctx, e.overlayTimeout)
	defer cancel()

	failed := false
	for _, route := range result.Routes {
		report, err := e.traffic.FetchTraffic(octx, route.Midpoint(), 0)
		if err != nil {
			e.log.Warn("traffic overlay unavailable",
				zap.String("route", route.ID),
				zap.Error(err),
			)
			failed = true
			continue
		}

		level := report.Congestion
		route.TrafficLevel = &level
		route.TrafficDetails = report.Details
	}
	result.TrafficUnavailable = failed
}

// overlayClosures queries the bounding rectangle spanning both endpoints.
// The unavailable flag matters: an empty list is otherwise indistinguishable
// from "no closures found".
func (e *Enricher) overlayClosures(ctx context.Context, result *EnrichedResult, req ports.RouteRequest) {
	octx, cancel := context.WithTimeout(ctx, e.overlayTimeout)
	defer cancel()

	closures, err := e.closures.FetchClosures(octx, domain.RectSpanning(req.Start, req.End))
	if err != nil {
		e.log.Warn("closures overlay unavailable", zap.Error(err))
		result.Closures = []domain.ClosureRecord{}
		result.ClosuresUnavailable = true
		return
	}

	result.Closures = domain.DedupeClosures(closures)
}
