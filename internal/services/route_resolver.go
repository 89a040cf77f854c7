// Package services orchestrates resolution and enrichment over the provider
// gateways. Control flow lives here; provider specifics stay in adapters.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/geometry"
	"truck-route-service/internal/ports"
)

// ErrNoRouteAvailable means both route providers were exhausted. The resolver
// never fabricates a route.
var ErrNoRouteAvailable = errors.New("no route available from any provider")

// resolverState names the per-request resolution states. The explicit machine
// (rather than nested error branches) keeps "fallback attempted at most once"
// checkable by a test instead of by code inspection.
type resolverState int

const (
	stateTryPrimary resolverState = iota
	stateValidate
	stateTryFallback
	stateAccepted
	stateFailed
)

// RouteResolver obtains a route from the primary provider with an ordered,
// strictly sequential fallback to the secondary provider. A deliberate
// timeout on the primary, not speculative parallel dispatch, governs the
// cutover: attempting both at once would double provider load whenever the
// primary is merely slow.
type RouteResolver struct {
	primary  ports.RouteProvider
	fallback ports.RouteProvider
	cache    ports.RouteCache // optional
	log      *zap.Logger
}

func NewRouteResolver(primary, fallback ports.RouteProvider, cache ports.RouteCache, log *zap.Logger) *RouteResolver {
	return &RouteResolver{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		log:      log.Named("resolver"),
	}
}

// Resolve returns one or more canonical route candidates in provider
// preference order, or ErrNoRouteAvailable once both providers have failed.
func (r *RouteResolver) Resolve(ctx context.Context, req ports.RouteRequest) ([]*domain.CanonicalRoute, error) {
	if err := req.Start.Validate(); err != nil {
		return nil, fmt.Errorf("resolve: start: %w", err)
	}
	if err := req.End.Validate(); err != nil {
		return nil, fmt.Errorf("resolve: end: %w", err)
	}

	if r.cache != nil {
		if cached, ok, err := r.cache.Get(ctx, req); err != nil {
			r.log.Warn("route cache read failed", zap.Error(err))
		} else if ok {
			return cloneAll(cached), nil
		}
	}

	var (
		state             = stateTryPrimary
		candidates        []ports.RouteCandidate
		source            domain.SourceProvider
		fallbackAttempted bool
		routes            []*domain.CanonicalRoute
	)

	for {
		switch state {
		case stateTryPrimary:
			source = domain.SourcePrimary
			fetched, err := r.primary.FetchRoutes(ctx, req)
			if err != nil {
				r.log.Warn("primary provider failed", zap.Error(err))
				state = stateTryFallback
				continue
			}
			candidates = fetched
			state = stateValidate

		case stateTryFallback:
			if fallbackAttempted {
				state = stateFailed
				continue
			}
			fallbackAttempted = true
			source = domain.SourceFallback

			fetched, err := r.fallback.FetchRoutes(ctx, req)
			if err != nil {
				r.log.Warn("fallback provider failed", zap.Error(err))
				state = stateFailed
				continue
			}
			candidates = fetched
			state = stateValidate

		case stateValidate:
			validated, err := r.validate(candidates, source)
			if err != nil {
				// Malformed or empty geometry is a provider response failure,
				// not a request failure: a bad response from one provider must
				// not doom the request while a fallback exists.
				r.log.Warn("provider response rejected",
					zap.String("source", string(source)),
					zap.Error(err),
				)
				state = stateTryFallback
				continue
			}
			routes = validated
			state = stateAccepted

		case stateAccepted:
			if r.cache != nil {
				if err := r.cache.Put(ctx, req, routes); err != nil {
					r.log.Warn("route cache write failed", zap.Error(err))
				}
			}
			return routes, nil

		case stateFailed:
			return nil, ErrNoRouteAvailable
		}
	}
}

// validate normalizes every candidate's geometry through the codec at the
// provider's declared precision and rejects the whole attempt when no
// candidate yields usable points.
func (r *RouteResolver) validate(candidates []ports.RouteCandidate, source domain.SourceProvider) ([]*domain.CanonicalRoute, error) {
	routes := make([]*domain.CanonicalRoute, 0, len(candidates))

	for i, c := range candidates {
		points, err := decodeGeometry(c.Geometry)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		if len(points) == 0 {
			// Zero usable points is a provider failure, never a zero-length
			// success; skip and require at least one survivor below.
			continue
		}

		routes = append(routes, &domain.CanonicalRoute{
			ID:              uuid.NewString(),
			DistanceMeters:  c.DistanceMeters,
			DurationSeconds: c.DurationSeconds,
			Geometry:        points,
			Source:          source,
		})
	}

	if len(routes) == 0 {
		return nil, errors.New("no candidate with usable geometry")
	}
	return routes, nil
}

func decodeGeometry(g ports.RouteGeometry) ([]domain.GeoPoint, error) {
	if g.Encoded != "" {
		return geometry.Decode(g.Encoded, g.PrecisionDigits)
	}
	return geometry.FromPairs(g.Pairs, g.Order)
}

func cloneAll(routes []*domain.CanonicalRoute) []*domain.CanonicalRoute {
	out := make([]*domain.CanonicalRoute, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}
