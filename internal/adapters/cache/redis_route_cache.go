// Package cache holds the resolved-route cache consulted before the primary
// provider. Only base routes are cached; enrichment always runs live.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// RedisRouteCache stores resolved route sets keyed by endpoints and vehicle
// class, with a short TTL so stale geometry ages out on its own.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{client: client, ttl: ttl}
}

// key quantizes coordinates to 1e-5 degrees (~1 m) so float formatting noise
// cannot split cache entries for the same request.
func key(req ports.RouteRequest) string {
	class := strings.TrimSpace(req.VehicleClass)
	if class == "" {
		class = "truck"
	}
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f:%s",
		req.Start.Lat, req.Start.Lng, req.End.Lat, req.End.Lng, class)
}

func (c *RedisRouteCache) Get(ctx context.Context, req ports.RouteRequest) ([]*domain.CanonicalRoute, bool, error) {
	if c.client == nil {
		return nil, false, errors.New("route cache: client is nil")
	}

	payload, err := c.client.Get(ctx, key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("route cache get: %w", err)
	}

	var routes []*domain.CanonicalRoute
	if err := json.Unmarshal(payload, &routes); err != nil {
		return nil, false, fmt.Errorf("route cache get: decode entry: %w", err)
	}
	if len(routes) == 0 {
		// an empty set is never a valid cache entry; treat as a miss
		return nil, false, nil
	}

	return routes, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, req ports.RouteRequest, routes []*domain.CanonicalRoute) error {
	if c.client == nil {
		return errors.New("route cache: client is nil")
	}
	if len(routes) == 0 {
		return errors.New("route cache put: refusing to cache an empty route set")
	}

	payload, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("route cache put: encode entry: %w", err)
	}

	if err := c.client.Set(ctx, key(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache put: %w", err)
	}
	return nil
}
