package realtime

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// SyntheticGenerator produces plausible stand-in data when a live feed is
// unavailable, so client-facing features stay exercisable without any
// reachable provider. Its output is always published with the synthetic
// source tag; it is never allowed to pass for telemetry.
type SyntheticGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSyntheticGenerator(seed int64) *SyntheticGenerator {
	return &SyntheticGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Traffic derives a congestion level from the hour of day plus jitter:
// heavier during commute peaks, light overnight.
func (g *SyntheticGenerator) Traffic(center domain.GeoPoint) ports.TrafficReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := 2
	switch hour := g.now().Hour(); {
	case hour >= 8 && hour <= 10, hour >= 17 && hour <= 20:
		base = 6
	case hour >= 23 || hour <= 5:
		base = 1
	}

	level := base + g.rng.Intn(3) - 1
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}

	detail, _ := json.Marshal(map[string]any{
		"synthetic": true,
		"lat":       center.Lat,
		"lng":       center.Lng,
	})

	return ports.TrafficReport{
		Congestion: level,
		Details:    []json.RawMessage{detail},
	}
}

// Closures fabricates zero to two short closure segments inside rect, with
// ids namespaced so they can never collide with provider way ids.
func (g *SyntheticGenerator) Closures(rect domain.BoundingRect) []domain.ClosureRecord {
	g.mu.Lock()
	defer g.mu.Unlock()

	reasons := []string{"construction", "waterlogging", "local event"}
	count := g.rng.Intn(3)

	out := make([]domain.ClosureRecord, 0, count)
	for i := 0; i < count; i++ {
		lat := rect.MinLat + g.rng.Float64()*(rect.MaxLat-rect.MinLat)
		lng := rect.MinLng + g.rng.Float64()*(rect.MaxLng-rect.MinLng)
		center := domain.GeoPoint{Lat: lat, Lng: lng}

		out = append(out, domain.ClosureRecord{
			ID:                fmt.Sprintf("synthetic/%d", g.rng.Int63()),
			Center:            center,
			Reason:            reasons[g.rng.Intn(len(reasons))],
			AffectedWayPoints: []domain.GeoPoint{center},
			Tags:              map[string]string{"synthetic": "yes"},
		})
	}

	return out
}
