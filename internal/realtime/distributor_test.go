package realtime

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/adapters/providers"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

func newTestDistributor(traffic ports.TrafficProvider, closures ports.ClosureProvider) (*Registry, *Distributor) {
	registry := NewRegistry(zap.NewNop())
	d := NewDistributor(
		registry,
		traffic,
		closures,
		NewSyntheticGenerator(1),
		20*time.Millisecond,
		60*time.Millisecond,
		zap.NewNop(),
	)
	d.Start()
	return registry, d
}

func collect(ch <-chan Update, want int, deadline time.Duration) []Update {
	var out []Update
	timeout := time.After(deadline)
	for len(out) < want {
		select {
		case u := <-ch:
			out = append(out, u)
		case <-timeout:
			return out
		}
	}
	return out
}

func TestDistributorPublishesLiveUpdates(t *testing.T) {
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 5}}
	closures := &providers.MockClosureProvider{}
	registry, d := newTestDistributor(traffic, closures)
	defer d.Stop()

	ch := make(chan Update, 16)
	registry.Subscribe(pointScope(19.0, 72.9, 5000), ch)

	updates := collect(ch, 3, time.Second)
	if len(updates) < 3 {
		t.Fatalf("got %d updates, want at least 3", len(updates))
	}

	sawTraffic := false
	for _, u := range updates {
		// live payloads always carry source live, never ambiguous
		if u.Source != SourceLive {
			t.Fatalf("update %s has source %q", u.Event, u.Source)
		}
		if u.Event == EventTrafficUpdate {
			sawTraffic = true
			if u.Payload.(TrafficPayload).Congestion != 5 {
				t.Fatalf("congestion = %d", u.Payload.(TrafficPayload).Congestion)
			}
		}
	}
	if !sawTraffic {
		t.Fatal("no traffic:update delivered")
	}
}

func TestDistributorFallsBackToSynthetic(t *testing.T) {
	traffic := &providers.MockTrafficProvider{
		Err: &ports.ProviderError{Provider: "tomtom", Kind: ports.ProviderUnreachable},
	}
	closures := &providers.MockClosureProvider{
		Err: &ports.ProviderError{Provider: "overpass", Kind: ports.ProviderUnreachable},
	}
	registry, d := newTestDistributor(traffic, closures)
	defer d.Stop()

	ch := make(chan Update, 16)
	registry.Subscribe(pointScope(19.0, 72.9, 5000), ch)

	updates := collect(ch, 3, time.Second)
	if len(updates) < 3 {
		t.Fatalf("got %d updates, want at least 3", len(updates))
	}
	for _, u := range updates {
		// synthetic payloads are explicitly labeled, a hard contract
		if u.Source != SourceSynthetic {
			t.Fatalf("update %s has source %q, want synthetic", u.Event, u.Source)
		}
	}
}

func TestDistributorCorridorScope(t *testing.T) {
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 2}}
	registry, d := newTestDistributor(traffic, &providers.MockClosureProvider{})
	defer d.Stop()

	start := domain.GeoPoint{Lat: 13.0827, Lng: 80.2707}
	end := domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}

	ch := make(chan Update, 16)
	registry.Subscribe(corridorScope(start, end), ch)

	updates := collect(ch, 2, time.Second)
	if len(updates) < 2 {
		t.Fatalf("got %d updates, want at least 2", len(updates))
	}
	for _, u := range updates {
		if u.Event != EventRouteUpdate {
			t.Fatalf("event = %q, want route:update", u.Event)
		}
	}

	// corridor traffic is derived at the corridor midpoint
	center, _ := traffic.LastCenter.Load().(domain.GeoPoint)
	wantLat := (start.Lat + end.Lat) / 2
	if center.Lat != wantLat {
		t.Fatalf("traffic queried at lat %v, want corridor midpoint %v", center.Lat, wantLat)
	}
}

func TestDistributorCancelsLoopOnLastUnsubscribe(t *testing.T) {
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 1}}
	registry, d := newTestDistributor(traffic, &providers.MockClosureProvider{})
	defer d.Stop()

	ch := make(chan Update, 64)
	id := registry.Subscribe(pointScope(19.0, 72.9, 5000), ch)

	if len(collect(ch, 1, time.Second)) != 1 {
		t.Fatal("loop never produced an update")
	}

	registry.Unsubscribe(id)

	// let any in-flight cycle drain, then confirm the fetch loop stopped
	time.Sleep(50 * time.Millisecond)
	before := traffic.Calls.Load()
	time.Sleep(100 * time.Millisecond)
	after := traffic.Calls.Load()

	if after != before {
		t.Fatalf("provider still being polled after last unsubscribe: %d -> %d", before, after)
	}
}

func TestDistributorSeparateScopesGetSeparateLoops(t *testing.T) {
	traffic := &providers.MockTrafficProvider{Report: ports.TrafficReport{Congestion: 1}}
	registry, d := newTestDistributor(traffic, &providers.MockClosureProvider{})
	defer d.Stop()

	chA := make(chan Update, 16)
	chB := make(chan Update, 16)
	registry.Subscribe(pointScope(19.0, 72.9, 5000), chA)
	idB := registry.Subscribe(pointScope(13.08, 80.27, 5000), chB)

	registry.Unsubscribe(idB)

	// scope A keeps flowing after scope B's loop is cancelled
	if len(collect(chA, 2, time.Second)) < 2 {
		t.Fatal("surviving scope stopped receiving updates")
	}
}
