package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
)

// Event names carried on the live-update channel.
const (
	EventTrafficUpdate  = "traffic:update"
	EventRouteUpdate    = "route:update"
	EventClosuresUpdate = "closures:update"
)

// TrafficPayload is the traffic:update payload.
type TrafficPayload struct {
	Congestion int               `json:"congestion"`
	Details    []json.RawMessage `json:"details,omitempty"`
}

// RouteStatusPayload is the route:update payload for a corridor scope.
type RouteStatusPayload struct {
	Congestion int `json:"congestion"`
}

// ClosuresPayload is the closures:update payload.
type ClosuresPayload struct {
	Closures []domain.ClosureRecord `json:"closures"`
}

// Distributor runs one loop per active scope, re-fetching data on a fixed
// cadence per scope kind and publishing through the registry. Closure
// re-fetches run on a slower cadence than traffic because closures change
// less often. Loops start when a scope gains its first subscriber and are
// independently cancelled when the last subscriber leaves, so no background
// work outlives its audience.
type Distributor struct {
	registry *Registry
	traffic  ports.TrafficProvider
	closures ports.ClosureProvider
	synth    *SyntheticGenerator

	trafficInterval time.Duration
	closureInterval time.Duration
	fetchTimeout    time.Duration

	mu      sync.Mutex
	loops   map[string]context.CancelFunc
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	log *zap.Logger
}

func NewDistributor(
	registry *Registry,
	traffic ports.TrafficProvider,
	closures ports.ClosureProvider,
	synth *SyntheticGenerator,
	trafficInterval time.Duration,
	closureInterval time.Duration,
	log *zap.Logger,
) *Distributor {
	fetchTimeout := trafficInterval
	if fetchTimeout > 10*time.Second {
		fetchTimeout = 10 * time.Second
	}

	return &Distributor{
		registry:        registry,
		traffic:         traffic,
		closures:        closures,
		synth:           synth,
		trafficInterval: trafficInterval,
		closureInterval: closureInterval,
		fetchTimeout:    fetchTimeout,
		loops:           make(map[string]context.CancelFunc),
		log:             log.Named("distributor"),
	}
}

// Start registers the distributor as the registry's scope listener and makes
// it ready to spawn per-scope loops.
func (d *Distributor) Start() {
	d.mu.Lock()
	d.baseCtx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()

	d.registry.SetListener(d)
}

// Stop cancels every per-scope loop and waits for them to exit.
func (d *Distributor) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.loops = make(map[string]context.CancelFunc)
	d.mu.Unlock()

	d.wg.Wait()
}

// ScopeActivated implements ScopeListener: first subscriber for a scope.
func (d *Distributor) ScopeActivated(scope Scope) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.baseCtx == nil || d.baseCtx.Err() != nil {
		return
	}

	key := scope.Key()
	if _, running := d.loops[key]; running {
		return
	}

	ctx, cancel := context.WithCancel(d.baseCtx)
	d.loops[key] = cancel
	d.wg.Add(1)

	go d.run(ctx, scope)
	d.log.Info("scope loop started", zap.String("scope", key))
}

// ScopeDeactivated implements ScopeListener: last subscriber left.
func (d *Distributor) ScopeDeactivated(scope Scope) {
	key := scope.Key()

	d.mu.Lock()
	cancel, ok := d.loops[key]
	delete(d.loops, key)
	d.mu.Unlock()

	if ok {
		cancel()
		d.log.Info("scope loop cancelled", zap.String("scope", key))
	}
}

func (d *Distributor) run(ctx context.Context, scope Scope) {
	defer d.wg.Done()

	switch scope.Kind {
	case ScopeRouteCorridor:
		d.runCorridor(ctx, scope)
	default:
		d.runPointRadius(ctx, scope)
	}
}

// runPointRadius publishes traffic on the fast cadence and closures on the
// slow one. The first cycle fires immediately so subscribers are not left
// waiting a full interval for their first update.
func (d *Distributor) runPointRadius(ctx context.Context, scope Scope) {
	trafficTicker := time.NewTicker(d.trafficInterval)
	defer trafficTicker.Stop()
	closureTicker := time.NewTicker(d.closureInterval)
	defer closureTicker.Stop()

	d.publishTraffic(ctx, scope)
	d.publishClosures(ctx, scope)

	for {
		select {
		case <-ctx.Done():
			return
		case <-trafficTicker.C:
			d.publishTraffic(ctx, scope)
		case <-closureTicker.C:
			d.publishClosures(ctx, scope)
		}
	}
}

func (d *Distributor) runCorridor(ctx context.Context, scope Scope) {
	ticker := time.NewTicker(d.trafficInterval)
	defer ticker.Stop()

	d.publishRouteStatus(ctx, scope)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.publishRouteStatus(ctx, scope)
		}
	}
}

func (d *Distributor) publishTraffic(ctx context.Context, scope Scope) {
	fctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	report, err := d.traffic.FetchTraffic(fctx, scope.Center, scope.RadiusMeters)
	cancel()

	source := SourceLive
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.log.Warn("live traffic fetch failed, serving synthetic",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
		report = d.synth.Traffic(scope.Center)
		source = SourceSynthetic
	}

	d.registry.Publish(Update{
		Event:  EventTrafficUpdate,
		Source: source,
		Scope:  scope,
		Payload: TrafficPayload{
			Congestion: report.Congestion,
			Details:    report.Details,
		},
	})
}

func (d *Distributor) publishClosures(ctx context.Context, scope Scope) {
	rect := domain.RectAround(scope.Center, scope.RadiusMeters)

	fctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	closures, err := d.closures.FetchClosures(fctx, rect)
	cancel()

	source := SourceLive
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.log.Warn("live closures fetch failed, serving synthetic",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
		closures = d.synth.Closures(rect)
		source = SourceSynthetic
	}

	d.registry.Publish(Update{
		Event:   EventClosuresUpdate,
		Source:  source,
		Scope:   scope,
		Payload: ClosuresPayload{Closures: closures},
	})
}

// publishRouteStatus derives corridor congestion from traffic at the
// corridor's geographic midpoint.
func (d *Distributor) publishRouteStatus(ctx context.Context, scope Scope) {
	mid := domain.GeoPoint{
		Lat: (scope.Start.Lat + scope.End.Lat) / 2,
		Lng: (scope.Start.Lng + scope.End.Lng) / 2,
	}

	fctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	report, err := d.traffic.FetchTraffic(fctx, mid, 0)
	cancel()

	source := SourceLive
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		report = d.synth.Traffic(mid)
		source = SourceSynthetic
	}

	d.registry.Publish(Update{
		Event:   EventRouteUpdate,
		Source:  source,
		Scope:   scope,
		Payload: RouteStatusPayload{Congestion: report.Congestion},
	})
}
