// Package realtime tracks which clients want updates for which geographic
// scope and keeps them fed from live providers, with synthetic fallback.
//
// The registry is the only long-lived shared mutable state in the service. It
// is an explicitly constructed, explicitly owned component: created at service
// start, handed to the distributor by reference, torn down at service stop.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"truck-route-service/internal/domain"
)

// ScopeKind names the supported subscription scope kinds.
type ScopeKind string

const (
	ScopePointRadius   ScopeKind = "pointRadius"
	ScopeRouteCorridor ScopeKind = "routeCorridor"
)

// Update sources. The tag is a hard contract: synthetic data must never be
// mistaken for real telemetry by a downstream consumer.
const (
	SourceLive      = "live"
	SourceSynthetic = "synthetic"
)

// Scope is the geographic criterion deciding which subscribers receive an
// update: either a center plus radius, or a route corridor's endpoint pair.
type Scope struct {
	Kind ScopeKind `json:"kind"`

	Center       domain.GeoPoint `json:"center,omitzero"`
	RadiusMeters float64         `json:"radiusMeters,omitempty"`

	Start domain.GeoPoint `json:"start,omitzero"`
	End   domain.GeoPoint `json:"end,omitzero"`
}

// Key returns a stable identity used for per-scope loop bookkeeping.
// Coordinates are quantized to 1e-5 degrees so formatting noise cannot split
// a scope in two.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeRouteCorridor:
		return fmt.Sprintf("rc:%.5f,%.5f:%.5f,%.5f", s.Start.Lat, s.Start.Lng, s.End.Lat, s.End.Lng)
	default:
		return fmt.Sprintf("pr:%.5f,%.5f:%.0f", s.Center.Lat, s.Center.Lng, s.RadiusMeters)
	}
}

// Matches reports whether an event published for scope ev reaches a
// subscription holding scope s. Matching is scope-kind equality plus
// geometric containment: overlapping circles for pointRadius, identical
// endpoint pairs for routeCorridor (exact-match routing, no fuzzy matching).
func (s Scope) Matches(ev Scope) bool {
	if s.Kind != ev.Kind {
		return false
	}
	switch s.Kind {
	case ScopePointRadius:
		return domain.DistanceMeters(s.Center, ev.Center) <= s.RadiusMeters+ev.RadiusMeters
	case ScopeRouteCorridor:
		return s.Start == ev.Start && s.End == ev.End
	default:
		return false
	}
}

// Validate rejects scopes the registry cannot match against.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopePointRadius:
		if err := s.Center.Validate(); err != nil {
			return fmt.Errorf("scope center: %w", err)
		}
		if s.RadiusMeters <= 0 {
			return fmt.Errorf("scope radius %v must be positive", s.RadiusMeters)
		}
	case ScopeRouteCorridor:
		if err := s.Start.Validate(); err != nil {
			return fmt.Errorf("scope start: %w", err)
		}
		if err := s.End.Validate(); err != nil {
			return fmt.Errorf("scope end: %w", err)
		}
	default:
		return fmt.Errorf("unknown scope kind %q", s.Kind)
	}
	return nil
}

// Update is one live-update event delivered to matching subscribers.
type Update struct {
	Event   string    `json:"event"`
	Source  string    `json:"source"`
	Scope   Scope     `json:"scope"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// ScopeListener is notified when a scope gains its first subscriber or loses
// its last one. The distributor uses it to start and cancel per-scope work.
type ScopeListener interface {
	ScopeActivated(scope Scope)
	ScopeDeactivated(scope Scope)
}

// A subscriber that misses this many consecutive deliveries is treated as
// gone and pruned.
const maxConsecutiveMisses = 3

type subscription struct {
	id        string
	scope     Scope
	ch        chan<- Update
	createdAt time.Time
	misses    int
}

// Registry tracks subscriptions and fans published updates out to matching
// channels. All methods are safe for concurrent use; it is mutated from one
// distributor loop and many client-facing handlers at once.
type Registry struct {
	mu       sync.Mutex
	subs     map[string]*subscription
	byScope  map[string]int
	last     map[string]Update
	listener ScopeListener
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		subs:    make(map[string]*subscription),
		byScope: make(map[string]int),
		last:    make(map[string]Update),
		log:     log.Named("registry"),
	}
}

// SetListener installs the scope lifecycle listener. Call before the first
// Subscribe; listener callbacks run outside the registry lock.
func (r *Registry) SetListener(l ScopeListener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

// Subscribe registers ch for updates matching scope and returns the
// subscription id. If a matching update was already published, it is replayed
// immediately so new subscribers start with a snapshot.
func (r *Registry) Subscribe(scope Scope, ch chan<- Update) string {
	id := uuid.NewString()
	sub := &subscription{
		id:        id,
		scope:     scope,
		ch:        ch,
		createdAt: time.Now(),
	}

	var activated bool
	var snapshot *Update

	r.mu.Lock()
	r.subs[id] = sub
	key := scope.Key()
	r.byScope[key]++
	if r.byScope[key] == 1 {
		activated = true
	}
	for _, u := range r.last {
		if scope.Matches(u.Scope) {
			u := u
			snapshot = &u
			break
		}
	}
	listener := r.listener
	r.mu.Unlock()

	if snapshot != nil {
		select {
		case ch <- *snapshot:
		default:
		}
	}

	if activated && listener != nil {
		listener.ScopeActivated(scope)
	}

	r.log.Debug("subscribed",
		zap.String("id", id),
		zap.String("scope", key),
	)
	return id
}

// Unsubscribe removes a subscription. No payload is delivered to its channel
// afterwards, even while publish cycles continue for other subscribers.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.subs, id)

	key := sub.scope.Key()
	deactivated := r.decrementScopeLocked(key)
	listener := r.listener
	scope := sub.scope
	r.mu.Unlock()

	if deactivated && listener != nil {
		listener.ScopeDeactivated(scope)
	}

	r.log.Debug("unsubscribed", zap.String("id", id), zap.String("scope", key))
}

// decrementScopeLocked reduces a scope's subscriber count and reports whether
// the scope just went inactive. Caller holds r.mu.
func (r *Registry) decrementScopeLocked(key string) bool {
	r.byScope[key]--
	if r.byScope[key] > 0 {
		return false
	}
	delete(r.byScope, key)
	delete(r.last, key)
	return true
}

// Publish delivers u to every matching subscription and returns the delivery
// count. Sends never block: a subscriber that cannot keep up accumulates
// misses and is dropped once the failure looks irrecoverable.
func (r *Registry) Publish(u Update) int {
	if u.At.IsZero() {
		u.At = time.Now()
	}

	var delivered int
	var deactivated []Scope

	r.mu.Lock()
	r.last[u.Scope.Key()] = u

	for id, sub := range r.subs {
		if !sub.scope.Matches(u.Scope) {
			continue
		}

		select {
		case sub.ch <- u:
			sub.misses = 0
			delivered++
		default:
			sub.misses++
			if sub.misses >= maxConsecutiveMisses {
				delete(r.subs, id)
				if r.decrementScopeLocked(sub.scope.Key()) {
					deactivated = append(deactivated, sub.scope)
				}
				r.log.Warn("dropped unresponsive subscriber",
					zap.String("id", id),
					zap.String("scope", sub.scope.Key()),
				)
			}
		}
	}
	listener := r.listener
	r.mu.Unlock()

	if listener != nil {
		for _, scope := range deactivated {
			listener.ScopeDeactivated(scope)
		}
	}

	return delivered
}

// ActiveScopes returns the distinct scopes with at least one subscriber.
func (r *Registry) ActiveScopes() []Scope {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.byScope))
	out := make([]Scope, 0, len(r.byScope))
	for _, sub := range r.subs {
		key := sub.scope.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sub.scope)
	}
	return out
}

// Close drops every subscription without notifying the listener; the service
// tears the distributor down separately.
func (r *Registry) Close() {
	r.mu.Lock()
	r.subs = make(map[string]*subscription)
	r.byScope = make(map[string]int)
	r.last = make(map[string]Update)
	r.mu.Unlock()
}
