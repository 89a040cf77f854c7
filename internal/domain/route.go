package domain

import "encoding/json"

// SourceProvider identifies which route provider produced a canonical route.
type SourceProvider string

const (
	SourcePrimary  SourceProvider = "primary"
	SourceFallback SourceProvider = "fallback"
)

// TollPoint is a single priced toll location along a route.
type TollPoint struct {
	Location GeoPoint
	Name     string
	Cost     float64
	Currency string
}

// CanonicalRoute is the system's normalized route representation, independent
// of which provider produced it.
//
// Geometry is always non-empty for routes handed to callers; a provider
// response with zero usable points is a resolution failure, never a
// zero-length success. Routes are treated as immutable once returned;
// enrichment works on copies (see Clone).
type CanonicalRoute struct {
	ID              string
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []GeoPoint

	TollCost     float64
	TollCurrency string
	TollPoints   []TollPoint

	// TrafficLevel is nil when traffic data is unavailable, which is distinct
	// from a measured congestion of zero.
	TrafficLevel   *int
	TrafficDetails []json.RawMessage

	Source SourceProvider
}

// Midpoint returns the geometric midpoint of the route's point sequence.
// Callers must not invoke it on an empty geometry.
func (r *CanonicalRoute) Midpoint() GeoPoint {
	return r.Geometry[len(r.Geometry)/2]
}

// Clone returns a deep copy so one enrichment stage can write without
// racing another stage or mutating a snapshot already handed out.
func (r *CanonicalRoute) Clone() *CanonicalRoute {
	out := *r

	out.Geometry = make([]GeoPoint, len(r.Geometry))
	copy(out.Geometry, r.Geometry)

	if r.TollPoints != nil {
		out.TollPoints = make([]TollPoint, len(r.TollPoints))
		copy(out.TollPoints, r.TollPoints)
	}
	if r.TrafficDetails != nil {
		out.TrafficDetails = make([]json.RawMessage, len(r.TrafficDetails))
		copy(out.TrafficDetails, r.TrafficDetails)
	}
	if r.TrafficLevel != nil {
		level := *r.TrafficLevel
		out.TrafficLevel = &level
	}

	return &out
}
