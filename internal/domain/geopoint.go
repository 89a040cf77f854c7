package domain

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// Immutable geographic point (latitude, longitude) in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks both coordinates against their legal ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lng)
	}
	return nil
}

// DistanceMeters returns the haversine great-circle distance between two points.
func DistanceMeters(a, b GeoPoint) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// BoundingRect is an axis-aligned rectangle spanning two corner points.
type BoundingRect struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// RectSpanning returns the bounding rectangle covering both points.
func RectSpanning(a, b GeoPoint) BoundingRect {
	return BoundingRect{
		MinLat: math.Min(a.Lat, b.Lat),
		MinLng: math.Min(a.Lng, b.Lng),
		MaxLat: math.Max(a.Lat, b.Lat),
		MaxLng: math.Max(a.Lng, b.Lng),
	}
}

// RectAround returns a square bounding rectangle centered on p with the given
// half-size in meters, clamped to legal coordinate ranges.
func RectAround(p GeoPoint, radiusMeters float64) BoundingRect {
	dLat := radiusMeters / earthRadiusMeters * 180 / math.Pi
	dLng := dLat / math.Max(math.Cos(p.Lat*math.Pi/180), 0.01)

	return BoundingRect{
		MinLat: math.Max(p.Lat-dLat, -90),
		MinLng: math.Max(p.Lng-dLng, -180),
		MaxLat: math.Min(p.Lat+dLat, 90),
		MaxLng: math.Min(p.Lng+dLng, 180),
	}
}
