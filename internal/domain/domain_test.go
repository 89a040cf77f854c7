package domain

import (
	"math"
	"testing"
)

func TestGeoPointValidate(t *testing.T) {
	valid := []GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: -90, Lng: 180},
		{Lat: 90, Lng: -180},
		{Lat: 13.0827, Lng: 80.2707},
	}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("point %+v should be valid: %v", p, err)
		}
	}

	invalid := []GeoPoint{
		{Lat: 90.0001, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 180.5},
		{Lat: 0, Lng: -181},
		{Lat: math.NaN(), Lng: 0},
	}
	for _, p := range invalid {
		if err := p.Validate(); err == nil {
			t.Errorf("point %+v should be invalid", p)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	// Chennai -> Mumbai is roughly 1030 km great-circle.
	chennai := GeoPoint{Lat: 13.0827, Lng: 80.2707}
	mumbai := GeoPoint{Lat: 19.0760, Lng: 72.8777}

	d := DistanceMeters(chennai, mumbai)
	if d < 1000000 || d > 1100000 {
		t.Fatalf("distance = %.0f m, want ~1030 km", d)
	}

	if d := DistanceMeters(chennai, chennai); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestDedupeClosures(t *testing.T) {
	records := []ClosureRecord{
		{ID: "w1", Reason: "construction"},
		{ID: "w2", Reason: "flooding"},
		{ID: "w1", Reason: "construction (updated)"},
	}

	out := DedupeClosures(records)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].ID != "w1" || out[1].ID != "w2" {
		t.Fatalf("order not preserved: %v, %v", out[0].ID, out[1].ID)
	}
	// last write wins for a duplicated id
	if out[0].Reason != "construction (updated)" {
		t.Fatalf("duplicate not overwritten: %q", out[0].Reason)
	}
}

func TestCanonicalRouteClone(t *testing.T) {
	level := 4
	r := &CanonicalRoute{
		ID:       "r1",
		Geometry: []GeoPoint{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}},
		TollPoints: []TollPoint{
			{Name: "plaza", Cost: 120, Currency: "INR"},
		},
		TrafficLevel: &level,
	}

	c := r.Clone()
	c.Geometry[0] = GeoPoint{Lat: 9, Lng: 9}
	c.TollPoints[0].Cost = 0
	*c.TrafficLevel = 9

	if r.Geometry[0].Lat != 1 {
		t.Fatal("clone shares geometry with original")
	}
	if r.TollPoints[0].Cost != 120 {
		t.Fatal("clone shares toll points with original")
	}
	if *r.TrafficLevel != 4 {
		t.Fatal("clone shares traffic level with original")
	}
}
