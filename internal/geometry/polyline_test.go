package geometry

import (
	"errors"
	"math"
	"testing"

	"truck-route-service/internal/domain"
)

func TestDecodeKnownVector(t *testing.T) {
	// Reference vector from the Google polyline algorithm description.
	points, err := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.GeoPoint{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	if len(points) != len(want) {
		t.Fatalf("got %d points, want %d", len(points), len(want))
	}
	for i := range want {
		if math.Abs(points[i].Lat-want[i].Lat) > 1e-5 || math.Abs(points[i].Lng-want[i].Lng) > 1e-5 {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	points, err := Decode("", 5)
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("got %d points, want 0", len(points))
	}
}

func TestRoundTrip(t *testing.T) {
	points := []domain.GeoPoint{
		{Lat: 13.0827, Lng: 80.2707},
		{Lat: 13.1001, Lng: 80.2513},
		{Lat: 19.0760, Lng: 72.8777},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
	}

	for _, precision := range []int{5, 6} {
		tolerance := math.Pow10(-precision)

		encoded, err := Encode(points, precision)
		if err != nil {
			t.Fatalf("encode precision %d: %v", precision, err)
		}

		decoded, err := Decode(encoded, precision)
		if err != nil {
			t.Fatalf("decode precision %d: %v", precision, err)
		}
		if len(decoded) != len(points) {
			t.Fatalf("precision %d: got %d points, want %d", precision, len(decoded), len(points))
		}

		for i := range points {
			if math.Abs(decoded[i].Lat-points[i].Lat) > tolerance ||
				math.Abs(decoded[i].Lng-points[i].Lng) > tolerance {
				t.Errorf("precision %d point %d = %+v, want %+v", precision, i, decoded[i], points[i])
			}
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	encoded, err := Encode([]domain.GeoPoint{{Lat: 38.5, Lng: -120.2}, {Lat: 40.7, Lng: -120.95}}, 5)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Chopping the stream mid-value must fail loudly, never return a silently
	// shortened route. A cut landing exactly on a point boundary is the only
	// case allowed to decode, and then with fewer points.
	for cut := 1; cut < len(encoded); cut++ {
		points, err := Decode(encoded[:cut], 5)
		if err != nil {
			if !errors.Is(err, ErrMalformedGeometry) {
				t.Fatalf("cut %d: error %v is not ErrMalformedGeometry", cut, err)
			}
			continue
		}
		if len(points) != 1 {
			t.Errorf("cut %d decoded cleanly with %d points", cut, len(points))
		}
	}

	if _, err := Decode("_p~iF", 5); !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("dangling latitude: got %v, want ErrMalformedGeometry", err)
	}
}

func TestDecodeInvalidByte(t *testing.T) {
	// Bytes below '?' (63) can never appear in a valid stream.
	if _, err := Decode("_p~iF\x1f", 5); !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("got %v, want ErrMalformedGeometry", err)
	}
}

func TestDecodeUnsupportedPrecision(t *testing.T) {
	if _, err := Decode("_p~iF~ps|U", 0); err == nil {
		t.Fatal("precision 0 must be rejected")
	}
	if _, err := Decode("_p~iF~ps|U", 12); err == nil {
		t.Fatal("precision 12 must be rejected")
	}
}

func TestFromPairsAxisOrder(t *testing.T) {
	// GeoJSON-style (lng, lat) input must come out swapped, not reinterpreted.
	pairs := [][]float64{
		{80.2707, 13.0827},
		{72.8777, 19.0760},
	}

	points, err := FromPairs(pairs, OrderLngLat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[0].Lat != 13.0827 || points[0].Lng != 80.2707 {
		t.Fatalf("lng-lat pair not normalized: %+v", points[0])
	}

	same, err := FromPairs([][]float64{{13.0827, 80.2707}}, OrderLatLng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same[0] != points[0] {
		t.Fatalf("lat-lng and lng-lat inputs disagree: %+v vs %+v", same[0], points[0])
	}
}

func TestFromPairsRejectsBadInput(t *testing.T) {
	if _, err := FromPairs([][]float64{{80.27}}, OrderLngLat); !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("short pair: got %v, want ErrMalformedGeometry", err)
	}

	// A (lat, lng) list read as (lng, lat) would put 200 into latitude;
	// the range check catches the corruption instead of passing it on.
	if _, err := FromPairs([][]float64{{13.0, 200.0}}, OrderLatLng); !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("out of range: got %v, want ErrMalformedGeometry", err)
	}
}
