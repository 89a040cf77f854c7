// Package geometry normalizes heterogeneous provider geometry into one
// canonical ordered sequence of (latitude, longitude) points.
//
// Providers disagree on both polyline precision (1e5 vs 1e6) and axis order
// ((lat, lng) vs (lng, lat)); both are caller-supplied here, never guessed.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"truck-route-service/internal/domain"
)

// ErrMalformedGeometry marks corrupt or truncated geometry input. Callers can
// distinguish it from an empty route with errors.Is.
var ErrMalformedGeometry = errors.New("malformed geometry")

// AxisOrder declares how a structured coordinate pair list is laid out.
type AxisOrder int

const (
	// OrderLatLng means pairs are [latitude, longitude].
	OrderLatLng AxisOrder = iota
	// OrderLngLat means pairs are [longitude, latitude] (GeoJSON order).
	OrderLngLat
)

const maxVarintShift = 35 // 7 chunks of 5 bits; beyond this the value cannot be a coordinate delta

func precisionFactor(precisionDigits int) (float64, error) {
	if precisionDigits < 1 || precisionDigits > 7 {
		return 0, fmt.Errorf("unsupported precision %d: want 1..7", precisionDigits)
	}
	return math.Pow10(precisionDigits), nil
}

// Decode converts a polyline-encoded string into an ordered point sequence.
// precisionDigits is the provider's encoding precision (5 for 1e5, 6 for 1e6).
//
// A truncated or corrupt stream returns ErrMalformedGeometry rather than a
// silently shortened result. An empty input decodes to an empty sequence.
func Decode(encoded string, precisionDigits int) ([]domain.GeoPoint, error) {
	factor, err := precisionFactor(precisionDigits)
	if err != nil {
		return nil, err
	}

	var points []domain.GeoPoint
	var lat, lng int64

	i := 0
	for i < len(encoded) {
		dLat, next, err := decodeDelta(encoded, i)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: dangling latitude delta at byte %d", ErrMalformedGeometry, i)
		}

		dLng, after, err := decodeDelta(encoded, next)
		if err != nil {
			return nil, err
		}

		lat += dLat
		lng += dLng
		points = append(points, domain.GeoPoint{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
		i = after
	}

	return points, nil
}

// decodeDelta reads one zig-zag, variable-length encoded integer starting at
// offset i and returns the delta plus the offset of the next value.
func decodeDelta(encoded string, i int) (int64, int, error) {
	var result int64
	var shift uint

	for {
		if i >= len(encoded) {
			return 0, 0, fmt.Errorf("%w: truncated value at end of stream", ErrMalformedGeometry)
		}
		if shift > maxVarintShift {
			return 0, 0, fmt.Errorf("%w: value overflow at byte %d", ErrMalformedGeometry, i)
		}

		b := int64(encoded[i]) - 63
		if b < 0 {
			return 0, 0, fmt.Errorf("%w: invalid byte %q at offset %d", ErrMalformedGeometry, encoded[i], i)
		}
		i++

		result |= (b & 0x1f) << shift
		shift += 5

		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// Encode converts an ordered point sequence back to a polyline string at the
// given precision. Decode(Encode(points)) round-trips within that precision.
func Encode(points []domain.GeoPoint, precisionDigits int) (string, error) {
	factor, err := precisionFactor(precisionDigits)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(math.Round(p.Lat * factor))
		lng := int64(math.Round(p.Lng * factor))

		encodeDelta(&sb, lat-prevLat)
		encodeDelta(&sb, lng-prevLng)

		prevLat = lat
		prevLng = lng
	}

	return sb.String(), nil
}

func encodeDelta(sb *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}

	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

// FromPairs normalizes an explicit coordinate pair list into canonical
// (latitude, longitude) points. The caller states the source axis order;
// swapping it silently is a primary source of map-rendering corruption, so
// values are swapped, never reinterpreted, and range-checked afterwards.
func FromPairs(pairs [][]float64, order AxisOrder) ([]domain.GeoPoint, error) {
	points := make([]domain.GeoPoint, 0, len(pairs))

	for i, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("%w: pair %d has %d components, want 2", ErrMalformedGeometry, i, len(pair))
		}

		var p domain.GeoPoint
		switch order {
		case OrderLatLng:
			p = domain.GeoPoint{Lat: pair[0], Lng: pair[1]}
		case OrderLngLat:
			p = domain.GeoPoint{Lat: pair[1], Lng: pair[0]}
		default:
			return nil, fmt.Errorf("unknown axis order %d", order)
		}

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: pair %d: %v", ErrMalformedGeometry, i, err)
		}
		points = append(points, p)
	}

	return points, nil
}
