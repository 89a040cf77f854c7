package dto

import (
	"encoding/json"

	"truck-route-service/internal/domain"
)

// RouteRequest is the inbound route-resolution body. Coordinate fields are
// pointers so a missing field can be named in the 400 response instead of
// silently defaulting to the equator.
type RouteRequest struct {
	StartLat     *float64 `json:"startLat"`
	StartLng     *float64 `json:"startLng"`
	EndLat       *float64 `json:"endLat"`
	EndLng       *float64 `json:"endLng"`
	VehicleClass string   `json:"vehicleClass"`
}

type GeoPointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type TollPointResponse struct {
	Location GeoPointResponse `json:"location"`
	Name     string           `json:"name"`
	Cost     float64          `json:"cost"`
	Currency string           `json:"currency"`
}

type RouteResponse struct {
	ID              string              `json:"id"`
	DistanceMeters  float64             `json:"distanceMeters"`
	DurationSeconds float64             `json:"durationSeconds"`
	Geometry        []GeoPointResponse  `json:"geometry"`
	TollCost        float64             `json:"tollCost"`
	TollCurrency    string              `json:"tollCurrency,omitempty"`
	TollPoints      []TollPointResponse `json:"tollPoints,omitempty"`
	TrafficLevel    *int                `json:"trafficLevel"`
	TrafficDetails  []json.RawMessage   `json:"trafficDetails,omitempty"`
	SourceProvider  string              `json:"sourceProvider"`
}

type ClosureResponse struct {
	ID                string             `json:"id"`
	Center            GeoPointResponse   `json:"center"`
	Reason            string             `json:"reason"`
	AffectedWayPoints []GeoPointResponse `json:"affectedWayPoints,omitempty"`
	Tags              map[string]string  `json:"tags,omitempty"`
}

// ResolveRouteResponse carries per-overlay availability markers alongside the
// data: callers detect degradation by inspecting those, not the success flag.
type ResolveRouteResponse struct {
	Success  bool              `json:"success"`
	Routes   []RouteResponse   `json:"routes"`
	Closures []ClosureResponse `json:"closures"`
	HasTolls bool              `json:"hasTolls"`

	TollsUnavailable    bool `json:"tollsUnavailable"`
	TrafficUnavailable  bool `json:"trafficUnavailable"`
	ClosuresUnavailable bool `json:"closuresUnavailable"`

	Error string `json:"error,omitempty"`
}

func FromGeoPoint(p domain.GeoPoint) GeoPointResponse {
	return GeoPointResponse{Lat: p.Lat, Lng: p.Lng}
}

func FromGeoPoints(points []domain.GeoPoint) []GeoPointResponse {
	out := make([]GeoPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, FromGeoPoint(p))
	}
	return out
}

func FromRoute(r *domain.CanonicalRoute) RouteResponse {
	tolls := make([]TollPointResponse, 0, len(r.TollPoints))
	for _, tp := range r.TollPoints {
		tolls = append(tolls, TollPointResponse{
			Location: FromGeoPoint(tp.Location),
			Name:     tp.Name,
			Cost:     tp.Cost,
			Currency: tp.Currency,
		})
	}

	return RouteResponse{
		ID:              r.ID,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Geometry:        FromGeoPoints(r.Geometry),
		TollCost:        r.TollCost,
		TollCurrency:    r.TollCurrency,
		TollPoints:      tolls,
		TrafficLevel:    r.TrafficLevel,
		TrafficDetails:  r.TrafficDetails,
		SourceProvider:  string(r.Source),
	}
}

func FromClosures(closures []domain.ClosureRecord) []ClosureResponse {
	out := make([]ClosureResponse, 0, len(closures))
	for _, c := range closures {
		out = append(out, ClosureResponse{
			ID:                c.ID,
			Center:            FromGeoPoint(c.Center),
			Reason:            c.Reason,
			AffectedWayPoints: FromGeoPoints(c.AffectedWayPoints),
			Tags:              c.Tags,
		})
	}
	return out
}
