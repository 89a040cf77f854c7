package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truck-route-service/internal/adapters/providers"
	"truck-route-service/internal/adapters/recorder"
	"truck-route-service/internal/api/dto"
	"truck-route-service/internal/domain"
	"truck-route-service/internal/ports"
	"truck-route-service/internal/realtime"
)

func newTrafficHandler(p ports.TrafficProvider) *TrafficHandler {
	return &TrafficHandler{
		Provider: p,
		Synth:    realtime.NewSyntheticGenerator(1),
		Recorder: recorder.NoopRecorder{},
		Log:      zap.NewNop(),
	}
}

func getTraffic(t *testing.T, h *TrafficHandler, query string) (*httptest.ResponseRecorder, dto.TrafficResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/traffic"+query, nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	var res dto.TrafficResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec, res
}

func TestTrafficQueryLive(t *testing.T) {
	h := newTrafficHandler(&providers.MockTrafficProvider{
		Report: ports.TrafficReport{Congestion: 7},
	})

	rec, res := getTraffic(t, h, "?lat=19.0&lng=72.9&radius=5000")

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
	require.Equal(t, 7, res.Data.Congestion)
	require.Equal(t, realtime.SourceLive, res.Data.Source)
}

func TestTrafficQuerySyntheticFallback(t *testing.T) {
	h := newTrafficHandler(&providers.MockTrafficProvider{
		Err: &ports.ProviderError{Provider: "tomtom", Kind: ports.ProviderUnreachable},
	})

	rec, res := getTraffic(t, h, "?lat=19.0&lng=72.9")

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
	require.Equal(t, realtime.SourceSynthetic, res.Data.Source)
	require.GreaterOrEqual(t, res.Data.Congestion, 0)
	require.LessOrEqual(t, res.Data.Congestion, 10)
}

func TestTrafficQueryValidation(t *testing.T) {
	h := newTrafficHandler(&providers.MockTrafficProvider{})

	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"missing lat", "?lng=72.9", "lat is required"},
		{"missing lng", "?lat=19.0", "lng is required"},
		{"non-numeric lat", "?lat=abc&lng=72.9", "lat must be a number"},
		{"negative radius", "?lat=19.0&lng=72.9&radius=-5", "radius"},
		{"latitude out of range", "?lat=95&lng=72.9", "latitude"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := getTraffic(t, h, tc.query)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestClosuresQuery(t *testing.T) {
	records := []domain.ClosureRecord{{
		ID:     "way/42",
		Center: domain.GeoPoint{Lat: 19.01, Lng: 72.91},
		Reason: "construction",
		Tags:   map[string]string{"highway": "primary"},
	}}
	closures := &providers.MockClosureProvider{Closures: records}
	h := &ClosureHandler{Provider: closures, Recorder: recorder.NoopRecorder{}, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/closures?lat=19.0&lng=72.9&endLat=19.1&endLng=73.0", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.ClosuresResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Len(t, res.Closures, 1)
	require.Equal(t, "way/42", res.Closures[0].ID)
	require.Equal(t, "construction", res.Closures[0].Reason)
}

func TestClosuresQueryProviderDown(t *testing.T) {
	closures := &providers.MockClosureProvider{
		Err: &ports.ProviderError{Provider: "overpass", Kind: ports.ProviderTimeout},
	}
	h := &ClosureHandler{Provider: closures, Recorder: recorder.NoopRecorder{}, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/closures?lat=19.0&lng=72.9", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.ClosuresResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.NotNil(t, res.Closures)
	require.Empty(t, res.Closures)
	require.NotEmpty(t, res.Error)
}

func TestTollQuote(t *testing.T) {
	toll := &providers.MockTollProvider{Summary: ports.TollSummary{
		TotalCost: 540,
		Currency:  "INR",
		Points: []domain.TollPoint{{
			Location: domain.GeoPoint{Lat: 18.5, Lng: 73.8},
			Name:     "Khalapur",
			Cost:     270,
			Currency: "INR",
		}},
	}}
	h := &TollHandler{Provider: toll, Log: zap.NewNop()}

	body := `{"points":[{"lat":13.0827,"lng":80.2707},{"lat":19.0760,"lng":72.8777}],"vehicleType":"truck"}`
	req := httptest.NewRequest(http.MethodPost, "/tolls", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.TollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.True(t, res.HasTolls)
	require.Equal(t, 540.0, res.Summary.TotalCost)
	require.Equal(t, "INR", res.Summary.Currency)
	require.Len(t, res.Tolls, 1)
	require.Equal(t, "Khalapur", res.Tolls[0].Name)
}

func TestTollQuoteValidation(t *testing.T) {
	h := &TollHandler{Provider: &providers.MockTollProvider{}, Log: zap.NewNop()}

	cases := []struct {
		name string
		body string
		want string
	}{
		{"too few points", `{"points":[{"lat":13.0,"lng":80.2}]}`, "at least 2"},
		{"point missing lng", `{"points":[{"lat":13.0},{"lat":19.0,"lng":72.8}]}`, "points[0]"},
		{"invalid latitude", `{"points":[{"lat":99,"lng":80.2},{"lat":19.0,"lng":72.8}]}`, "points[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tolls", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Quote(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestTollQuoteProviderDown(t *testing.T) {
	toll := &providers.MockTollProvider{
		Err: &ports.ProviderError{Provider: "tollguru", Kind: ports.ProviderRateLimited},
	}
	h := &TollHandler{Provider: toll, Log: zap.NewNop()}

	body := `{"points":[{"lat":13.0827,"lng":80.2707},{"lat":19.0760,"lng":72.8777}]}`
	req := httptest.NewRequest(http.MethodPost, "/tolls", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.TollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.False(t, res.HasTolls)
	require.NotEmpty(t, res.Error)
}
