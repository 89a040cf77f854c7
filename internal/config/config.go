// Package config loads service configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration. Empty API keys and URLs select
// degraded wiring at the composition root (heuristic tolls, no cache, no-op
// recorder) rather than failing startup.
type Config struct {
	Port string

	OSRMBaseURL     string
	ORSBaseURL      string
	ORSAPIKey       string
	TomTomBaseURL   string
	TomTomAPIKey    string
	OverpassBaseURL string
	TollGuruBaseURL string
	TollGuruAPIKey  string

	ProviderTimeout time.Duration
	OverlayTimeout  time.Duration

	TrafficInterval time.Duration
	ClosureInterval time.Duration

	TollUnitCost float64
	TollCurrency string

	RedisURL      string
	RouteCacheTTL time.Duration

	DatabaseURL string
}

// Load reads the environment. A missing .env file is not an error; explicit
// environment variables always win because godotenv never overwrites.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	return Config{
		Port: Get("PORT", "8080"),

		OSRMBaseURL:     Get("OSRM_BASE_URL", "https://router.project-osrm.org"),
		ORSBaseURL:      Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSAPIKey:       os.Getenv("ORS_API_KEY"),
		TomTomBaseURL:   Get("TOMTOM_BASE_URL", "https://api.tomtom.com"),
		TomTomAPIKey:    os.Getenv("TOMTOM_API_KEY"),
		OverpassBaseURL: Get("OVERPASS_BASE_URL", "https://overpass-api.de"),
		TollGuruBaseURL: Get("TOLLGURU_BASE_URL", "https://apis.tollguru.com"),
		TollGuruAPIKey:  os.Getenv("TOLLGURU_API_KEY"),

		ProviderTimeout: GetDuration("PROVIDER_TIMEOUT", 10*time.Second),
		OverlayTimeout:  GetDuration("OVERLAY_TIMEOUT", 8*time.Second),

		// Closures refresh slower than traffic because they change less often.
		TrafficInterval: GetDuration("TRAFFIC_INTERVAL", 30*time.Second),
		ClosureInterval: GetDuration("CLOSURE_INTERVAL", 5*time.Minute),

		TollUnitCost: GetFloat("TOLL_UNIT_COST", 65),
		TollCurrency: Get("TOLL_CURRENCY", "INR"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RouteCacheTTL: GetDuration("ROUTE_CACHE_TTL", 15*time.Minute),

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}, envLoaded
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func GetFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
