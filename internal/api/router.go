package api

import (
	"net/http"

	"go.uber.org/zap"

	"truck-route-service/internal/api/handlers"
	"truck-route-service/internal/ports"
	"truck-route-service/internal/realtime"
	"truck-route-service/internal/services"
)

// Deps collects everything the HTTP surface needs. Handlers stay unaware of
// concrete adapters; only the composition root knows those.
type Deps struct {
	Resolver *services.RouteResolver
	Enricher *services.Enricher
	Traffic  ports.TrafficProvider
	Closures ports.ClosureProvider
	Tolls    ports.TollProvider
	Recorder ports.Recorder
	Registry *realtime.Registry
	Synth    *realtime.SyntheticGenerator
	Log      *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{
		Resolver: d.Resolver,
		Enricher: d.Enricher,
		Recorder: d.Recorder,
		Log:      d.Log,
	}
	trafficHandler := &handlers.TrafficHandler{
		Provider: d.Traffic,
		Synth:    d.Synth,
		Recorder: d.Recorder,
		Log:      d.Log,
	}
	closureHandler := &handlers.ClosureHandler{
		Provider: d.Closures,
		Recorder: d.Recorder,
		Log:      d.Log,
	}
	tollHandler := &handlers.TollHandler{Provider: d.Tolls, Log: d.Log}
	wsHandler := &handlers.WSHandler{Registry: d.Registry, Log: d.Log}

	mux.HandleFunc("/health", handlers.Health(d.Log))
	mux.HandleFunc("/routes", routeHandler.Resolve)
	mux.HandleFunc("/traffic", trafficHandler.Query)
	mux.HandleFunc("/closures", closureHandler.Query)
	mux.HandleFunc("/tolls", tollHandler.Quote)
	mux.HandleFunc("/ws", wsHandler.Serve)

	return loggingMiddleware(d.Log, mux)
}
