package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"truck-route-service/internal/adapters/cache"
	"truck-route-service/internal/adapters/providers"
	"truck-route-service/internal/adapters/recorder"
	"truck-route-service/internal/api"
	"truck-route-service/internal/config"
	"truck-route-service/internal/platform/db"
	"truck-route-service/internal/ports"
	"truck-route-service/internal/realtime"
	"truck-route-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (OSRM, ORS, TomTom, Overpass, TollGuru, Redis, Postgres) behind ports and
// starts the HTTP server. Missing optional backends degrade the wiring
// instead of failing startup: no Redis means no route cache, no Postgres
// means a no-op recorder, no TollGuru key means heuristic toll pricing.
func main() {
	cfg, envLoaded := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !envLoaded {
		log.Info("no .env file found, using environment variables")
	}

	routeCache := buildRouteCache(cfg, log)
	rec := buildRecorder(cfg, log)

	primary := providers.NewOSRMRouteProvider(cfg.OSRMBaseURL, cfg.ProviderTimeout, log)
	fallback := providers.NewORSRouteProvider(cfg.ORSBaseURL, cfg.ORSAPIKey, cfg.ProviderTimeout, log)
	traffic := providers.NewTomTomTrafficProvider(cfg.TomTomBaseURL, cfg.TomTomAPIKey, cfg.ProviderTimeout, log)
	closures := providers.NewOverpassClosureProvider(cfg.OverpassBaseURL, cfg.ProviderTimeout, log)
	tolls := buildTollProvider(cfg, closures, log)

	resolver := services.NewRouteResolver(primary, fallback, routeCache, log)
	enricher := services.NewEnricher(tolls, traffic, closures, cfg.OverlayTimeout, log)

	registry := realtime.NewRegistry(log)
	synth := realtime.NewSyntheticGenerator(time.Now().UnixNano())
	distributor := realtime.NewDistributor(
		registry,
		traffic,
		closures,
		synth,
		cfg.TrafficInterval,
		cfg.ClosureInterval,
		log,
	)
	distributor.Start()

	router := api.NewRouter(api.Deps{
		Resolver: resolver,
		Enricher: enricher,
		Traffic:  traffic,
		Closures: closures,
		Tolls:    tolls,
		Recorder: rec,
		Registry: registry,
		Synth:    synth,
		Log:      log,
	})

	// No WriteTimeout: websocket sessions are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown incomplete", zap.Error(err))
	}

	distributor.Stop()
	registry.Close()
	log.Info("server stopped")
}

// buildRouteCache returns a nil interface (not a typed nil pointer) when
// caching is disabled, so the resolver's nil check works.
func buildRouteCache(cfg config.Config, log *zap.Logger) ports.RouteCache {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, route caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, route caching disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, route caching disabled", zap.Error(err))
		return nil
	}

	log.Info("route cache enabled", zap.Duration("ttl", cfg.RouteCacheTTL))
	return cache.NewRedisRouteCache(client, cfg.RouteCacheTTL)
}

func buildRecorder(cfg config.Config, log *zap.Logger) ports.Recorder {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set, recording disabled")
		return recorder.NoopRecorder{}
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Warn("postgres unreachable, recording disabled", zap.Error(err))
		return recorder.NoopRecorder{}
	}

	log.Info("postgres recorder enabled")
	return recorder.NewPostgresRecorder(conn)
}

func buildTollProvider(cfg config.Config, ways providers.TolledWaySource, log *zap.Logger) ports.TollProvider {
	if cfg.TollGuruAPIKey != "" {
		return providers.NewTollGuruTollProvider(cfg.TollGuruBaseURL, cfg.TollGuruAPIKey, cfg.ProviderTimeout, log)
	}

	log.Info("TOLLGURU_API_KEY not set, using heuristic toll pricing",
		zap.Float64("unit_cost", cfg.TollUnitCost),
		zap.String("currency", cfg.TollCurrency),
	)
	return providers.NewHeuristicTollEstimator(ways, cfg.TollUnitCost, cfg.TollCurrency, log)
}
