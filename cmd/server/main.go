package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"inspection-route-service/internal/adapters/cache"
	"inspection-route-service/internal/adapters/narrative"
	"inspection-route-service/internal/adapters/repositories"
	"inspection-route-service/internal/adapters/routing"
	"inspection-route-service/internal/api"
	"inspection-route-service/internal/config"
	"inspection-route-service/internal/platform/db"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"inspection-route-service/internal/services"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, OSRM) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("INSPECTOR_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	logger := obs.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Debug().Msg("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.Ctx(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := obs.NewMetrics(reg)

	var sqlDB *sql.DB
	if cfg.Catalog.Source == config.CatalogPostgres || cfg.Cache.Backend == config.CachePostgres {
		conn, err := db.Open(ctx, cfg.Database.URL, cfg.PoolOptions())
		if err != nil {
			return err
		}
		defer conn.Close()
		sqlDB = conn
	}

	catalog, err := newCatalog(cfg, sqlDB)
	if err != nil {
		return err
	}

	store, closeStore, err := newEstimateStore(ctx, cfg, sqlDB)
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := newRouteSource(cfg, metrics)
	if err != nil {
		return err
	}

	provider := services.NewTravelProvider(cfg.TravelOptions(), source, store, metrics)

	rules, err := cfg.DayRules()
	if err != nil {
		return err
	}

	centers := cfg.RegionCenters()
	planner := &services.Planner{
		Catalog:       catalog,
		Provider:      provider,
		Home:          cfg.Home(),
		Rules:         rules,
		RegionCenters: centers,
		Worth: &services.DistrictWorthAnalyzer{
			MinStations: cfg.Planning.WorthMinStations,
			MinScore:    cfg.Planning.WorthMinScore,
		},
		Monitor:         &services.PlanMonitor{Thresholds: cfg.MonitorThresholds(), Metrics: metrics},
		Fixer:           &services.AutoFixPlanner{Policy: cfg.FixPolicy()},
		Narrator:        narrative.NewTextGenerator(),
		Metrics:         metrics,
		MaxDays:         cfg.Planning.MaxDays,
		GroupByDistrict: cfg.Planning.GroupByDistrict,
	}

	locator := &services.DaySequencer{Home: cfg.Home(), RegionCenters: centers}
	router := api.NewRouter(api.RouterDeps{
		Planner:  planner,
		Catalog:  catalog,
		Home:     cfg.Home(),
		Locate:   locator.Locate,
		Metrics:  metrics,
		Gatherer: reg,
	})

	// Timeouts are tuned for cold-cache planning (external routing latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("catalog", cfg.Catalog.Source).
			Str("cache", cfg.Cache.Backend).
			Bool("routing", cfg.Routing.Enabled).
			Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newCatalog(cfg *config.Config, sqlDB *sql.DB) (ports.StationCatalog, error) {
	if cfg.Catalog.Source == config.CatalogFile {
		return repositories.NewFileStationCatalog(cfg.Catalog.SeedPath)
	}
	return repositories.NewPostgresStationCatalog(sqlDB), nil
}

// newEstimateStore returns nil for the memory backend, leaving the provider
// with its in-process cache only.
func newEstimateStore(ctx context.Context, cfg *config.Config, sqlDB *sql.DB) (ports.EstimateStore, func(), error) {
	switch cfg.Cache.Backend {
	case config.CachePostgres:
		return cache.NewSQLEstimateStore(sqlDB), func() {}, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis estimate store: ping %s: %w", cfg.Cache.RedisAddr, err)
		}
		return cache.NewRedisEstimateStore(client, cfg.Cache.TTL), func() { _ = client.Close() }, nil
	}
	return nil, func() {}, nil
}

// newRouteSource builds the configured routing client; nil disables routing.
func newRouteSource(cfg *config.Config, metrics *obs.Metrics) (ports.RouteSource, error) {
	if !cfg.Routing.Enabled {
		return nil, nil
	}

	switch cfg.Routing.Provider {
	case config.ProviderORS:
		client, err := routing.NewORSClient(cfg.ORSOptions(), metrics)
		if err != nil {
			return nil, fmt.Errorf("ors routing client: %w", err)
		}
		return client, nil
	default:
		client, err := routing.NewOSRMClient(cfg.OSRMOptions(), metrics)
		if err != nil {
			return nil, fmt.Errorf("osrm routing client: %w", err)
		}
		return client, nil
	}
}
