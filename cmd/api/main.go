package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/samirrijal/wayfinder/internal/adapters/google"
	"github.com/samirrijal/wayfinder/internal/adapters/http"
	kafkaadapter "github.com/samirrijal/wayfinder/internal/adapters/kafka"
	natsadapter "github.com/samirrijal/wayfinder/internal/adapters/nats"
	"github.com/samirrijal/wayfinder/internal/adapters/postgres"
	"github.com/samirrijal/wayfinder/internal/adapters/valkey"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
	"github.com/samirrijal/wayfinder/internal/pkg/config"
	"github.com/samirrijal/wayfinder/internal/pkg/logging"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
	"github.com/samirrijal/wayfinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wayfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Surfaces: http.NewSurfaceStore()}

	// Gazetteer: bundled table, replaced by the database copy when available.
	gazetteer := usecases.DefaultGazetteer()
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("database unavailable, using bundled gazetteer", "error", err)
		} else {
			defer db.Close()
			deps.DB = db
			loadGazetteer(ctx, postgres.NewGazetteerRepo(db), gazetteer)
			go poolMetrics(ctx, db)
		}
	}

	// Cache
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "wayfinder:"); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS: device positions in, route updates out.
	var locator ports.DeviceLocator
	var publishers usecases.Publishers
	if nc, err := natsadapter.Connect(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, devices fall back to the default location", "error", err)
	} else {
		defer nc.Drain()
		deps.NATS = nc
		locator = natsadapter.NewLocator(nc)
		deps.RouteFeed = natsadapter.NewRouteSubscriber(nc)
		if pub, err := natsadapter.NewPublisher(nc); err != nil {
			slog.Warn("jetstream unavailable, route updates are not published", "error", err)
		} else {
			publishers = append(publishers, pub)
		}
	}

	// Kafka: the same events for consumers outside the service.
	if cfg.Kafka.Enabled() {
		kp := kafkaadapter.NewPublisher(cfg.Kafka.Brokers, kafkaadapter.Topics{
			Routes:    cfg.Kafka.RouteTopic,
			Positions: cfg.Kafka.PositionTopic,
		})
		defer kp.Close()
		publishers = append(publishers, kp)
		slog.Info("kafka event feed enabled", "brokers", cfg.Kafka.Brokers)
	}
	if len(publishers) > 0 {
		deps.Positions = publishers
	}

	// Mapping provider
	var loader ports.ProviderLoader
	if cfg.Provider.APIKey != "" {
		client := google.NewClient(google.Config{
			APIKey:      cfg.Provider.APIKey,
			MapsBaseURL: cfg.Provider.MapsBaseURL,
			RoutesURL:   cfg.Provider.RoutesURL,
			Language:    cfg.Provider.LanguageCode,
			Timeout:     cfg.Provider.Timeout(),
		})
		loader = google.NewLoader(client, cfg.Geolocation.Fallback())
	} else {
		slog.Warn("no provider api key, running offline")
	}
	bootstrap := usecases.NewProviderBootstrapper(loader, cfg.Geolocation.Fallback())
	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.Provider.Timeout()+5*time.Second)
	if err := bootstrap.Load(loadCtx); err != nil {
		slog.Warn("mapping provider not loaded", "error", err, "mode", bootstrap.Mode().String())
	}
	loadCancel()

	// Use cases
	routeOpts := []usecases.RouteOption{}
	placeOpts := []usecases.PlaceOption{}
	navOpts := []usecases.ManagerOption{usecases.WithFallbackNavigation(cfg.Geolocation.AllowFallbackNavigation)}
	if cache != nil {
		routeOpts = append(routeOpts, usecases.WithRouteCache(cache))
		placeOpts = append(placeOpts, usecases.WithPlaceCache(cache))
		navOpts = append(navOpts, usecases.WithManagerFixCache(cache))
	}
	if len(publishers) > 0 {
		navOpts = append(navOpts, usecases.WithPublisher(publishers))
	}

	routeSvc := usecases.NewRouteService(bootstrap, routeOpts...)
	deps.Providers = bootstrap
	deps.Maps = usecases.NewMapRegistry(bootstrap)
	deps.Routes = routeSvc
	deps.Places = usecases.NewPlaceSearchService(bootstrap, gazetteer, placeOpts...)
	deps.Navigation = usecases.NewNavigationManager(locator, routeSvc, cfg.Geolocation.Fallback(), navOpts...)
	defer deps.Navigation.StopAll()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Wayfinder API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "provider", bootstrap.Mode().String())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// loadGazetteer replaces the bundled table with the database copy. An empty
// table keeps the bundled entries.
func loadGazetteer(ctx context.Context, repo ports.GazetteerRepository, g *usecases.Gazetteer) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entries, err := repo.List(ctx)
	switch {
	case err != nil:
		slog.Warn("gazetteer load failed, using bundled places", "error", err)
	case len(entries) == 0:
		slog.Info("gazetteer table empty, using bundled places")
	default:
		g.Replace(entries)
		slog.Info("gazetteer loaded", "places", len(entries))
	}
}

func poolMetrics(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
