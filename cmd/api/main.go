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
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/campusgeo/internal/adapters/http"
	natsadapter "github.com/samirrijal/campusgeo/internal/adapters/nats"
	"github.com/samirrijal/campusgeo/internal/adapters/opencv"
	"github.com/samirrijal/campusgeo/internal/adapters/scoring"
	"github.com/samirrijal/campusgeo/internal/adapters/valkey"
	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/core/ports"
	"github.com/samirrijal/campusgeo/internal/core/usecases"
	"github.com/samirrijal/campusgeo/internal/pkg/config"
	"github.com/samirrijal/campusgeo/internal/pkg/logging"
	"github.com/samirrijal/campusgeo/internal/pkg/telemetry"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load("campusgeo-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Model: the service cannot answer anything useful without it.
	model, err := scoring.Open(ctx, cfg.Model)
	if err != nil {
		log.Fatalf("model: %v", err)
	}
	defer model.Close()
	slog.Info("model loaded", "engine", cfg.Model.Engine, "input_size", cfg.Model.InputSize)

	checks := []http.ReadinessCheck{{Name: "model", Check: model.Ping}}

	// Cache
	var cache ports.CacheService
	cacheTTL := 0
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, "campusgeo")
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			cacheTTL = cfg.Valkey.TTLSeconds
			checks = append(checks, http.ReadinessCheck{Name: "valkey", Optional: true, Check: vc.Ping})
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var relay *natsadapter.Publisher
	if cfg.NATS.Enabled {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, detection events disabled", "error", err)
		} else {
			defer p.Close()
			publisher = p
			relay = p
			checks = append(checks, http.ReadinessCheck{Name: "nats", Optional: true, Check: p.Ping})
		}
	}

	catalog := domain.NewCatalog()
	camera := cfg.Camera.Camera()

	classifier := usecases.NewBuildingClassifier(model, catalog, cfg.Model.InputSize)
	detector := opencv.NewDetector(vision.DefaultParams())

	deps := &http.Dependencies{
		Detections: usecases.NewDetectionService(classifier, detector, camera, catalog, publisher, cache,
			usecases.DetectionOptions{
				CacheTTLSeconds:      cacheTTL,
				ReferenceImageHeight: camera.ReferenceImageHeight,
				MaxImagePixels:       cfg.Server.MaxImageMegapixels * 1_000_000,
			}),
		Catalog:        usecases.NewCatalogService(catalog),
		Checks:         checks,
		ProcessTimeout: cfg.Server.ProcessTimeout,
		RateLimit:      cfg.Server.RateLimit,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}
	if relay != nil {
		deps.NATS = relay.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "campusgeo API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "buildings", catalog.Len())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// In-flight detections get one processing window to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ProcessTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
