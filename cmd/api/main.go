package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"draftapi/internal/config"
	"draftapi/internal/database"
	"draftapi/internal/database/migration"
	handlers "draftapi/internal/http/handler"
	"draftapi/internal/http/middleware"
	"draftapi/internal/otel"
	"draftapi/internal/repository/postgres"
	"draftapi/internal/service"
	"draftapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()

	// Tracing is optional; a failed exporter degrades to noop inside Init.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Conversion archive is optional; drafts convert fine without it.
	var archive storage.Archiver
	if cfg.MinIO.Endpoint != "" {
		archive, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize repositories and services
	draftRepo := postgres.NewDraftPostgres(db)
	draftSvc := service.NewDraftService(draftRepo, archive, logger)

	// Background janitor for retention, if enabled.
	if cfg.Retention.SweepInterval > 0 {
		go runJanitor(ctx, draftSvc, cfg.Retention, logger)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service; draft routes are owner-scoped
	handlers.RegisterRoutes(app, db, draftSvc, middleware.BearerAuth([]byte(cfg.Auth.JWTSecret)))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// runJanitor periodically purges drafts past their retention windows.
func runJanitor(ctx context.Context, svc service.DraftService, ret config.RetentionConfig, logger *slog.Logger) {
	ticker := time.NewTicker(ret.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			purged, err := svc.PurgeExpired(sweepCtx, ret)
			cancel()
			if err != nil {
				logger.Error("retention sweep failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.Info("retention sweep", "purged", purged)
			}
		}
	}
}
