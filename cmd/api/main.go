package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iimmbipul/whattocook/internal/config"
	"github.com/iimmbipul/whattocook/internal/database"
	"github.com/iimmbipul/whattocook/internal/database/migration"
	handlers "github.com/iimmbipul/whattocook/internal/http/handler"
	"github.com/iimmbipul/whattocook/internal/http/middleware"
	"github.com/iimmbipul/whattocook/internal/otel"
	"github.com/iimmbipul/whattocook/internal/repository/postgres"
	"github.com/iimmbipul/whattocook/internal/service"
	"github.com/iimmbipul/whattocook/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Snapshot storage is optional; without it rollovers run unsnapshotted.
	var snaps storage.Storage
	if cfg.MinIO.Enabled() {
		snaps, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize snapshot storage: %v", err)
		}
	}

	dayRepo := postgres.NewDayPostgres(db)
	plannerSvc := service.NewPlannerService(dayRepo, snaps)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMw, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, plannerSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
