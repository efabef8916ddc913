// Package main is the entry point for the BayanWatch patrol report server.
// It provides a REST API for weekly patrol report reconciliation, caching,
// quota-gated persistence, photo attachment, and spreadsheet import/export.
//
// Architecture:
//   - Month documents are stored whole as JSONB (full read-modify-write)
//   - Stored shapes from older clients are normalized on every read
//   - Reads go through an in-memory cache invalidated only after write acks
//   - Writes pass through a daily-quota circuit breaker backed by Redis
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bayanwatch/patrol-server/internal/config"
	"github.com/bayanwatch/patrol-server/internal/database"
	"github.com/bayanwatch/patrol-server/internal/docstore"
	"github.com/bayanwatch/patrol-server/internal/handlers"
	"github.com/bayanwatch/patrol-server/internal/middleware"
	"github.com/bayanwatch/patrol-server/internal/photos"
	"github.com/bayanwatch/patrol-server/internal/quota"
	"github.com/bayanwatch/patrol-server/internal/report"
	"github.com/bayanwatch/patrol-server/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting BayanWatch Patrol Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"quota_reset_hour", cfg.QuotaResetHour,
	)

	// Connect to Postgres; the schema is bootstrapped on every startup
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis holds the quota block so it survives restarts
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Initialize storage and the write path
	docs := docstore.NewPostgresStore(db)
	cache := report.NewCache()
	blockState := quota.NewRedisStateStore(rdb)
	writer := quota.NewWriter(docs, blockState, cache, cfg.QuotaResetHour, sugar)

	// Initialize services
	catalogSvc := services.NewCatalogService(db, sugar)
	authSvc := services.NewAuthService(db, cfg.JWTSecret, sugar)
	reportSvc := services.NewReportService(docs, writer, cache, catalogSvc, sugar)

	mediaTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	storage := photos.NewHTTPStorage(cfg.MediaUploadURL, cfg.MediaAPIKey, mediaTimeout)
	photoMgr := photos.NewManager(storage, sugar)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportSvc, sugar)
	photoHandler := handlers.NewPhotoHandler(reportSvc, photoMgr, storage, sugar)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, sugar)
	authHandler := handlers.NewAuthHandler(authSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, rdb, writer, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Auth (public)
		r.Post("/auth/login", authHandler.Login)

		// Report endpoints
		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/", reportHandler.Get)       // Load month document (cached)
			r.Put("/", reportHandler.Save)      // Full-document save
			r.Delete("/", reportHandler.Delete) // Typed-confirmation delete
			r.Get("/export", reportHandler.Export)
			r.Post("/import", reportHandler.Import)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/documents", reportHandler.ListDocuments)
			})

			r.Route("/photos", func(r chi.Router) {
				r.Post("/upload", photoHandler.Upload)
				r.Post("/attach", photoHandler.Attach)
				r.Post("/reset", photoHandler.Reset)
			})
		})

		// Reference catalogs
		r.Route("/catalogs", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/barangays", catalogHandler.ListBarangays)
			r.Get("/concern-types", catalogHandler.ListConcernTypes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Post("/barangays/import", catalogHandler.ImportBarangays)
				r.Post("/concern-types/import", catalogHandler.ImportConcernTypes)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
