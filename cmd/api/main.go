//	@title			Image Upload API
//	@version		1.0
//	@description	Accepts image uploads, normalizes them to bounded JPEGs, and serves them inline or behind expiring public URLs.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/imagedrop/service/internal/config"
	"github.com/imagedrop/service/internal/metrics"
	appMiddleware "github.com/imagedrop/service/internal/middleware"
	"github.com/imagedrop/service/internal/response"
	"github.com/imagedrop/service/internal/storage"
	"github.com/imagedrop/service/internal/upload"

	_ "github.com/imagedrop/service/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)
	rec := metrics.NewProm("imagedrop")

	// Storage mode is fixed for the lifetime of the process; the upload
	// service holds exactly one backend.
	var store storage.Backend
	var disk *storage.DiskStore
	switch cfg.StorageMode {
	case config.ModeEphemeral:
		store = storage.NewInlineStore()
	case config.ModePersistent:
		disk, err = storage.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("disk storage init failed")
		}
		store = disk
	case config.ModeS3:
		store, err = storage.NewS3Store(
			cfg.S3Endpoint,
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			cfg.S3Bucket,
			cfg.S3PublicBase,
			cfg.S3UseSSL,
			logger,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("object storage init failed")
		}
	}

	// Wire dependencies: storage → service → handler
	svc := upload.NewService(store, cfg.MaxDimension, cfg.JPEGQuality, logger)
	uploadHandler := upload.NewHandler(svc, cfg.MaxUploadBytes, rec, logger)

	// The sweeper only runs against local disk; s3 expiry is a bucket
	// lifecycle concern and the ephemeral mode stores nothing.
	var sweeper *storage.Sweeper
	if disk != nil {
		sweeper = storage.NewSweeper(disk, cfg.RetentionTTL, cfg.SweepInterval, rec, logger)
		sweeper.Start(context.Background())
	}

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":    "ok",
			"mode":      store.Mode(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Handle("/metrics", metrics.Handler())

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Post("/upload", uploadHandler.Upload)

	if disk != nil {
		fileServer := http.FileServer(http.Dir(disk.Root()))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("mode", store.Mode()).
			Str("env", cfg.AppEnv).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}

	if sweeper != nil {
		sweeper.Stop()
	}

	logger.Info().Msg("server stopped")
}

// newLogger builds the process logger: JSON in production, console otherwise.
func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	cw := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stdout
		w.TimeFormat = time.RFC3339
	})
	return zerolog.New(cw).With().Timestamp().Logger()
}
