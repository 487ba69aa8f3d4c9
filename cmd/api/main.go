//	@title			Photobridge API
//	@version		1.0
//	@description	Uploads photos to blob storage and forwards their URLs to a local companion application.
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
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/photobridge/service/internal/companion"
	"github.com/photobridge/service/internal/config"
	"github.com/photobridge/service/internal/logger"
	appMiddleware "github.com/photobridge/service/internal/middleware"
	"github.com/photobridge/service/internal/photo"
	"github.com/photobridge/service/internal/storage"
	"github.com/photobridge/service/web"

	_ "github.com/photobridge/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(initCtx, cfg, log)
	cancelInit()
	if err != nil {
		log.Fatal("object storage init failed", zap.String("provider", cfg.StorageProvider), zap.Error(err))
	}

	notifier := companion.New(companion.Options{
		Endpoint:    cfg.CompanionEndpoint(),
		Timeout:     cfg.CompanionTimeout,
		MaxFailures: cfg.CompanionBreakerFailures,
	}, log)

	// Wire dependencies: storage + companion → service → handler
	photoSvc := photo.NewService(store, notifier, cfg.CompanionPolicy, log)
	photoHandler := photo.NewHandler(photoSvc, cfg.MaxUploadBytes, log)

	var limiter *appMiddleware.IPRateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = appMiddleware.NewIPRateLimiter(cfg.RateLimitPerMinute, 5, log)
		go func() {
			for range time.Tick(time.Minute) {
				limiter.Cleanup(5 * time.Minute)
			}
		}()
	}

	r := newRouter(cfg, log, photoHandler, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("storage", cfg.StorageProvider),
			zap.String("companion", notifier.Endpoint()),
			zap.String("companion_policy", cfg.CompanionPolicy),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// newRouter mounts the API, the upload page and, for the local provider, the
// stored files. limiter may be nil.
func newRouter(cfg *config.Config, log *zap.Logger, photos *photo.Handler, limiter *appMiddleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Post("/photos", photos.Upload)
		r.Post("/api/photos", photos.Upload)
	})

	if cfg.StorageProvider == config.ProviderLocal {
		fs := http.StripPrefix(storage.LocalRoute, http.FileServer(http.Dir(cfg.StorageLocalDir)))
		r.Get(storage.LocalRoute+"/*", fs.ServeHTTP)
	}

	r.Handle("/*", web.Handler())

	return r
}
