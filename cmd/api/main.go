//	@title			Tucano Motors API
//	@version		1.0
//	@description	Dealership catalog and admin back office for Tucano Motors.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

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
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tucanomotors/dealership/internal/auth"
	"github.com/tucanomotors/dealership/internal/config"
	"github.com/tucanomotors/dealership/internal/db"
	appMiddleware "github.com/tucanomotors/dealership/internal/middleware"
	"github.com/tucanomotors/dealership/internal/storage"
	"github.com/tucanomotors/dealership/internal/vehicle"

	_ "github.com/tucanomotors/dealership/docs/swagger"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Backend selection happens once here; the rest of the process sees a
	// single immutable storage.Backend.
	var backend storage.Backend
	collection := ""
	if cfg.ObjectStorageEnabled() {
		backend, err = storage.NewObjectStoreBackend(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageRegion,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("object storage init failed")
		}
		collection = storage.DefaultCollection
		log.Info().Str("bucket", cfg.StorageBucket).Msg("using object storage for images")
	} else {
		backend, err = storage.NewLocalBackend(cfg.UploadsDir)
		if err != nil {
			log.Fatal().Err(err).Msg("local storage init failed")
		}
		log.Warn().Str("dir", cfg.UploadsDir).Msg("object storage not configured, using local uploads directory (not durable)")
	}

	resolver := storage.NewResolver(cfg.LegacyImageHosts, cfg.StorageEndpoint, cfg.StorageBucket, collection)
	imageSvc := storage.NewService(backend, resolver)
	imageHandler := storage.NewHandler(imageSvc)

	// Wire dependencies: repository → service → handler
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authSvc)

	if err := authSvc.EnsureAdmin(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("admin account setup failed")
	}

	vehicleRepo := vehicle.NewRepository(pool)
	vehicleSvc := vehicle.NewService(vehicleRepo, imageSvc)
	vehicleHandler := vehicle.NewHandler(vehicleSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI, served at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Image proxy: object-store bytes stream through the app, the backend's
	// own URLs stay private.
	r.Get("/images/*", imageHandler.ServeImage)

	// The static mount only exists in local mode; in object-store mode every
	// read goes through the proxy.
	if !cfg.ObjectStorageEnabled() {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.With(appMiddleware.RequireAuth(cfg.JWTSecret)).Get("/verify", authHandler.Verify)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", vehicleHandler.List)
			r.Get("/{id}", vehicleHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
				r.Post("/", vehicleHandler.Create)
				r.Put("/{id}", vehicleHandler.Update)
				r.Delete("/{id}", vehicleHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/upload", vehicleHandler.Upload)
			r.Get("/stats", vehicleHandler.Stats)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
