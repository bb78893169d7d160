package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"pagepilot/internal/config"
	"pagepilot/internal/container"
	"pagepilot/internal/domain"
	"pagepilot/internal/handler"
	"pagepilot/internal/middleware"
	"pagepilot/pkg/database"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting pagepilot server")

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Redis is optional; without it every cached path reads the database
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, proceeding without caching")
			redisClient = nil
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	c := container.New(cfg, log, db, redisClient)

	if err := c.Scheduler.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start aggregation scheduler")
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server")
	}

	c.Scheduler.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis connection")
		}
	}

	db.Close()
	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.Config
	log := c.Logger

	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(c.DB, c.RedisClient, log)
	trackHandler := handler.NewTrackHandler(c.Services.Tracker, log)
	statsHandler := handler.NewStatsHandler(c.Services.Stats, log)
	postHandler := handler.NewPostHandler(c.Repositories.Post, log)
	activationHandler := handler.NewActivationHandler(c.Services.KeyExchange, log)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		// Activation bootstraps the secrets, so it cannot sit behind them
		r.Post("/connect/activate", activationHandler.Activate)

		// Page-render hook; no auth, fire and forget
		r.Post("/views/track", trackHandler.RecordView)

		// Public tier: analytics reads and listings
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireTier(c.Services.Auth, domain.TierPublic, log))

			r.Get("/stats/today", statsHandler.GetDailyPostView)
			r.Get("/stats/monthly", statsHandler.GetMonthlyPostView)
			r.Get("/sites/stats/today", statsHandler.GetSiteDailyView)
			r.Get("/sites/stats", statsHandler.GetSiteStats)
			r.Get("/posts", postHandler.ListPosts)
			r.Get("/categories", postHandler.GetCategories)
		})

		// Private tier: content mutation
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireTier(c.Services.Auth, domain.TierPrivate, log))

			r.Post("/publish", postHandler.Publish)
			r.Patch("/update", postHandler.Update)
			r.Delete("/delete", postHandler.Delete)
			r.Get("/post", postHandler.GetPost)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
