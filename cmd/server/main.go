package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geoinsight/backend/internal/api"
	"github.com/geoinsight/backend/internal/cache"
	"github.com/geoinsight/backend/internal/config"
	"github.com/geoinsight/backend/internal/events"
	"github.com/geoinsight/backend/internal/geoguessr"
	"github.com/geoinsight/backend/internal/jobs"
	"github.com/geoinsight/backend/internal/logger"
	"github.com/geoinsight/backend/internal/repository/postgres"
	"github.com/geoinsight/backend/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	repos := postgres.NewRepositories(db)

	// Response cache for upstream profile/game lookups
	var store cache.Cache
	if cfg.CacheBackend == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			KeyPrefix: "geoinsight:",
		})
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		store = redisCache
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		store = memCache
	}

	// Live-update hub
	hub := events.NewHub(zl)
	go hub.Run()

	// Upstream client + services
	source := geoguessr.NewClient(cfg.GeoGuessrBaseURL, cfg.GeoGuessrCookie, zl)
	services := service.NewServices(repos, cfg, source, store, hub, zl)

	// Periodic tracker job
	tracker := jobs.NewTracker(repos.Player, services.Sync, cfg, zl)
	if err := tracker.Start(); err != nil {
		zl.Fatal("failed to start tracker job", zap.Error(err))
	}

	// HTTP server
	router := api.NewRouter(services, hub, zl)
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // detail views may sync upstream inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")

	tracker.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Fatal("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server stopped")
}
