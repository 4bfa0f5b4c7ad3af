package api

import (
	"net/http"

	"github.com/geoinsight/backend/internal/api/handlers"
	"github.com/geoinsight/backend/internal/events"
	"github.com/geoinsight/backend/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, hub *events.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Initialize handlers
	playerHandler := handlers.NewPlayerHandler(services.Player, logger)
	adminHandler := handlers.NewAdminHandler(services.Tracking, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/players", func(r chi.Router) {
			r.Get("/", playerHandler.List)
			r.Post("/", playerHandler.Add)
			r.Post("/search", playerHandler.Search)
			r.Get("/{id}", playerHandler.Get)
			r.Get("/{id}/detail", playerHandler.Detail)
		})

		r.Post("/admin/rebalance", adminHandler.Rebalance)

		r.Get("/ws", wsHandler.Subscribe)
	})

	return r
}
