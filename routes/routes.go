package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vidyalabs/tutor-backend/app"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware. The timeout must cover a full streamed answer, not
	// just a quick JSON roundtrip.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.HealthHandler.HandleHealth)
		r.Get("/ready", deps.HealthHandler.HandleReady)

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.Limit)
			r.Post("/ask", deps.AskHandler.HandleAsk)
			r.Get("/doubts", deps.HistoryHandler.HandleList)
		})

		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/chunks", deps.KnowledgeHandler.HandleUpsertChunks)
			r.Get("/stats", deps.KnowledgeHandler.HandleStats)
		})
	})

	return r
}
