package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drivesafe-backend/internal/handlers"
	"drivesafe-backend/internal/middleware"
	"drivesafe-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	sessionLimiter *middleware.RateLimiter,
	sessionHandler *handlers.SessionHandler,
	safetyHandler *handlers.SafetyHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	chatTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes (public) ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(sessionLimiter.Middleware)
			r.Post("/", sessionHandler.Create)
		})

		// ──── Safety Calculator Routes ────
		r.Route("/safety", func(r chi.Router) {
			r.Get("/bands", safetyHandler.Bands)

			r.With(sessionAuth.Optional).Post("/assess", safetyHandler.Assess)

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/history", safetyHandler.History)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			// WebSocket authenticates with the token query param
			r.Get("/ws", wsHub.HandleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Use(chimiddleware.Timeout(chatTimeout))
				r.Post("/", chatHandler.Send)
				r.Get("/history", chatHandler.History)
			})
		})
	})

	return r
}
