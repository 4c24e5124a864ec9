package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labelops-backend/internal/handlers"
	"labelops-backend/internal/middleware"
	"labelops-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	telemetryHandler *handlers.TelemetryHandler,
	presenceHandler *handlers.PresenceHandler,
	statsHandler *handlers.StatsHandler,
	activityHandler *handlers.ActivityHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Telemetry write limiter: generous enough for a heartbeat cadence per
	// tab, tight enough to stop a runaway client.
	writeLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Telemetry Lifecycle (writes) ────
		r.Route("/telemetry", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(writeLimiter.Middleware)
			r.Post("/online", telemetryHandler.Online)
			r.Post("/offline", telemetryHandler.Offline)
			r.Post("/visibility", telemetryHandler.Visibility)
		})

		// ──── Presence Reads ────
		r.Route("/presence", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", presenceHandler.List)
			r.Get("/{userID}", presenceHandler.Get)
		})

		// ──── Usage Stats ────
		r.Route("/stats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", statsHandler.List)
			r.Get("/{userID}", statsHandler.Get)
		})

		// ──── Activity Audit Log ────
		r.Route("/activity", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", activityHandler.Create)
			r.Get("/", activityHandler.List)
			r.Get("/stats", activityHandler.Stats)
			r.Get("/users/{userID}", activityHandler.ByUser)
		})

		// ──── WebSocket Presence Feed ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
