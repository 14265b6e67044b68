/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request line (level by status class)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/health                 Liveness
  /api/stylists/*             Stylist directory
  /api/transactions/*         Payment history
  /api/collect-rent           Simulated charge (rate limited)
  /api/schedules/*            Schedule engine
  /api/automated-collection/* Schedule acknowledgement
  /api/webhook                Processor callbacks
  /api/seed/*                 Demo data

Unknown paths return {"success":false,"message":"Endpoint not found"}.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/boothrent/logging"
)

// DefaultAllowedOrigins are the dashboard dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgEndpointNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Stylist routes
		r.Route("/stylists", func(r chi.Router) {
			r.Get("/", h.ListStylists)
			r.Post("/", h.CreateStylist)
			r.Get("/{id}", h.GetStylist)
			r.Put("/{id}", h.UpdateStylist)
			r.Get("/{id}/transactions", h.StylistTransactions)
			r.Get("/{id}/collected", h.StylistCollected)
		})

		// Payment routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
		})
		r.With(h.limitCollections).Post("/collect-rent", h.CollectRent)
		r.Post("/webhook", h.Webhook)

		// Schedule routes
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/validate", h.ValidateSchedule)
			r.Post("/preview", h.PreviewSchedule)
			r.Post("/overlap", h.OverlapSchedules)
		})
		r.Route("/automated-collection", func(r chi.Router) {
			r.Post("/", h.SaveAutomatedCollection)
			r.Get("/{stylistId}", h.GetAutomatedCollection)
		})

		// Demo data routes
		r.Route("/seed", func(r chi.Router) {
			r.Get("/", h.GetSeedInfo)
			r.Post("/reset", h.ResetSeed)
		})
	})

	return r
}

// limitCollections rejects charges beyond the token bucket with 429.
func (h *Handler) limitCollections(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter != nil && !h.Limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, msgTooManyCollections, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
