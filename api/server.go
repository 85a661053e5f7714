/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/time-entries/*   Clocking lifecycle and entry management
  /api/deadlines/*      Compliance deadline tracking
  /api/exceptions/*     Deadline exception workflow

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Time entry routes
		r.Route("/time-entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.ClockIn)
			r.Post("/manual", h.CreateEntry)
			r.Get("/active", h.ActiveEntry)
			r.Get("/{id}", h.GetEntry)
			r.Patch("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
			r.Post("/{id}/clock-out", h.ClockOut)
			r.Put("/{id}/breaks", h.UpdateBreaks)
			r.Post("/{id}/approve", h.ApproveEntry)
			r.Post("/{id}/request-update", h.RequestEntryUpdate)
			r.Get("/{id}/audit", h.EntryAudit)
		})

		// Deadline routes
		r.Route("/deadlines", func(r chi.Router) {
			r.Get("/", h.ListDeadlines)
			r.Post("/", h.CreateDeadline)
			r.Get("/summary", h.DeadlineSummary)
			r.Get("/{id}", h.GetDeadline)
			r.Post("/{id}/met", h.MarkDeadlineMet)
		})

		// Exception routes
		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/", h.ListExceptions)
			r.Post("/", h.CreateException)
			r.Get("/{id}", h.GetException)
			r.Patch("/{id}", h.UpdateException)
			r.Delete("/{id}", h.DeleteException)
			r.Post("/{id}/approve", h.ApproveException)
			r.Post("/{id}/reject", h.RejectException)
		})
	})

	return r
}
