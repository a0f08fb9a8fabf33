/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/agents/*         Hierarchy management
  /api/sales/*          Sale recording and cancellation
  /api/bonuses/*        Bonus calculation
  /api/commissions      Commission ledger
  /api/clawbacks        Correction ledger
  /api/tiers            Performance tier table
  /api/dashboard/*      Aggregate totals
  /api/reports/*        Excel exports

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

// NewRouter creates a new router with all routes configured. allowedOrigins
// configures CORS; an empty slice falls back to the local dev frontends.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Agent routes
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Post("/", h.CreateAgent)
			r.Get("/tree", h.AgentTree)
			r.Get("/{id}", h.GetAgent)
			r.Put("/{id}", h.UpdateAgent)
			r.Delete("/{id}", h.DeleteAgent)
			r.Get("/{id}/upline", h.GetUpline)
			r.Get("/{id}/downline", h.GetDownline)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.RecordSale)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}/cancel", h.CancelSale)
		})

		// Bonus routes
		r.Route("/bonuses", func(r chi.Router) {
			r.Get("/", h.ListBonuses)
			r.Post("/calculate", h.CalculateBonuses)
		})

		// Ledger routes
		r.Get("/commissions", h.ListCommissions)
		r.Get("/clawbacks", h.ListClawbacks)
		r.Get("/tiers", h.ListTiers)
		r.Get("/dashboard/summary", h.GetSummary)

		// Report routes
		r.Get("/reports/commissions.xlsx", h.CommissionReport)
	})

	return r
}
