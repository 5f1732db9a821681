/*
server.go - HTTP router, middleware, and the availability gate

PURPOSE:
  Wires URLs to handlers with chi, and guards every API route with the
  availability gate: requests are rejected with a retryable 503 before any
  business logic runs when the store gateway reports it is unreachable.

MIDDLEWARE STACK:
  1. Logger:       request logging
  2. Recoverer:    panic recovery (500 instead of crash)
  3. RequestID:    unique ID per request for tracing
  4. CORS:         cross-origin requests for the frontend
  5. Availability: fail-closed store readiness check (API routes only)

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sabaispa/backoffice/store"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, gw store.Gateway) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(Availability(gw))

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/{year}/{month}", h.GetSchedule)
			r.Post("/", h.UpsertSchedule)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{name}", h.GetEmployee)
			r.Put("/{name}", h.UpdateEmployee)
			r.Delete("/{name}", h.DeleteEmployee)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Put("/{id}", h.UpdateShift)
			r.Delete("/{id}", h.DeleteShift)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}", h.UpdateSale)
			r.Delete("/{id}", h.DeleteSale)
		})
	})

	return r
}

// Availability rejects requests while the backing store is unreachable.
// Fail-closed: better a fast retryable 503 than requests queueing behind a
// dead connection.
func Availability(gw store.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gw.Ready(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "Store unavailable, retry shortly", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
