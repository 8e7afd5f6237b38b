/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/bookings/*   Scheduling checks and booking CRUD
  /api/workload     Per-resource totals and overload warnings
  /api/visits/*     Day-start seeding and attendance actions
  /api/users/*      Facility roster
  /api/records/*    Daily care records and the monthly summary

SECURITY NOTE:
  No authentication middleware; that collaborator lives outside this
  service and fronts it in production.

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Scheduling
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.CreateBooking)
			r.Post("/check-drop", h.CheckDrop)
			r.Post("/check-select", h.CheckSelect)
			r.Put("/{id}/move", h.MoveBooking)
			r.Delete("/{id}", h.DeleteBooking)
		})

		// Workload
		r.Get("/workload", h.GetWorkload)

		// Attendance
		r.Route("/visits", func(r chi.Router) {
			r.Get("/", h.ListVisits)
			r.Post("/seed", h.SeedVisits)
			r.Get("/discrepancies", h.GetDiscrepancies)
			r.Post("/{id}/check-in", h.CheckInVisit)
			r.Post("/{id}/check-out", h.CheckOutVisit)
			r.Post("/{id}/absent", h.MarkAbsent)
		})

		// Roster
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Put("/{code}", h.SaveUser)
		})

		// Reporting
		r.Route("/records", func(r chi.Router) {
			r.Get("/summary", h.GetMonthlySummary)
			r.Post("/", h.UpsertDailyRecord)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
