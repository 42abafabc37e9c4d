/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:    Unique ID per request for tracing
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. Logger:       One zap line per request
  4. CORS:         Cross-origin requests for frontend
  5. Auth:         Bearer token → actor (all /api routes)
  6. Idempotency:  Replay cache for POST create/approve/reject

ROUTE GROUPS:
  /healthz              Liveness and store reachability
  /api/leaves/*         Student and admin leave operations
  /api/admin/*          Admin-only reads
  /api/scenarios/*      Demo scenarios (admin, when enabled)

AUTHORIZATION:
  Routes only one role may use are guarded with requireRole, so those
  callers get 403 before any lookup. Everything else is decided by the
  lifecycle engine per record.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: authenticate, requireRole, requestLogger
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/hostel-leave/lifecycle"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	JWTSecret       []byte
	AllowedOrigins  []string
	Idempotency     *Idempotency // nil disables replay
	EnableScenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader},
		ExposedHeaders:   []string{ReplayedHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	idempotent := func(next http.Handler) http.Handler { return next }
	if opts.Idempotency != nil {
		idempotent = opts.Idempotency.Middleware
	}
	adminOnly := requireRole(lifecycle.RoleAdmin)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate(opts.JWTSecret))

		// Leave routes
		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.With(idempotent).Post("/", h.CreateLeave)
			r.Get("/counts", h.LeaveCounts)
			r.Get("/{id}", h.GetLeave)
			r.Put("/{id}", h.UpdateLeave)
			r.Delete("/{id}", h.DeleteLeave)
			r.With(adminOnly, idempotent).Post("/{id}/{decision}", h.DecideLeave)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/leaves/summary", h.LeaveSummary)
			r.Get("/leaves/overdue", h.OverdueLeaves)
			r.Get("/audit", h.AuditTrail)
		})

		// Scenario routes
		if opts.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}
