package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/invite-users/internal/pkg/httputil"
)

// defaultOrigins are allowed when no origins are configured.
var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// SetupRoutes configures all API routes
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	// CORS - credentials are needed for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)

	r.Route("/api/invite", func(r chi.Router) {
		r.Post("/session", h.HandleNewSession)
		r.Get("/roles", h.HandleRoles)
		r.Get("/import/options", h.HandleImportOptions)
		r.Get("/template", h.HandleTemplate)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Get("/state", h.HandleState)
			r.Post("/input", h.HandleInput)
			r.Post("/key", h.HandleKey)
			r.Post("/paste", h.HandlePaste)
			r.Post("/import", h.HandleImport)
			r.Put("/role", h.HandleSelectRole)

			r.Delete("/entries", h.HandleClear)
			r.Patch("/entries/{id}", h.HandleUpdateEntry)
			r.Delete("/entries/{id}", h.HandleRemoveEntry)

			r.Post("/submit", h.HandleSubmit)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "not found")
	})

	return r
}
