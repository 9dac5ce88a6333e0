package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storagerental/users-service/internal/service"
	"github.com/storagerental/users-service/pkg/health"
	"github.com/storagerental/users-service/pkg/httputil"
	"github.com/storagerental/users-service/pkg/middleware"
)

// NewRouter creates a chi router with all user service routes registered.
func NewRouter(
	userService *service.UserService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("users"))
	r.Use(middleware.Tracing("users"))
	r.Use(middleware.RequestLogger(logger))

	// Service info and health endpoints
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"service": "users-service",
			"status":  "running",
		})
	})
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(userService, logger)
	userHandler := NewUserHandler(userService, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/google", authHandler.GoogleLogin)
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public endpoints
		r.Post("/", userHandler.Create)
		r.Post("/login", authHandler.Login)
		// The static "tasks" segment wins over the {id} pattern.
		r.Get("/tasks/{jobID}", userHandler.JobStatus)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(userService.ResolveToken))

			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)

			r.Get("/{id}/rentals", userHandler.ListRentals)
			r.Get("/{id}/rentals/{rentalID}", userHandler.GetRental)
			r.Post("/{id}/verify-email", userHandler.VerifyEmail)
		})
	})

	return r
}
