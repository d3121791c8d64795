package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/dichoptic/internal/auth"
	"github.com/redmonkez12/dichoptic/internal/config"
	"github.com/redmonkez12/dichoptic/internal/httputil"
	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/internal/scores"
	"github.com/redmonkez12/dichoptic/internal/settings"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Scores         *scores.Handler
	Settings       *settings.Handler
	// Checks are pinged by /health; a failing check turns the response into 503
	Checks map[string]HealthCheck
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth(h.Checks))

	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/verify-email", h.Auth.VerifyEmail)
		r.Post("/resend-verification", h.Auth.ResendVerificationEmail)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware.RequireAuth)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/profile", h.Auth.Profile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware.RequireAuth)

		r.Get("/scores/{game}", h.Scores.List)
		r.Post("/scores", h.Scores.Submit)

		r.Get("/settings", h.Settings.Get)
		r.Put("/settings", h.Settings.Put)
	})

	return r
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports liveness and the state of each dependency
// @Summary      Health check
// @Description  Check if the API and its dependencies are reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK

		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					logging.GetLoggerFromContext(r.Context()).Warn("health check failed", "check", name, "error", err)
					resp.Checks[name] = "unavailable"
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		httputil.RespondJSON(w, resp, status)
	}
}
