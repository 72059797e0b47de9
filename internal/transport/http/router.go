package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/just-ease/justease-api/internal/config"
	"github.com/just-ease/justease-api/internal/domain"
	jwtinfra "github.com/just-ease/justease-api/internal/infrastructure/jwt"
	"github.com/just-ease/justease-api/internal/transport/http/handler"
	"github.com/just-ease/justease-api/internal/transport/http/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config      *config.Config
	JWTProvider *jwtinfra.Provider

	Health       *handler.HealthHandler
	Verification *handler.VerificationHandler
	Users        *handler.UserHandler
	Sessions     *handler.SessionHandler
	Cases        *handler.CaseHandler
	Attachments  *handler.AttachmentHandler
}

// NewRouter wires all routes and middleware.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Credential endpoints get a per-IP limiter on top of the global stack.
	authLimiter := middleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", deps.Health.Ping)

		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Limit)
			r.Post("/users/send-email-verification", deps.Verification.SendEmailVerification)
			r.Post("/users/verify-email-otp", deps.Verification.VerifyEmailOTP)
			r.Post("/users/signup", deps.Users.Signup)
			r.Post("/users/login", deps.Sessions.Login)
			r.Post("/sessions/refresh", deps.Sessions.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTProvider))

			r.Get("/sessions", deps.Sessions.GetCurrent)
			r.Post("/sessions/logout", deps.Sessions.Logout)

			r.Post("/cases", deps.Cases.Create)
			r.Get("/cases", deps.Cases.List)
			r.With(middleware.RequireRole(domain.RoleLawyer)).Get("/cases/explore", deps.Cases.Explore)
			r.Get("/cases/{id}", deps.Cases.Get)

			r.Post("/cases/{id}/attachments", deps.Attachments.Upload)
			r.Get("/cases/{id}/attachments", deps.Attachments.ListByCase)
			r.Get("/attachments/{id}", deps.Attachments.Download)
		})
	})

	return r
}
