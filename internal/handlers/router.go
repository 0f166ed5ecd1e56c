package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"clinicbook/internal/metrics"
	"clinicbook/internal/security"
	"clinicbook/internal/service"
)

// RouterDeps are the process-scoped collaborators of the HTTP API
type RouterDeps struct {
	Accounts       *service.AccountService
	Catalog        *service.CatalogService
	Appointments   *service.AppointmentService
	Sessions       SessionVerifier
	Limiter        security.Limiter
	Metrics        *metrics.Metrics
	DB             Pinger
	Logger         *slog.Logger
	AllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// friends; enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// NewRouter wires every route of the API
func NewRouter(d RouterDeps) http.Handler {
	mw := NewMiddleware(d.Sessions, d.Accounts, d.Limiter, d.Metrics, d.Logger)
	authHandler := NewAuthHandler(d.Accounts, d.Metrics, d.Logger)
	serviceHandler := NewServiceHandler(d.Catalog, d.Logger)
	appointmentHandler := NewAppointmentHandler(d.Appointments, d.Metrics, d.Logger)
	healthHandler := NewHealthHandler(d.DB, d.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if d.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(Logging(d.Logger))
	r.Use(d.Metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimit).Post("/register", authHandler.Register)
			r.Get("/verify/{token}", authHandler.VerifyAccount)
			r.With(mw.RateLimit).Post("/login", authHandler.Login)
			r.With(mw.RateLimit).Post("/forgot-password", authHandler.ForgotPassword)
			r.Get("/forgot-password/{token}", authHandler.ValidateResetToken)
			r.With(mw.RateLimit).Post("/forgot-password/{token}", authHandler.CompleteReset)
			r.With(mw.RequireAuth).Get("/user", authHandler.CurrentUser)
		})

		r.Get("/services", serviceHandler.List)
		r.Get("/services/{id}", serviceHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)

			r.Post("/appointments", appointmentHandler.Create)
			r.Get("/appointments", appointmentHandler.ListByDate)
			r.Get("/appointments/free", appointmentHandler.ListFreeTimes)
			r.Get("/appointments/{id}", appointmentHandler.Get)
			r.Put("/appointments/{id}", appointmentHandler.Update)
			r.Delete("/appointments/{id}", appointmentHandler.Cancel)
			r.Get("/users/{id}/appointments", appointmentHandler.ListForUser)

			r.With(mw.RequireAdmin).Get("/admin/appointments", appointmentHandler.ListUpcoming)
		})
	})

	return r
}
