package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/buyer-leads/internal/http/middleware"
	"github.com/wolfman30/buyer-leads/internal/identity"
	"github.com/wolfman30/buyer-leads/internal/leads"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ActorAuthSecret enables bearer-token actors on writes; empty means every
	// write acts as DefaultActor.
	ActorAuthSecret string
	DefaultActor    identity.Actor

	// SubmitLimiter throttles lead submissions (optional).
	SubmitLimiter *httpmiddleware.RateLimiter

	// Readiness dependencies, keyed by name (optional).
	ReadyChecks map[string]Pinger
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	r.Get("/ready", readyCheck(cfg.ReadyChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route(leads.ListPath, func(buyers chi.Router) {
		buyers.Get("/", cfg.LeadsHandler.ListLeads)
		buyers.Get("/{id}", cfg.LeadsHandler.GetLead)
		buyers.Get("/{id}/history", cfg.LeadsHandler.GetHistory)

		buyers.Group(func(write chi.Router) {
			if cfg.SubmitLimiter != nil {
				write.Use(cfg.SubmitLimiter.Middleware)
			}
			write.Use(httpmiddleware.ActorAuth(cfg.ActorAuthSecret, cfg.DefaultActor))
			write.Post("/", cfg.LeadsHandler.CreateLead)
		})
	})

	return r
}
