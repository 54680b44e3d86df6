package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// Server exposes the JSON API. Every data route is owner-scoped through the
// JWT middleware; handlers never see a request without an owner.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger

	transactions *services.TransactionService
	schedules    *services.ScheduleService
	insights     *services.InsightService
	categories   CategoryLister

	jwtSecret []byte
	limiter   *ipRateLimiter
}

func NewServer(cfg *config.Config, logger *log.Logger,
	transactions *services.TransactionService,
	schedules *services.ScheduleService,
	insights *services.InsightService,
	categories CategoryLister,
) *Server {
	s := &Server{
		logger:       logger.WithComponent("http"),
		transactions: transactions,
		schedules:    schedules,
		insights:     insights,
		categories:   categories,
		jwtSecret:    []byte(cfg.JWTSecret),
		limiter:      newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(s.requestID)
	r.Use(securityHeaders)
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Get("/categories", s.handleListCategories)

		r.Route("/recurring", func(r chi.Router) {
			r.Post("/", s.handleCreateSchedule)
			r.Get("/", s.handleListSchedules)
			r.Get("/{id}", s.handleGetSchedule)
			r.Put("/{id}", s.handleUpdateSchedule)
			r.Delete("/{id}", s.handleDeleteSchedule)
			r.Get("/{id}/next", s.handleProjectNext)
		})

		r.Route("/insights", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/trends", s.handleTrends)
			r.Get("/suggestions", s.handleSuggestions)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed mux, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
