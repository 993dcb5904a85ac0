// Package http exposes the ledger and the finance engines as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

// Engine ports used by the handlers.
type (
	SavingsComputer interface {
		ComputeSavings(ctx context.Context, owner core.Owner, year, month int) (decimal.Decimal, error)
	}
	Materializer interface {
		MaterializeForCurrentMonth(ctx context.Context, owner core.Owner, today time.Time) (int, error)
	}
	DashboardBuilder interface {
		BuildDashboard(ctx context.Context, owner core.Owner, year, month int) (core.DashboardSummary, error)
	}
	InsightDeriver interface {
		DeriveInsights(ctx context.Context, owner core.Owner, year, month int) ([]core.Insight, error)
	}
)

// Deps are the collaborators of the server. Events and Logger may be nil.
type Deps struct {
	Store     ledger.Store
	Savings   SavingsComputer
	Recurring Materializer
	Dashboard DashboardBuilder
	Insights  InsightDeriver
	Events    services.EventPublisher
	Logger    *log.Logger

	RateLimitPerMinute int           // 0 disables rate limiting
	MaterializeTTL     time.Duration // how long a dashboard skips re-materializing a month
	Now                func() time.Time
}

type Server struct {
	http.Server
	store     ledger.Store
	savings   SavingsComputer
	recurring Materializer
	dashboard DashboardBuilder
	insights  InsightDeriver
	events    services.EventPublisher
	now       func() time.Time

	marks       *cache.MonthMarks
	caches      *cache.Manager
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
}

const cacheCleanupInterval = 5 * time.Minute

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	ttl := deps.MaterializeTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	s := &Server{
		store:     deps.Store,
		savings:   deps.Savings,
		recurring: deps.Recurring,
		dashboard: deps.Dashboard,
		insights:  deps.Insights,
		events:    deps.Events,
		now:       now,
		marks:     cache.NewMonthMarks(ttl),
		caches:    cache.NewManager(),
		tracer:    trace.NewMiddleware(),
	}
	s.caches.Register(s.marks)
	s.caches.StartCleanup(cacheCleanupInterval)

	if deps.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute})
	}

	s.Addr = addr
	s.Handler = s.routes(logger.WithComponent(log.ComponentHTTP))
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware(clientKey))
		}
		r.Use(requireOwner)

		r.Get("/income", s.handleGetIncome)
		r.Post("/income", s.handleUpsertIncome)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleUpsertBudget)
		r.Put("/budgets/{id}", s.handleUpdateBudget)
		r.Delete("/budgets/{id}", s.handleDeleteBudget)

		r.Get("/savings", s.handleSavings)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/insights", s.handleInsights)
		r.Post("/recurring/generate", s.handleGenerateRecurring)
	})

	return r
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.caches.Stop()

	if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RequestMetrics reports the trace middleware counters.
func (s *Server) RequestMetrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
