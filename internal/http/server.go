package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgethelper/internal/cache"
	"budgethelper/internal/currency"
	"budgethelper/internal/log"
	"budgethelper/internal/middleware/ratelimit"
	"budgethelper/internal/middleware/security"
	"budgethelper/internal/middleware/trace"
	"budgethelper/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateSource serves the current rate matrix.
type RateSource interface {
	Rates(ctx context.Context) currency.RateMatrix
	Invalidate()
}

// Deps are the services behind the API.
type Deps struct {
	Users        *services.UserService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Aggregator   *services.Aggregator
	Reports      *services.ReportBuilder
	Exports      *services.ExportService
	Rates        RateSource
	Store        Pinger
	Caches       *cache.Manager

	// RequestsPerMinute and RateLimitBurst bound each client; zero selects
	// the limiter defaults.
	RequestsPerMinute int
	RateLimitBurst    int
}

type Server struct {
	http.Server
	deps   Deps
	logger *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:      deps,
		logger:    logger,
		startedAt: time.Now(),
	}

	s.securityDetector = security.NewDetector(logger)
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: deps.RequestsPerMinute,
		Burst:             deps.RateLimitBurst,
	}, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("POST /api/rates/refresh", s.handleRefreshRates)

	mux.HandleFunc("PUT /api/users/{id}", s.handleEnsureUser)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("PATCH /api/users/{id}/language", s.handleSetLanguage)
	mux.HandleFunc("PATCH /api/users/{id}/currency", s.handleSetCurrency)

	mux.HandleFunc("GET /api/users/{id}/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/users/{id}/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/users/{id}/categories/{categoryID}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/users/{id}/transactions/{type}", s.handleListTransactions)
	mux.HandleFunc("POST /api/users/{id}/transactions/{type}", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/users/{id}/transactions/{type}/{txID}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/users/{id}/transactions/{type}/{txID}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/users/{id}/transactions/{type}/{txID}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/users/{id}/aggregates/{type}/{period}", s.handleAggregate)
	mux.HandleFunc("GET /api/users/{id}/reports/{period}", s.handleReport)
	mux.HandleFunc("GET /api/users/{id}/reports/{period}/export", s.handleExportInline)
	mux.HandleFunc("POST /api/users/{id}/reports/{period}/export", s.handleExportQueued)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.deps.Caches != nil {
			s.deps.Caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
