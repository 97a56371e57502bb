package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gastitos/internal/core"
	"gastitos/internal/form"
	applog "gastitos/internal/log"
	"gastitos/internal/middleware/ratelimit"
	"gastitos/internal/middleware/security"
	"gastitos/internal/middleware/trace"
)

// Transactions is the read side the handlers need beyond the ledger.
type Transactions interface {
	Initialize(ctx context.Context) error
	Get(ctx context.Context, id int64) (core.Transaction, bool, error)
}

// Options configures NewServer.
type Options struct {
	Addr              string
	Workflow          *form.Workflow
	Transactions      Transactions
	Logger            *applog.Logger
	RequestsPerMinute int
	// Now defaults to time.Now; the month view is computed from it.
	Now func() time.Time
}

type Server struct {
	http.Server

	workflow     *form.Workflow
	transactions Transactions
	logger       *applog.Logger
	sl           *applog.StructuredLogger
	now          func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime  time.Time
	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
	alerts  atomic.Int64
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	detector := security.NewDetector()
	s := &Server{
		workflow:         opts.Workflow,
		transactions:     opts.Transactions,
		logger:           logger,
		sl:               applog.NewStructuredLogger(logger),
		now:              now,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ClientIP),
	}
	s.appMetrics.uptime = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/month", s.handleMonth)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// middleware wraps h with tracing, security headers, probe detection and
// rate limiting of writes, outermost first.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ClientIP, isMutating,
		func(w http.ResponseWriter, r *http.Request) {
			s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, s.securityDetector.ClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			TooManyRequestsError("Demasiadas solicitudes. Intenta de nuevo más tarde.").Write(w)
		})(h)

	detect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.IsSuspicious(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldPath, r.URL.Path,
				applog.FieldQuery, r.URL.RawQuery)
		}
		limited.ServeHTTP(w, r)
	})

	headers := security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(detect)
	return s.traceMiddleware.Middleware(headers)
}

func isMutating(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
