// Package http exposes the tracker over a JSON REST API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tracker/internal/auth"
	"tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the listener and the cross-cutting middleware.
type Options struct {
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
}

// Deps are the services the handlers call.
type Deps struct {
	Auth         *services.AuthService
	Transactions *services.TransactionService
	Summaries    *services.SummaryService
	Resolver     *auth.Resolver
	Store        Pinger
	Logger       *log.Logger
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
}

type Server struct {
	http.Server
	logger       *log.Logger
	auth         *services.AuthService
	transactions *services.TransactionService
	summaries    *services.SummaryService
	resolver     *auth.Resolver
	store        Pinger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics
}

// NewServer builds the router and middleware chain. Call Shutdown to stop
// both the listener and the rate limiter's cleanup goroutine.
func NewServer(opts Options, deps Deps) *Server {
	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(deps.Logger)

	s := &Server{
		logger:           logger,
		auth:             deps.Auth,
		transactions:     deps.Transactions,
		summaries:        deps.Summaries,
		resolver:         deps.Resolver,
		store:            deps.Store,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.Use(s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit))
	authRouter.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	// /categories must be registered before /{id} so it is not taken for an id.
	r.HandleFunc("/transactions", s.requireUser(s.handleListTransactions)).Methods(http.MethodGet)
	r.HandleFunc("/transactions", s.requireUser(s.handleCreateTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/categories", s.requireUser(s.handleCategories)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id}", s.requireUser(s.handleGetTransaction)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id}", s.requireUser(s.handleUpdateTransaction)).Methods(http.MethodPut)
	r.HandleFunc("/transactions/{id}", s.requireUser(s.handleDeleteTransaction)).Methods(http.MethodDelete)
	r.HandleFunc("/summary", s.requireUser(s.handleSummary)).Methods(http.MethodGet)

	// Outermost first.
	var handler http.Handler = r
	handler = detector.Middleware(handler)
	handler = newCORS(opts.CORSOrigins).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = log.Middleware(deps.Logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path,
		log.FieldRequestID, trace.RequestID(r))
	writeDetail(w, http.StatusTooManyRequests, "Too many requests")
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
