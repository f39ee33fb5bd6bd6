package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// Ledger is the application surface served over HTTP.
type Ledger interface {
	CreateTransaction(ctx context.Context, nt core.NewTransaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, p core.Patch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	Summarize(ctx context.Context) (core.Summary, error)
	SummarizeByCategory(ctx context.Context) (core.CategorySummary, error)
	Dashboard(ctx context.Context, recent int) (services.Dashboard, error)
	Ping(ctx context.Context) error
}

var _ Ledger = (*services.LedgerService)(nil)

type Options struct {
	RecentLimit int
	// WritesPerMinute caps mutating API calls per client. Zero disables it.
	WritesPerMinute int
	Logger          *log.Logger
}

type Server struct {
	http.Server
	ledger      Ledger
	recentLimit int
	trace       *trace.Middleware
	limiter     *ratelimit.Limiter
}

func NewServer(addr string, ledger Ledger, opts Options) *Server {
	if opts.RecentLimit < 1 {
		opts.RecentLimit = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		ledger:      ledger,
		recentLimit: opts.RecentLimit,
		trace:       trace.NewMiddleware(logger, extractClientIP),
		limiter:     ratelimit.New(opts.WritesPerMinute),
	}

	r := mux.NewRouter()
	r.Use(s.trace.Middleware, securityHeaders)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// Routes stay on the root router: a subrouter would answer a wrong
	// method with 404 instead of 405.
	r.Use(s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
	}))
	r.HandleFunc("/api/transactions", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/transactions", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions/{id:[0-9]+}", s.handleUpdate(false)).Methods(http.MethodPatch)
	r.HandleFunc("/api/transactions/{id:[0-9]+}", s.handleUpdate(true)).Methods(http.MethodPut)
	r.HandleFunc("/api/transactions/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/summary", s.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/api/category-hints", handleCategoryHints).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Metrics returns the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.Metrics()
}

// RejectedWrites reports how many mutating calls the write limiter refused.
func (s *Server) RejectedWrites() int64 {
	return s.limiter.Rejected()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
