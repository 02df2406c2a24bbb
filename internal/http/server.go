// Package http exposes the expense API over JSON. Every /api route requires
// a bearer token; the resolved owner scopes every operation.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"kharcha/internal/auth"
	"kharcha/internal/cache"
	"kharcha/internal/core"
	applog "kharcha/internal/log"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/security"
	"kharcha/internal/middleware/trace"
	"kharcha/internal/services"
)

// Config carries the HTTP layer's tunables.
type Config struct {
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize:         256,
		CacheTTL:          5 * time.Minute,
		RequestsPerMinute: 120,
	}
}

// Server wraps http.Server with the expense routes, summary caches and
// request middleware.
type Server struct {
	http.Server

	service *services.ExpenseService

	summaryCache *cache.LRUCache[core.MonthlySummary]
	seriesCache  *cache.LRUCache[[core.MonthsPerYear]int64]

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. When mgr is non-nil the summary caches are registered with it for
// periodic expiry cleanup.
func NewServer(addr string, svc *services.ExpenseService, authMgr *auth.Manager, mgr *cache.Manager, cfg Config) *Server {
	if cfg.CacheSize <= 0 || cfg.CacheTTL <= 0 || cfg.RequestsPerMinute <= 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		service:      svc,
		summaryCache: cache.NewLRUCache[core.MonthlySummary](cfg.CacheSize, cfg.CacheTTL),
		seriesCache:  cache.NewLRUCache[[core.MonthsPerYear]int64](cfg.CacheSize, cfg.CacheTTL),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}

	if mgr != nil {
		mgr.Register(s.summaryCache)
		mgr.Register(s.seriesCache)
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("GET /api/expenses/month", s.handleMonthExpenses)
	api.HandleFunc("GET /api/summary/month", s.handleMonthSummary)
	api.HandleFunc("GET /api/summary/year", s.handleYearSeries)
	api.HandleFunc("GET /api/meta", s.handleMeta)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("POST /api/expenses/{id}/duplicate", s.handleDuplicateExpense)

	mux := http.NewServeMux()
	mux.Handle("/api/", authMgr.Middleware()(api))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(detector.ExtractClientIP)
	requestLog := applog.Middleware(applog.New(applog.Config{Component: applog.ComponentHTTP}))

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		respondJSON(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	})

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracer.Middleware(limited(requestLog(mux)))),

		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, "ok", nil)
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, "ready", nil)
}

func summaryKey(ownerID string, year, month int) string {
	return ownerID + ":" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func seriesKey(ownerID string, year int) string {
	return ownerID + ":" + strconv.Itoa(year)
}

// invalidate drops the cached aggregates touched by a mutation on a record
// dated t.
func (s *Server) invalidate(ownerID string, t time.Time) {
	s.summaryCache.Delete(summaryKey(ownerID, t.Year(), int(t.Month())))
	s.seriesCache.Delete(seriesKey(ownerID, t.Year()))
}
