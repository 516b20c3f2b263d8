// Package http serves the JSON API over the ledger and report services.
// Routes take the acting user from the X-User-ID header; write routes are
// rate limited per client IP and invalidate the month report cache.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/services"
)

// Server owns the API routes, the per-month report cache, and the client
// rate limiter, and tears all of them down on Shutdown.
type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
	logger  *log.Logger

	rateLimiter *rateLimiter
	security    *securityMetrics

	// Month reports are the hot read path; every write that can move a
	// monthly total invalidates here.
	monthCache   *cache.LRUCache[services.MonthReport]
	cacheManager *cache.Manager

	metrics      appMetrics
	shutdownOnce sync.Once
}

// appMetrics tracks process-level counters for the metrics endpoint.
type appMetrics struct {
	startedAt           time.Time
	requestsTotal       int64
	transactionsCreated int64
	cacheHits           int64
	cacheMisses         int64
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, ledgerSvc *services.LedgerService, reportSvc *services.ReportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       ledgerSvc,
		reports:      reportSvc,
		logger:       log.Component(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		security:     &securityMetrics{},
		monthCache:   cache.NewLRUCache[services.MonthReport](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
		metrics:      appMetrics{startedAt: time.Now()},
	}

	s.cacheManager.Register(s.monthCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/accounts", s.withAPI(s.handleAccounts))
	mux.HandleFunc("/api/transactions", s.withAPI(s.handleTransactions))
	mux.HandleFunc("/api/transactions/tags", s.withAPI(s.handleTransactionTags))
	mux.HandleFunc("/api/categories", s.withAPI(s.handleCategories))
	mux.HandleFunc("/api/tags", s.withAPI(s.handleTags))
	mux.HandleFunc("/api/budgets", s.withAPI(s.handleBudgets))
	mux.HandleFunc("/api/recurring", s.withAPI(s.handleRecurring))
	mux.HandleFunc("/api/reports/month", s.withAPI(s.handleMonthReport))
	mux.HandleFunc("/api/reports/months", s.withAPI(s.handleMonthsReport))
	mux.HandleFunc("/api/reports/balances", s.withAPI(s.handleBalancesReport))
	mux.HandleFunc("/api/reports/budgets", s.withAPI(s.handleBudgetsReport))

	return s
}

// Shutdown stops the cleanup goroutines before draining the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withAPI adds tracing, rate limiting, and security headers around an API
// handler.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.requestsTotal, 1)

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.security) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		// Reads are unthrottled; writes are limited per client.
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			if !s.rateLimiter.allow(clientIP, s.security) {
				s.logger.WarnContext(ctx, "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func monthCacheKey(userID string, month core.Date) string {
	return userID + ":" + strconv.Itoa(month.Year()) + "-" + strconv.Itoa(month.Month())
}

// getMonthReport serves the month report through the cache. month must be
// first-of-month normalized.
func (s *Server) getMonthReport(ctx context.Context, userID string, month core.Date) (services.MonthReport, error) {
	key := monthCacheKey(userID, month)
	if report, found := s.monthCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		s.logger.DebugContext(ctx, "Month report cache hit",
			log.FieldUserID, userID,
			log.FieldYear, month.Year(),
			log.FieldMonth, month.Month())
		return report, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	report, err := s.reports.Month(ctx, userID, month)
	if err != nil {
		return services.MonthReport{}, err
	}
	s.monthCache.Set(key, report)
	return report, nil
}

// invalidateMonth drops one cached report when the affected month is known.
func (s *Server) invalidateMonth(userID string, d core.Date) {
	s.monthCache.Delete(monthCacheKey(userID, core.MonthOf(d)))
}

// invalidateAll purges the whole cache. Used by writes whose reach across
// months is not known from the request alone, such as cascading deletes.
func (s *Server) invalidateAll() {
	if n := s.monthCache.Purge(); n > 0 {
		s.logger.Debug("Month report cache purged", log.FieldCount, n)
	}
}
