package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs a basic liveness check.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness. The stores are in-process, so a live
// server is a ready server.
func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics provides application and security counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	rateLimitHits, suspiciousRequests := s.security.snapshot()
	requests := atomic.LoadInt64(&s.metrics.requestsTotal)
	transactions := atomic.LoadInt64(&s.metrics.transactionsCreated)
	cacheHits := atomic.LoadInt64(&s.metrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.metrics.cacheMisses)
	uptime := time.Since(s.metrics.startedAt)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of API requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", requests)

	fmt.Fprintf(w, "# HELP transactions_created_total Total transactions created over the API\n")
	fmt.Fprintf(w, "# TYPE transactions_created_total counter\n")
	fmt.Fprintf(w, "transactions_created_total %d\n\n", transactions)

	fmt.Fprintf(w, "# HELP report_cache_hits_total Month report cache hits\n")
	fmt.Fprintf(w, "# TYPE report_cache_hits_total counter\n")
	fmt.Fprintf(w, "report_cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP report_cache_misses_total Month report cache misses\n")
	fmt.Fprintf(w, "# TYPE report_cache_misses_total counter\n")
	fmt.Fprintf(w, "report_cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP report_cache_entries Current month report cache entries\n")
	fmt.Fprintf(w, "# TYPE report_cache_entries gauge\n")
	fmt.Fprintf(w, "report_cache_entries %d\n\n", s.monthCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limited requests\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", suspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}
