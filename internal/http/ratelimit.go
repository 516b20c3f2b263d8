package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// writeLimit caps POST and DELETE requests per client IP and window.
	// Reads stay unthrottled.
	writeLimit  = 60
	writeWindow = time.Minute

	// Idle entries older than staleAfter are swept so the map stays
	// bounded by recently active clients.
	staleAfter    = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

// clientWindow is one IP's budget within the current fixed window.
type clientWindow struct {
	windowStart time.Time
	count       int
	lastSeen    time.Time
}

// rateLimiter counts writes per client IP over fixed windows.
type rateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*clientWindow
	done      chan struct{}
	closeOnce sync.Once
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow reports whether a write from the given IP fits the budget. Denials
// are counted on metrics.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.windowStart) >= writeWindow {
		rl.windows[clientIP] = &clientWindow{windowStart: now, count: 1, lastSeen: now}
		return true
	}

	w.count++
	w.lastSeen = now
	if w.count > writeLimit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// ActiveClients returns how many client IPs are currently tracked.
func (rl *rateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// stop terminates the sweeper. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.closeOnce.Do(func() {
		close(rl.done)
	})
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStale()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) dropStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, w := range rl.windows {
		if w.lastSeen.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}
