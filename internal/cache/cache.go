// Package cache provides the in-process memoization used by the HTTP read
// paths: a generic LRU with TTL plus a manager that sweeps expired entries
// in the background.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cleaner is implemented by caches that can drop their expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the periodic cleanup of registered caches so each cache does
// not need its own goroutine.
type Manager struct {
	caches  []Cleaner
	cancel  context.CancelFunc
	stopped sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a cache to the cleanup rotation. Not safe to call after
// StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins sweeping registered caches every interval.
func (m *Manager) StartCleanup(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.stopped.Add(1)
	go m.sweep(ctx, interval)
}

func (m *Manager) sweep(ctx context.Context, interval time.Duration) {
	defer m.stopped.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range m.caches {
				total += c.CleanExpired()
			}
			if total > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", total)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the sweeper and waits for it to exit. Safe to call when
// cleanup was never started.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.stopped.Wait()
}
