// Package worker materializes balance snapshots from the ledger and posts
// due recurring templates. It consumes ledger change events from AMQP and
// also sweeps on timers, so a lost message only delays a rebuild.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/services"
)

// SnapshotWorkerConfig holds the worker's timer settings.
type SnapshotWorkerConfig struct {
	// RebuildInterval is how often every user's snapshot series is rebuilt
	// regardless of events (default: 15m).
	RebuildInterval time.Duration

	// RecurringInterval is how often due recurring templates are posted
	// (default: 1h).
	RecurringInterval time.Duration

	// RebuildConcurrency bounds how many users are rebuilt in parallel
	// during the startup pass (default: 4).
	RebuildConcurrency int
}

// DefaultSnapshotWorkerConfig returns sensible defaults.
func DefaultSnapshotWorkerConfig() SnapshotWorkerConfig {
	return SnapshotWorkerConfig{
		RebuildInterval:    15 * time.Minute,
		RecurringInterval:  1 * time.Hour,
		RebuildConcurrency: 4,
	}
}

// SnapshotWorker replays ledgers into balance snapshot series and keeps
// budget progress under watch. Rebuilds are idempotent: the whole series is
// replaced on every run, so replayed or duplicated events are harmless.
type SnapshotWorker struct {
	store     ledger.Store
	recurring *services.RecurringProcessor
	config    SnapshotWorkerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSnapshotWorker(store ledger.Store, recurring *services.RecurringProcessor, config SnapshotWorkerConfig) *SnapshotWorker {
	// A limit of zero would deadlock the startup errgroup.
	if config.RebuildConcurrency < 1 {
		config.RebuildConcurrency = 1
	}
	return &SnapshotWorker{
		store:     store,
		recurring: recurring,
		config:    config,
	}
}

// HandleLedgerEvent processes a single ledger change event from AMQP. The
// event only names the user; the rebuild reloads the full ledger, so stale
// or out-of-order events still converge on the right series.
func (w *SnapshotWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"op", msg.Op)

	if err := w.RebuildUser(ctx, msg.UserID); err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}

	w.checkBudgets(ctx, msg.UserID)
	return nil
}

// RebuildUser replays one user's ledger from opening balances and replaces
// their stored snapshot series with the result.
func (w *SnapshotWorker) RebuildUser(ctx context.Context, userID string) error {
	accounts, err := w.store.ListAccounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	txs, err := w.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	result := core.ReplayBalances(accounts, txs)
	if err := w.store.ReplaceSnapshots(ctx, userID, result.Snapshots); err != nil {
		return fmt.Errorf("replace snapshots: %w", err)
	}

	slog.InfoContext(ctx, "Rebuilt balance snapshots",
		"user_id", userID,
		"accounts", len(accounts),
		"snapshots", len(result.Snapshots))
	return nil
}

// StartupRebuild rebuilds every known user's series. Called once at worker
// startup to recover from missed events or downtime.
func (w *SnapshotWorker) StartupRebuild(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users for startup rebuild: %w", err)
	}
	if len(users) == 0 {
		slog.InfoContext(ctx, "No users found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Rebuilding snapshot series on startup",
		"users", len(users),
		"concurrency", w.config.RebuildConcurrency)

	// A user whose rebuild fails is logged and skipped; the rebuild ticker
	// retries later.
	var g errgroup.Group
	g.SetLimit(w.config.RebuildConcurrency)
	var failed atomic.Int64
	for _, userID := range users {
		userID := userID // capture per-iteration value under go <1.22 loop semantics
		g.Go(func() error {
			if err := w.RebuildUser(ctx, userID); err != nil {
				slog.ErrorContext(ctx, "Failed to rebuild user during startup",
					"user_id", userID, "error", err)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Startup rebuild completed",
		"total", len(users),
		"rebuilt", len(users)-int(failed.Load()),
		"errors", failed.Load())
	return nil
}

// Start begins the timer loop. Returns an error if already running.
func (w *SnapshotWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("snapshot worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Snapshot worker started",
		"rebuild_interval", w.config.RebuildInterval,
		"recurring_interval", w.config.RecurringInterval)
	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *SnapshotWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Snapshot worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Snapshot worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the worker loop is currently running.
func (w *SnapshotWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SnapshotWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	rebuildTicker := time.NewTicker(w.config.RebuildInterval)
	defer rebuildTicker.Stop()

	recurringTicker := time.NewTicker(w.config.RecurringInterval)
	defer recurringTicker.Stop()

	// Sweep immediately so a restart catches postings missed while down.
	w.sweepRecurring(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-rebuildTicker.C:
			w.rebuildAll(ctx)
		case <-recurringTicker.C:
			w.sweepRecurring(ctx)
		}
	}
}

// rebuildAll refreshes every user's series. A failing user is logged and
// skipped so one bad ledger cannot stall the rest.
func (w *SnapshotWorker) rebuildAll(ctx context.Context) {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for rebuild", "error", err)
		return
	}
	for _, userID := range users {
		if err := w.RebuildUser(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to rebuild user",
				"user_id", userID, "error", err)
		}
	}
}

func (w *SnapshotWorker) sweepRecurring(ctx context.Context) {
	// Nil when recurring posting is disabled.
	if w.recurring == nil {
		return
	}
	posted, err := w.recurring.ProcessDue(ctx, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(ctx, "Recurring sweep failed", "error", err)
		return
	}
	if posted > 0 {
		// New rows changed balances; refresh without waiting for the
		// rebuild tick.
		w.rebuildAll(ctx)
	}
}

// checkBudgets evaluates the current month's budgets after a change and logs
// the ones that slipped off track.
func (w *SnapshotWorker) checkBudgets(ctx context.Context, userID string) {
	month := core.MonthOf(core.Today())
	budgets, err := w.store.ListBudgets(ctx, userID, month)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list budgets", "user_id", userID, "error", err)
		return
	}
	if len(budgets) == 0 {
		return
	}
	txs, err := w.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list transactions for budget check",
			"user_id", userID, "error", err)
		return
	}

	for _, st := range core.BudgetProgress(budgets, txs) {
		if st.OnTrack {
			continue
		}
		slog.WarnContext(ctx, "Budget off track",
			"user_id", userID,
			"category_id", st.Budget.CategoryID,
			"target", st.Budget.Amount.String(),
			"balance", st.Balance.String(),
			"percent", st.Percent.String())
	}
}
