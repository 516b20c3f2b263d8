package ledger

import (
	"context"
	"errors"
	"time"

	"conti/internal/core"
)

// ErrNotFound is returned by store operations targeting an entity that does
// not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Ports for ledger storage adapters.
type (
	Reader interface {
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		// ListTransactions narrows by date range, account set, and category
		// set. The zero filter returns the complete set, which the pairing
		// resolver and balance reconstructor require regardless of view
		// filters. Filter.TagIDs is a view concern and is ignored here.
		ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		ListTags(ctx context.Context, userID string) ([]core.Tag, error)
		ListTransactionTags(ctx context.Context, userID string) ([]core.TransactionTag, error)
		// ListBudgets returns the budgets keyed to the given first-of-month
		// date. A zero month returns every budget.
		ListBudgets(ctx context.Context, userID string, month core.Date) ([]core.Budget, error)
		ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error)
		// ListActiveRecurring returns every user's active templates for the
		// posting sweep.
		ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
		// ListUsers returns the distinct owners of at least one transaction.
		ListUsers(ctx context.Context) ([]string, error)
	}

	Writer interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		// DeleteAccount cascades to the account's transactions; transfer
		// rows pointing at it as destination keep running with the
		// reference cleared.
		DeleteAccount(ctx context.Context, userID string, id int64) error
		// CreateTransaction assigns ids in write order. For a transfer it
		// inserts both legs in one store transaction, debit leg first, and
		// backfills the bidirectional pair reference; the returned value is
		// the origin leg.
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// DeleteTransaction removes the row and, when it is a transfer leg,
		// its paired row.
		DeleteTransaction(ctx context.Context, userID string, id int64) error
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory clears category references on transactions and
		// removes budgets targeting the category.
		DeleteCategory(ctx context.Context, userID string, id int64) error
		CreateTag(ctx context.Context, t core.Tag) (core.Tag, error)
		TagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error
		UntagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID string, id int64) error
		CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error)
		DeleteRecurring(ctx context.Context, userID string, id int64) error
		// MarkRecurringApplied records the posting time so the template is
		// not applied twice in one period.
		MarkRecurringApplied(ctx context.Context, userID string, id int64, at time.Time) error
	}

	// SnapshotStore persists the end-of-day balances materialized by the
	// snapshot worker.
	SnapshotStore interface {
		// ReplaceSnapshots swaps the user's whole snapshot series for the
		// given one.
		ReplaceSnapshots(ctx context.Context, userID string, snaps []core.BalanceSnapshot) error
		ListSnapshots(ctx context.Context, userID string, f core.Filter) ([]core.BalanceSnapshot, error)
	}

	// Store is the full contract a backend provides.
	Store interface {
		Reader
		Writer
		SnapshotStore
	}
)
