package services

import (
	"context"

	"github.com/shopspring/decimal"

	"conti/internal/core"
	"conti/internal/ledger"
)

// AccountBalance couples an account with its replayed balance as of today.
type AccountBalance struct {
	core.Account
	Balance decimal.Decimal `json:"balance"`
}

// CategoryBreakdown is one category's monthly net with its display name.
type CategoryBreakdown struct {
	CategoryID int64           `json:"category_id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
}

// MonthReport aggregates one calendar month.
type MonthReport struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	Income     decimal.Decimal     `json:"income"`
	Expense    decimal.Decimal     `json:"expense"`
	Net        decimal.Decimal     `json:"net"`
	Categories []CategoryBreakdown `json:"categories"`
}

// BudgetReport is one budget's progress with the category name attached.
type BudgetReport struct {
	core.BudgetStatus
	CategoryName string `json:"category_name"`
}

// ReportService derives read models from the raw ledger. Derivation always
// runs over the complete transaction set; view filters narrow output only.
type ReportService struct {
	store ledger.Store
}

func NewReportService(store ledger.Store) *ReportService {
	return &ReportService{store: store}
}

// Accounts returns every account with its balance as of today.
func (s *ReportService) Accounts(ctx context.Context, userID string) ([]AccountBalance, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}

	balances := core.CurrentBalances(accounts, txs, core.Today())
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountBalance{Account: a, Balance: balances[a.ID]})
	}
	return out, nil
}

// Transactions resolves transfer pairs into display rows and applies the
// filter to the output.
func (s *ReportService) Transactions(ctx context.Context, userID string, f core.Filter) ([]core.DisplayTransaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}
	tags, err := s.store.ListTransactionTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.ResolveTransfers(txs, f, tagsByTransaction(tags)), nil
}

// Month totals one calendar month and breaks it down by category. Any date
// within the target month selects it.
func (s *ReportService) Month(ctx context.Context, userID string, month core.Date) (MonthReport, error) {
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return MonthReport{}, err
	}
	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return MonthReport{}, err
	}

	year, m := month.Year(), month.Month()
	sum := core.SummaryForMonth(txs, year, m)
	report := MonthReport{
		Year:    year,
		Month:   m,
		Income:  sum.Income,
		Expense: sum.Expense,
		Net:     sum.Net,
	}
	for _, cb := range core.CategoryBalances(txs, year, m) {
		report.Categories = append(report.Categories, CategoryBreakdown{
			CategoryID: cb.CategoryID,
			Name:       names[cb.CategoryID],
			Balance:    cb.Balance,
		})
	}
	return report, nil
}

// Months returns the per-month income and expense series over the whole
// ledger, oldest first.
func (s *ReportService) Months(ctx context.Context, userID string) ([]core.MonthlySummary, error) {
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}
	return core.MonthlySummaries(txs), nil
}

// Balances returns the end-of-day balance series. It prefers the snapshots
// the worker materialized and falls back to a live replay when none exist.
func (s *ReportService) Balances(ctx context.Context, userID string, f core.Filter) ([]core.BalanceSnapshot, error) {
	snaps, err := s.store.ListSnapshots(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if len(snaps) > 0 {
		return snaps, nil
	}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}
	replayed := core.ReplayBalances(accounts, txs)
	return core.FilterSnapshots(replayed.Snapshots, f), nil
}

// Budgets reports progress for the budgets keyed to month's calendar month.
func (s *ReportService) Budgets(ctx context.Context, userID string, month core.Date) ([]BudgetReport, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, core.MonthOf(month))
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]BudgetReport, 0, len(budgets))
	for _, status := range core.BudgetProgress(budgets, txs) {
		out = append(out, BudgetReport{
			BudgetStatus: status,
			CategoryName: names[status.Budget.CategoryID],
		})
	}
	return out, nil
}

func (s *ReportService) categoryNames(ctx context.Context, userID string) (map[int64]string, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

func tagsByTransaction(tags []core.TransactionTag) map[int64][]int64 {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[int64][]int64, len(tags))
	for _, tt := range tags {
		out[tt.TransactionID] = append(out[tt.TransactionID], tt.TagID)
	}
	return out
}
