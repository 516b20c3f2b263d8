package services

import (
	"context"
	"testing"

	"conti/internal/core"
	"conti/internal/ledger/memory"
)

func newReportFixture(t *testing.T) (*ReportService, *LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewReportService(store), NewLedgerService(store, nil), store
}

func TestReportService_AccountsWithBalances(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "1000")
	b := mustCreateAccount(t, svc, "u1", "Savings", "50")

	if _, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Salary", dec(t, "100"), core.NewDate(2025, 1, 5))); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.NewTransfer("u1", a.ID, b.ID, "To savings", dec(t, "200"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	got, err := reports.Accounts(ctx, "u1")
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d accounts, want 2", len(got))
	}

	want := map[int64]string{a.ID: "900", b.ID: "250"}
	for _, ab := range got {
		if !ab.Balance.Equal(dec(t, want[ab.ID])) {
			t.Errorf("account %d balance = %s, want %s", ab.ID, ab.Balance, want[ab.ID])
		}
	}
}

func TestReportService_TransactionsCollapsesTransfer(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "1000")
	b := mustCreateAccount(t, svc, "u1", "Savings", "0")

	if _, err := svc.CreateTransaction(ctx, core.NewTransfer("u1", a.ID, b.ID, "To savings", dec(t, "200"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	rows, err := reports.Transactions(ctx, "u1", core.Filter{})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 for a transfer pair", len(rows))
	}
	if rows[0].FromAccountID != a.ID || rows[0].ToAccountID != b.ID {
		t.Errorf("row direction = %d -> %d, want %d -> %d",
			rows[0].FromAccountID, rows[0].ToAccountID, a.ID, b.ID)
	}
	if rows[0].IsCredit {
		t.Error("unfiltered view should show the origin leg")
	}

	// Filtering on the destination account only surfaces the credit leg,
	// with the same resolved direction.
	rows, err = reports.Transactions(ctx, "u1", core.Filter{AccountIDs: []int64{b.ID}})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(rows) != 1 || !rows[0].IsCredit {
		t.Fatalf("destination filter: got %d rows (credit=%v), want 1 credit row", len(rows), len(rows) == 1 && rows[0].IsCredit)
	}
	if rows[0].FromAccountID != a.ID || rows[0].ToAccountID != b.ID {
		t.Errorf("credit row direction = %d -> %d, want %d -> %d",
			rows[0].FromAccountID, rows[0].ToAccountID, a.ID, b.ID)
	}
}

func TestReportService_TransactionsCarriesTags(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	tx, err := svc.CreateTransaction(ctx, core.NewExpense("u1", a.ID, "Groceries", dec(t, "42"), core.NewDate(2025, 1, 10)))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	tag, err := svc.CreateTag(ctx, core.Tag{UserID: "u1", Name: "weekly-shop"})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if err := svc.TagTransaction(ctx, "u1", tx.ID, tag.ID); err != nil {
		t.Fatalf("tag transaction: %v", err)
	}

	rows, err := reports.Transactions(ctx, "u1", core.Filter{TagIDs: []int64{tag.ID}})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows under tag filter, want 1", len(rows))
	}
	if len(rows[0].TagIDs) != 1 || rows[0].TagIDs[0] != tag.ID {
		t.Errorf("row tags = %v, want [%d]", rows[0].TagIDs, tag.ID)
	}

	rows, err = reports.Transactions(ctx, "u1", core.Filter{TagIDs: []int64{tag.ID + 99}})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows under unmatched tag filter, want 0", len(rows))
	}
}

func TestReportService_Month(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "0")
	b := mustCreateAccount(t, svc, "u1", "Savings", "0")

	salary, err := svc.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Salary"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	groceries, err := svc.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Groceries"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	income := core.NewIncome("u1", a.ID, "March salary", dec(t, "500"), core.NewDate(2025, 3, 1))
	income.CategoryID = &salary.ID
	if _, err := svc.CreateTransaction(ctx, income); err != nil {
		t.Fatalf("create income: %v", err)
	}
	expense := core.NewExpense("u1", a.ID, "Food", dec(t, "120"), core.NewDate(2025, 3, 12))
	expense.CategoryID = &groceries.ID
	if _, err := svc.CreateTransaction(ctx, expense); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	// Transfers are balance-neutral and must not show up in the totals.
	if _, err := svc.CreateTransaction(ctx, core.NewTransfer("u1", a.ID, b.ID, "Stash", dec(t, "300"), core.NewDate(2025, 3, 20))); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	report, err := reports.Month(ctx, "u1", core.NewDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}

	if report.Year != 2025 || report.Month != 3 {
		t.Errorf("report month = %d-%d, want 2025-3", report.Year, report.Month)
	}
	if !report.Income.Equal(dec(t, "500")) {
		t.Errorf("income = %s, want 500", report.Income)
	}
	if !report.Expense.Equal(dec(t, "120")) {
		t.Errorf("expense = %s, want 120", report.Expense)
	}
	if !report.Net.Equal(dec(t, "380")) {
		t.Errorf("net = %s, want 380", report.Net)
	}

	byName := make(map[string]string)
	for _, c := range report.Categories {
		byName[c.Name] = c.Balance.String()
	}
	if byName["Salary"] != "500" {
		t.Errorf("Salary balance = %s, want 500", byName["Salary"])
	}
	if byName["Groceries"] != "-120" {
		t.Errorf("Groceries balance = %s, want -120", byName["Groceries"])
	}
}

func TestReportService_Months(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "0")

	if _, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Jan", dec(t, "100"), core.NewDate(2025, 1, 15))); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.NewExpense("u1", a.ID, "Feb", dec(t, "40"), core.NewDate(2025, 2, 10))); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	months, err := reports.Months(ctx, "u1")
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}
	if months[0].Month != 1 || !months[0].Net.Equal(dec(t, "100")) {
		t.Errorf("first month = %+v, want January net 100", months[0])
	}
	if months[1].Month != 2 || !months[1].Net.Equal(dec(t, "-40")) {
		t.Errorf("second month = %+v, want February net -40", months[1])
	}
}

func TestReportService_BalancesPrefersSnapshots(t *testing.T) {
	reports, svc, store := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	if _, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Pay", dec(t, "50"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("create income: %v", err)
	}

	// No materialized snapshots yet: the series comes from a live replay.
	snaps, err := reports.Balances(ctx, "u1", core.Filter{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots from replay, want 1", len(snaps))
	}
	if !snaps[0].Balance.Equal(dec(t, "150")) {
		t.Errorf("replayed balance = %s, want 150", snaps[0].Balance)
	}

	// Once the worker materialized a series, reads come from the store.
	stored := []core.BalanceSnapshot{{AccountID: a.ID, Date: core.NewDate(2025, 1, 31), Balance: dec(t, "150")}}
	if err := store.ReplaceSnapshots(ctx, "u1", stored); err != nil {
		t.Fatalf("ReplaceSnapshots() error = %v", err)
	}
	snaps, err = reports.Balances(ctx, "u1", core.Filter{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if len(snaps) != 1 || !snaps[0].Date.Equal(core.NewDate(2025, 1, 31)) {
		t.Errorf("got %+v, want the stored series", snaps)
	}
}

func TestReportService_Budgets(t *testing.T) {
	reports, svc, _ := newReportFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "0")

	salary, err := svc.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Salary"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateBudget(ctx, core.Budget{
		UserID:     "u1",
		CategoryID: salary.ID,
		Amount:     dec(t, "400"),
		Month:      core.NewDate(2025, 3, 1),
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	income := core.NewIncome("u1", a.ID, "March salary", dec(t, "500"), core.NewDate(2025, 3, 1))
	income.CategoryID = &salary.ID
	if _, err := svc.CreateTransaction(ctx, income); err != nil {
		t.Fatalf("create income: %v", err)
	}

	got, err := reports.Budgets(ctx, "u1", core.NewDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("Budgets() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d budget reports, want 1", len(got))
	}

	b := got[0]
	if b.CategoryName != "Salary" {
		t.Errorf("category name = %q, want Salary", b.CategoryName)
	}
	if !b.Balance.Equal(dec(t, "500")) {
		t.Errorf("balance = %s, want 500", b.Balance)
	}
	if !b.Percent.Equal(dec(t, "125")) {
		t.Errorf("percent = %s, want 125", b.Percent)
	}
	if b.Width != 100 {
		t.Errorf("width = %d, want 100", b.Width)
	}
	if !b.OnTrack {
		t.Error("budget should be on track")
	}
}
