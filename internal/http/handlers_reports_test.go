package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"conti/internal/core"
	"conti/internal/services"
)

// seedMarchLedger stores an account, two categories, and March 2025 activity
// directly through the ledger service.
func seedMarchLedger(t *testing.T, srv *Server) (core.Account, core.Category, core.Category) {
	t.Helper()
	ctx := context.Background()

	account, err := srv.ledger.CreateAccount(ctx, core.Account{
		UserID: DefaultUser, Name: "Checking", Type: core.AccountChecking,
		OpeningBalance: dec(t, "1000"),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	salary, err := srv.ledger.CreateCategory(ctx, core.Category{UserID: DefaultUser, Name: "Salary"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	groceries, err := srv.ledger.CreateCategory(ctx, core.Category{UserID: DefaultUser, Name: "Groceries"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	_, err = srv.ledger.CreateTransaction(ctx, core.Transaction{
		UserID: DefaultUser, AccountID: account.ID, CategoryID: &salary.ID,
		Description: "March salary", Amount: dec(t, "500"),
		Type: core.TypeIncome, Date: core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	_, err = srv.ledger.CreateTransaction(ctx, core.Transaction{
		UserID: DefaultUser, AccountID: account.ID, CategoryID: &groceries.ID,
		Description: "Weekly shop", Amount: dec(t, "120"),
		Type: core.TypeExpense, Date: core.NewDate(2025, 3, 12),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return account, salary, groceries
}

func TestMonthReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	seedMarchLedger(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/month?year=2025&month=3", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	var report services.MonthReport
	decodeBody(t, rr, &report)

	if report.Year != 2025 || report.Month != 3 {
		t.Errorf("report for %d-%d, want 2025-3", report.Year, report.Month)
	}
	if !report.Income.Equal(dec(t, "500")) || !report.Expense.Equal(dec(t, "120")) {
		t.Errorf("income/expense = %s/%s, want 500/120", report.Income, report.Expense)
	}
	if !report.Net.Equal(dec(t, "380")) {
		t.Errorf("net = %s, want 380", report.Net)
	}

	byName := make(map[string]string)
	for _, c := range report.Categories {
		byName[c.Name] = c.Balance.String()
	}
	if byName["Salary"] != "500" || byName["Groceries"] != "-120" {
		t.Errorf("category balances = %v", byName)
	}
}

func TestMonthReportRejectsBadMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/month?year=2025&month=13", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestMonthReportCacheInvalidation(t *testing.T) {
	srv, _ := newTestServer(t)
	account, salary, _ := seedMarchLedger(t, srv)

	var report services.MonthReport
	rr := doRequest(t, srv, http.MethodGet, "/api/reports/month?year=2025&month=3", "", nil)
	decodeBody(t, rr, &report)
	if !report.Net.Equal(dec(t, "380")) {
		t.Fatalf("net = %s, want 380", report.Net)
	}

	// A write through the API must drop the cached report.
	rr = doRequest(t, srv, http.MethodPost, "/api/transactions", "", map[string]any{
		"account_id":  account.ID,
		"category_id": salary.ID,
		"description": "Bonus",
		"amount":      "100",
		"type":        "income",
		"date":        "2025-03-20",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/reports/month?year=2025&month=3", "", nil)
	decodeBody(t, rr, &report)
	if !report.Net.Equal(dec(t, "480")) {
		t.Errorf("net after write = %s, want 480", report.Net)
	}

	// With no write in between, the next read is served from cache.
	doRequest(t, srv, http.MethodGet, "/api/reports/month?year=2025&month=3", "", nil)
	if hits := atomic.LoadInt64(&srv.metrics.cacheHits); hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestMonthsReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	account, err := srv.ledger.CreateAccount(ctx, core.Account{
		UserID: DefaultUser, Name: "Checking", Type: core.AccountChecking,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := srv.ledger.CreateTransaction(ctx, core.Transaction{
		UserID: DefaultUser, AccountID: account.ID, Description: "Salary",
		Amount: dec(t, "100"), Type: core.TypeIncome, Date: core.NewDate(2025, 1, 15),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := srv.ledger.CreateTransaction(ctx, core.Transaction{
		UserID: DefaultUser, AccountID: account.ID, Description: "Dinner",
		Amount: dec(t, "40"), Type: core.TypeExpense, Date: core.NewDate(2025, 2, 3),
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/months", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var months []core.MonthlySummary
	decodeBody(t, rr, &months)
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}
	if months[0].Year != 2025 || months[0].Month != 1 || !months[0].Net.Equal(dec(t, "100")) {
		t.Errorf("months[0] = %+v", months[0])
	}
	if months[1].Month != 2 || !months[1].Net.Equal(dec(t, "-40")) {
		t.Errorf("months[1] = %+v", months[1])
	}
}

func TestBalancesReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	account, _, _ := seedMarchLedger(t, srv)

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/balances?accounts="+itoa(account.ID), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	var snaps []core.BalanceSnapshot
	decodeBody(t, rr, &snaps)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if !snaps[0].Balance.Equal(dec(t, "1500")) || !snaps[1].Balance.Equal(dec(t, "1380")) {
		t.Errorf("balances = %s, %s, want 1500, 1380", snaps[0].Balance, snaps[1].Balance)
	}

	// Date narrowing keeps replay complete and trims output only: the
	// balance on the later day still includes the earlier income.
	rr = doRequest(t, srv, http.MethodGet,
		"/api/reports/balances?from=2025-03-02&accounts="+itoa(account.ID), "", nil)
	decodeBody(t, rr, &snaps)
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps))
	}
	if !snaps[0].Balance.Equal(dec(t, "1380")) {
		t.Errorf("balance = %s, want 1380", snaps[0].Balance)
	}
}

func TestBudgetsReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	_, salary, _ := seedMarchLedger(t, srv)

	if _, err := srv.ledger.CreateBudget(context.Background(), core.Budget{
		UserID: DefaultUser, CategoryID: salary.ID,
		Amount: dec(t, "400"), Month: core.NewDate(2025, 3, 1),
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	rr := doRequest(t, srv, http.MethodGet, "/api/reports/budgets?year=2025&month=3", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	var rows []services.BudgetReport
	decodeBody(t, rr, &rows)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.CategoryName != "Salary" {
		t.Errorf("category name = %q, want Salary", row.CategoryName)
	}
	if !row.Balance.Equal(dec(t, "500")) {
		t.Errorf("balance = %s, want 500", row.Balance)
	}
	if !row.Percent.Equal(dec(t, "125")) {
		t.Errorf("percent = %s, want 125", row.Percent)
	}
	if row.Width != 100 || !row.OnTrack {
		t.Errorf("width/on-track = %d/%v, want 100/true", row.Width, row.OnTrack)
	}
}
