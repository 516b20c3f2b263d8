package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlySummary totals one calendar month. Transfers never count: they are
// balance-neutral at the portfolio level.
type MonthlySummary struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryBalance is the net of one category over one month.
type CategoryBalance struct {
	CategoryID int64           `json:"category_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// BudgetStatus reports progress against one budget row. Percent is balance
// over the absolute target and stays unclamped; Width clamps to [0, 100] for
// progress-bar rendering.
type BudgetStatus struct {
	Budget  Budget          `json:"budget"`
	Balance decimal.Decimal `json:"balance"`
	Percent decimal.Decimal `json:"percent"`
	Width   int             `json:"width"`
	OnTrack bool            `json:"on_track"`
}

// MonthlySummaries buckets transactions by year-month and totals income and
// expense per bucket, sorted chronologically.
func MonthlySummaries(txs []Transaction) []MonthlySummary {
	type key struct{ year, month int }
	sums := make(map[key]*MonthlySummary)
	for _, tx := range txs {
		if tx.Type == TypeTransfer {
			continue
		}
		k := key{tx.Date.Year(), tx.Date.Month()}
		s, ok := sums[k]
		if !ok {
			s = &MonthlySummary{Year: k.year, Month: k.month}
			sums[k] = s
		}
		switch tx.Type {
		case TypeIncome:
			s.Income = s.Income.Add(tx.Amount)
		case TypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthlySummary, 0, len(sums))
	for _, s := range sums {
		s.Net = s.Income.Sub(s.Expense)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// SummaryForMonth totals a single year-month.
func SummaryForMonth(txs []Transaction, year, month int) MonthlySummary {
	s := MonthlySummary{Year: year, Month: month}
	for _, tx := range txs {
		if tx.Type == TypeTransfer || tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			s.Income = s.Income.Add(tx.Amount)
		case TypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// CategoryBalances nets income minus expense per primary category for one
// month, sorted by category id. Uncategorized transactions contribute to no
// category.
func CategoryBalances(txs []Transaction, year, month int) []CategoryBalance {
	byCat := make(map[int64]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type == TypeTransfer || tx.CategoryID == nil {
			continue
		}
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		cur := byCat[*tx.CategoryID]
		switch tx.Type {
		case TypeIncome:
			byCat[*tx.CategoryID] = cur.Add(tx.Amount)
		case TypeExpense:
			byCat[*tx.CategoryID] = cur.Sub(tx.Amount)
		}
	}

	out := make([]CategoryBalance, 0, len(byCat))
	for id, bal := range byCat {
		out = append(out, CategoryBalance{CategoryID: id, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

// BudgetProgress evaluates each budget against its month's category net.
// On-track is a single comparison, balance >= target: it covers both savings
// goals (positive target) and deficit ceilings (negative target).
func BudgetProgress(budgets []Budget, txs []Transaction) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		balance := categoryNet(txs, b.CategoryID, b.Month.Year(), b.Month.Month())
		out = append(out, newBudgetStatus(b, balance))
	}
	return out
}

func newBudgetStatus(b Budget, balance decimal.Decimal) BudgetStatus {
	st := BudgetStatus{
		Budget:  b,
		Balance: balance,
		OnTrack: balance.GreaterThanOrEqual(b.Amount),
	}
	// A zero target yields 0%, never a division by zero.
	if !b.Amount.IsZero() {
		st.Percent = balance.Div(b.Amount.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
	}
	st.Width = clampWidth(st.Percent)
	return st
}

func clampWidth(pct decimal.Decimal) int {
	switch {
	case pct.IsNegative():
		return 0
	case pct.GreaterThan(decimal.NewFromInt(100)):
		return 100
	default:
		return int(pct.IntPart())
	}
}

// categoryNet sums income minus expense for one category in one month. A row
// counts when either its category or its subcategory matches.
func categoryNet(txs []Transaction, categoryID int64, year, month int) decimal.Decimal {
	net := decimal.Zero
	for _, tx := range txs {
		if tx.Type == TypeTransfer {
			continue
		}
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		primary := tx.CategoryID != nil && *tx.CategoryID == categoryID
		secondary := tx.SubcategoryID != nil && *tx.SubcategoryID == categoryID
		if !primary && !secondary {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			net = net.Add(tx.Amount)
		case TypeExpense:
			net = net.Sub(tx.Amount)
		}
	}
	return net
}
