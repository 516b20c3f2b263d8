// Package memory holds an in-memory ledger store used by tests and the
// default development backend. Ids are handed out from a single counter in
// write order, so the transfer leg ordering matches the SQLite backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	accounts  []core.Account
	txs       []core.Transaction
	cats      []core.Category
	tags      []core.Tag
	txTags    []core.TransactionTag
	budgets   []core.Budget
	recurring []core.RecurringTransaction
	snapshots map[string][]core.BalanceSnapshot
}

func New() *Store {
	return &Store{snapshots: make(map[string][]core.BalanceSnapshot)}
}

// Seed installs a small default category set for the given user so a fresh
// backend is usable without any setup.
func (s *Store) Seed(userID string) {
	for _, name := range []string{"Salary", "Groceries", "Rent", "Transport", "Leisure"} {
		_, _ = s.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name})
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.UserID != userID {
			continue
		}
		if !f.MatchesDate(tx.Date) || !f.MatchesAccount(tx.AccountID) || !f.MatchesCategory(tx) {
			continue
		}
		out = append(out, tx)
	}
	return core.SortChronological(out), nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListTags(_ context.Context, userID string) ([]core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) ListTransactionTags(_ context.Context, userID string) ([]core.TransactionTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make(map[int64]bool)
	for _, tx := range s.txs {
		if tx.UserID == userID {
			owned[tx.ID] = true
		}
	}
	out := make([]core.TransactionTag, 0, len(s.txTags))
	for _, tt := range s.txTags {
		if owned[tt.TransactionID] {
			out = append(out, tt)
		}
	}
	return out, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string, month core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		if !month.IsZero() && !b.Month.Equal(month) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) ListRecurring(_ context.Context, userID string) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringTransaction, 0, len(s.recurring))
	for _, r := range s.recurring {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListActiveRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringTransaction, 0, len(s.recurring))
	for _, r := range s.recurring {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, tx := range s.txs {
		if !seen[tx.UserID] {
			seen[tx.UserID] = true
			out = append(out, tx.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ledger.ErrNotFound
	}
	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)

	// Cascade to the account's transactions; clear dangling destination
	// references so the surviving leg degrades to an orphan.
	kept := s.txs[:0]
	for _, tx := range s.txs {
		if tx.AccountID == id {
			continue
		}
		if tx.DestinationAccountID != nil && *tx.DestinationAccountID == id {
			tx.DestinationAccountID = nil
		}
		kept = append(kept, tx)
	}
	s.txs = kept

	keptRec := s.recurring[:0]
	for _, r := range s.recurring {
		if r.AccountID == id {
			continue
		}
		if r.DestinationAccountID != nil && *r.DestinationAccountID == id {
			r.DestinationAccountID = nil
		}
		keptRec = append(keptRec, r)
	}
	s.recurring = keptRec
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	tx.ID = s.id()
	tx.CreatedAt = now

	if tx.Type == core.TypeTransfer {
		credit := tx
		credit.ID = s.id()
		credit.AccountID = *tx.DestinationAccountID
		dest := tx.AccountID
		credit.DestinationAccountID = &dest
		pair := credit.ID
		tx.TransferPairID = &pair
		backref := tx.ID
		credit.TransferPairID = &backref
		s.txs = append(s.txs, tx, credit)
		return tx, nil
	}

	tx.TransferPairID = nil
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *core.Transaction
	for i := range s.txs {
		if s.txs[i].ID == id && s.txs[i].UserID == userID {
			target = &s.txs[i]
			break
		}
	}
	if target == nil {
		return ledger.ErrNotFound
	}

	drop := map[int64]bool{id: true}
	if target.TransferPairID != nil {
		drop[*target.TransferPairID] = true
	}

	kept := s.txs[:0]
	for _, tx := range s.txs {
		if drop[tx.ID] {
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept

	keptTags := s.txTags[:0]
	for _, tt := range s.txTags {
		if drop[tt.TransactionID] {
			continue
		}
		keptTags = append(keptTags, tt)
	}
	s.txTags = keptTags
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.cats {
		if c.ID == id && c.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ledger.ErrNotFound
	}
	s.cats = append(s.cats[:idx], s.cats[idx+1:]...)

	for i := range s.txs {
		if s.txs[i].CategoryID != nil && *s.txs[i].CategoryID == id {
			s.txs[i].CategoryID = nil
		}
		if s.txs[i].SubcategoryID != nil && *s.txs[i].SubcategoryID == id {
			s.txs[i].SubcategoryID = nil
		}
	}
	for i := range s.recurring {
		if s.recurring[i].CategoryID != nil && *s.recurring[i].CategoryID == id {
			s.recurring[i].CategoryID = nil
		}
	}
	keptBudgets := s.budgets[:0]
	for _, b := range s.budgets {
		if b.CategoryID == id {
			continue
		}
		keptBudgets = append(keptBudgets, b)
	}
	s.budgets = keptBudgets
	return nil
}

func (s *Store) CreateTag(_ context.Context, t core.Tag) (core.Tag, error) {
	if err := t.Validate(); err != nil {
		return core.Tag{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tags = append(s.tags, t)
	return t, nil
}

func (s *Store) TagTransaction(_ context.Context, userID string, transactionID, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsTransaction(userID, transactionID) || !s.ownsTag(userID, tagID) {
		return ledger.ErrNotFound
	}
	for _, tt := range s.txTags {
		if tt.TransactionID == transactionID && tt.TagID == tagID {
			return nil
		}
	}
	s.txTags = append(s.txTags, core.TransactionTag{TransactionID: transactionID, TagID: tagID})
	return nil
}

func (s *Store) UntagTransaction(_ context.Context, userID string, transactionID, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsTransaction(userID, transactionID) {
		return ledger.ErrNotFound
	}
	for i, tt := range s.txTags {
		if tt.TransactionID == transactionID && tt.TagID == tagID {
			s.txTags = append(s.txTags[:i], s.txTags[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) CreateRecurring(_ context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = time.Now().UTC()
	s.recurring = append(s.recurring, r)
	return r, nil
}

func (s *Store) DeleteRecurring(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.recurring {
		if r.ID == id && r.UserID == userID {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) MarkRecurringApplied(_ context.Context, userID string, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id && s.recurring[i].UserID == userID {
			s.recurring[i].LastApplied = at
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) ReplaceSnapshots(_ context.Context, userID string, snaps []core.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = append([]core.BalanceSnapshot(nil), snaps...)
	return nil
}

func (s *Store) ListSnapshots(_ context.Context, userID string, f core.Filter) ([]core.BalanceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterSnapshots(s.snapshots[userID], f), nil
}

func (s *Store) ownsTransaction(userID string, id int64) bool {
	for _, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Store) ownsTag(userID string, id int64) bool {
	for _, t := range s.tags {
		if t.ID == id && t.UserID == userID {
			return true
		}
	}
	return false
}
