package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"conti/internal/core"
	"conti/internal/ledger"
)

// SQLiteRepository implements the ledger store over a local SQLite file.
// Transaction ids come from the AUTOINCREMENT primary key, so insertion
// order is the ordering sequence the replay and pairing logic depend on.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys drive the cascade and set-null behavior the schema
	// declares; sqlite leaves them off unless asked, per connection.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, opening_balance, institution
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var opening string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &opening, &a.Institution); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
			return nil, fmt.Errorf("parse opening balance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, opening_balance, institution, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.OpeningBalance.String(), a.Institution,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

const transactionColumns = `id, user_id, account_id, destination_account_id, category_id,
	subcategory_id, description, amount, type, date, created_at, transfer_pair_id, notes`

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.To.String())
	}
	if len(f.AccountIDs) > 0 {
		query += ` AND account_id IN (` + placeholders(len(f.AccountIDs)) + `)`
		for _, id := range f.AccountIDs {
			args = append(args, id)
		}
	}
	if len(f.CategoryIDs) > 0 {
		ph := placeholders(len(f.CategoryIDs))
		query += ` AND (category_id IN (` + ph + `) OR subcategory_id IN (` + ph + `))`
		for i := 0; i < 2; i++ {
			for _, id := range f.CategoryIDs {
				args = append(args, id)
			}
		}
	}
	query += ` ORDER BY date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.TransferPairID = nil

	tx.ID, err = insertTransaction(ctx, dbTx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	if tx.Type == core.TypeTransfer {
		// The mirrored credit leg goes in second, inside the same store
		// transaction, so its id is strictly greater than the debit leg's.
		credit := tx
		credit.AccountID = *tx.DestinationAccountID
		dest := tx.AccountID
		credit.DestinationAccountID = &dest
		pair := tx.ID
		credit.TransferPairID = &pair

		creditID, err := insertTransaction(ctx, dbTx, credit)
		if err != nil {
			return core.Transaction{}, err
		}
		if _, err := dbTx.ExecContext(ctx,
			`UPDATE transactions SET transfer_pair_id = ? WHERE id = ?`, creditID, tx.ID); err != nil {
			return core.Transaction{}, fmt.Errorf("backfill transfer pair: %w", err)
		}
		tx.TransferPairID = &creditID
	}

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"date", tx.Date.String())
	return tx, nil
}

func insertTransaction(ctx context.Context, dbTx *sql.Tx, tx core.Transaction) (int64, error) {
	res, err := dbTx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, account_id, destination_account_id, category_id,
		 subcategory_id, description, amount, type, date, created_at, transfer_pair_id, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.AccountID, nullInt(tx.DestinationAccountID), nullInt(tx.CategoryID),
		nullInt(tx.SubcategoryID), tx.Description, tx.Amount.String(), tx.Type,
		tx.Date.String(), tx.CreatedAt.Format(time.RFC3339), nullInt(tx.TransferPairID), tx.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var pair sql.NullInt64
	err = dbTx.QueryRowContext(ctx,
		`SELECT transfer_pair_id FROM transactions WHERE id = ? AND user_id = ?`, id, userID).Scan(&pair)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	// Either leg takes its pair with it.
	ids := []any{id}
	query := `DELETE FROM transactions WHERE user_id = ? AND id IN (?`
	if pair.Valid {
		query += `, ?`
		ids = append(ids, pair.Int64)
	}
	query += `)`
	args := append([]any{userID}, ids...)
	if _, err := dbTx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID, "paired", pair.Valid)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, parent_id FROM categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ParentID = ptrInt(parent)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, parent_id) VALUES (?, ?, ?)`,
		c.UserID, c.Name, nullInt(c.ParentID))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, userID string) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	if err := t.Validate(); err != nil {
		return core.Tag{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, color) VALUES (?, ?, ?)`, t.UserID, t.Name, t.Color)
	if err != nil {
		return core.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Tag{}, fmt.Errorf("tag id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactionTags(ctx context.Context, userID string) ([]core.TransactionTag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tt.transaction_id, tt.tag_id
		 FROM transaction_tags tt
		 JOIN transactions t ON t.id = tt.transaction_id
		 WHERE t.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transaction tags: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionTag
	for rows.Next() {
		var tt core.TransactionTag
		if err := rows.Scan(&tt.TransactionID, &tt.TagID); err != nil {
			return nil, fmt.Errorf("scan transaction tag: %w", err)
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) TagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error {
	if err := r.checkOwnership(ctx, userID, transactionID, tagID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
		transactionID, tagID); err != nil {
		return fmt.Errorf("tag transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UntagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transaction_tags
		 WHERE transaction_id = ? AND tag_id = ?
		   AND EXISTS (SELECT 1 FROM transactions t WHERE t.id = ? AND t.user_id = ?)`,
		transactionID, tagID, transactionID, userID)
	if err != nil {
		return fmt.Errorf("untag transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("untag transaction: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) checkOwnership(ctx context.Context, userID string, transactionID, tagID int64) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM transactions WHERE id = ? AND user_id = ?)
		      + (SELECT COUNT(*) FROM tags WHERE id = ? AND user_id = ?)`,
		transactionID, userID, tagID, userID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if n != 2 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, month core.Date) ([]core.Budget, error) {
	query := `SELECT id, user_id, category_id, amount, month FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if !month.IsZero() {
		query += ` AND month = ?`
		args = append(args, month.String())
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var amount, monthStr string
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &monthStr); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse budget amount: %w", err)
		}
		if b.Month, err = core.ParseDate(monthStr); err != nil {
			return nil, fmt.Errorf("parse budget month: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, month) VALUES (?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.String(), b.Month.String())
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

const recurringColumns = `id, user_id, account_id, destination_account_id, category_id,
	description, amount, type, frequency, start_date, last_applied_at, active, created_at`

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rec.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	rec.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (user_id, account_id, destination_account_id, category_id,
		 description, amount, type, frequency, start_date, last_applied_at, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.AccountID, nullInt(rec.DestinationAccountID), nullInt(rec.CategoryID),
		rec.Description, rec.Amount.String(), rec.Type, rec.Frequency, rec.StartDate.String(),
		nullTime(rec.LastApplied), rec.Active, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring transaction id: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkRecurringApplied(ctx context.Context, userID string, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_applied_at = ? WHERE id = ? AND user_id = ?`,
		at.UTC().Format(time.RFC3339), id, userID)
	if err != nil {
		return fmt.Errorf("mark recurring applied: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark recurring applied: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReplaceSnapshots(ctx context.Context, userID string, snaps []core.BalanceSnapshot) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM balance_snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	for _, s := range snaps {
		if _, err := dbTx.ExecContext(ctx,
			`INSERT INTO balance_snapshots (user_id, account_id, date, balance) VALUES (?, ?, ?, ?)`,
			userID, s.AccountID, s.Date.String(), s.Balance.String()); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot replace: %w", err)
	}

	slog.InfoContext(ctx, "Balance snapshots replaced", "user_id", userID, "count", len(snaps))
	return nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context, userID string, f core.Filter) ([]core.BalanceSnapshot, error) {
	query := `SELECT account_id, date, balance FROM balance_snapshots WHERE user_id = ?`
	args := []any{userID}
	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.To.String())
	}
	if len(f.AccountIDs) > 0 {
		query += ` AND account_id IN (` + placeholders(len(f.AccountIDs)) + `)`
		for _, id := range f.AccountIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY date, account_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.BalanceSnapshot
	for rows.Next() {
		var s core.BalanceSnapshot
		var date, balance string
		if err := rows.Scan(&s.AccountID, &date, &balance); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if s.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse snapshot date: %w", err)
		}
		if s.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse snapshot balance: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var tx core.Transaction
	var dest, cat, subcat, pair sql.NullInt64
	var amount, date, createdAt string
	if err := rows.Scan(&tx.ID, &tx.UserID, &tx.AccountID, &dest, &cat, &subcat,
		&tx.Description, &amount, &tx.Type, &date, &createdAt, &pair, &tx.Notes); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	if tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	tx.DestinationAccountID = ptrInt(dest)
	tx.CategoryID = ptrInt(cat)
	tx.SubcategoryID = ptrInt(subcat)
	tx.TransferPairID = ptrInt(pair)
	return tx, nil
}

func scanRecurring(rows *sql.Rows) (core.RecurringTransaction, error) {
	var rec core.RecurringTransaction
	var dest, cat sql.NullInt64
	var amount, start, createdAt string
	var lastApplied sql.NullString
	if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AccountID, &dest, &cat,
		&rec.Description, &amount, &rec.Type, &rec.Frequency, &start, &lastApplied,
		&rec.Active, &createdAt); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("scan recurring transaction: %w", err)
	}

	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if rec.StartDate, err = core.ParseDate(start); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse start date: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if lastApplied.Valid {
		if rec.LastApplied, err = time.Parse(time.RFC3339, lastApplied.String); err != nil {
			return core.RecurringTransaction{}, fmt.Errorf("parse last_applied_at: %w", err)
		}
	}
	rec.DestinationAccountID = ptrInt(dest)
	rec.CategoryID = ptrInt(cat)
	return rec, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func ptrInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
