// Package core implements the ledger domain: accounts, transactions, tags,
// budgets, and the pure engines that pair transfers, replay balances, and
// aggregate monthly reports.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountBenefit    AccountType = "benefit"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type (
	AccountType     string
	TransactionType string
	Frequency       string

	// Date is a calendar date with no time component. The zero value is
	// treated as "unset" by filters.
	Date struct {
		time.Time
	}

	Account struct {
		ID     int64       `json:"id"`
		UserID string      `json:"user_id"`
		Name   string      `json:"name"`
		Type   AccountType `json:"type"`
		// OpeningBalance is the balance as of account creation, not the
		// current balance. Replay starts from it.
		OpeningBalance decimal.Decimal `json:"opening_balance"`
		Institution    string          `json:"institution,omitempty"`
	}

	// Transaction is one ledger row. Amount is always positive; the sign of
	// its effect is implied by Type. A transfer is stored as two rows linked
	// via TransferPairID, the debit leg inserted first so its ID is the lower
	// of the pair. IDs are assigned by the store in write order and double as
	// the ordering sequence; CreatedAt is display-only.
	Transaction struct {
		ID                   int64           `json:"id"`
		UserID               string          `json:"user_id"`
		AccountID            int64           `json:"account_id"`
		DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
		CategoryID           *int64          `json:"category_id,omitempty"`
		SubcategoryID        *int64          `json:"subcategory_id,omitempty"`
		Description          string          `json:"description"`
		Amount               decimal.Decimal `json:"amount"`
		Type                 TransactionType `json:"type"`
		Date                 Date            `json:"date"`
		CreatedAt            time.Time       `json:"created_at"`
		TransferPairID       *int64          `json:"transfer_pair_id,omitempty"`
		Notes                string          `json:"notes,omitempty"`
	}

	Category struct {
		ID       int64  `json:"id"`
		UserID   string `json:"user_id"`
		Name     string `json:"name"`
		ParentID *int64 `json:"parent_id,omitempty"`
	}

	Tag struct {
		ID     int64  `json:"id"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Color  string `json:"color"`
	}

	TransactionTag struct {
		TransactionID int64 `json:"transaction_id"`
		TagID         int64 `json:"tag_id"`
	}

	// Budget targets a category for one month. Amount is a signed target:
	// positive is a savings goal, negative an allowed deficit ceiling.
	Budget struct {
		ID         int64           `json:"id"`
		UserID     string          `json:"user_id"`
		CategoryID int64           `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Month      Date            `json:"month"`
	}

	// RecurringTransaction is a template the worker materializes into a
	// real transaction each time it comes due. StartDate anchors the target
	// day of month (and the month, for yearly templates). LastApplied stays
	// zero until the first posting.
	RecurringTransaction struct {
		ID                   int64           `json:"id"`
		UserID               string          `json:"user_id"`
		AccountID            int64           `json:"account_id"`
		DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
		CategoryID           *int64          `json:"category_id,omitempty"`
		Description          string          `json:"description"`
		Amount               decimal.Decimal `json:"amount"`
		Type                 TransactionType `json:"type"`
		Frequency            Frequency       `json:"frequency"`
		StartDate            Date            `json:"start_date"`
		LastApplied          time.Time       `json:"last_applied"`
		Active               bool            `json:"active"`
		CreatedAt            time.Time       `json:"created_at"`
	}

	// BalanceSnapshot is the end-of-day balance of one account on one date.
	BalanceSnapshot struct {
		AccountID int64           `json:"account_id"`
		Date      Date            `json:"date"`
		Balance   decimal.Decimal `json:"balance"`
	}
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyDescription      = errors.New("empty description")
	ErrDescriptionTooLong    = errors.New("description too long (max 200 characters)")
	ErrEmptyName             = errors.New("empty name")
	ErrNameTooLong           = errors.New("name too long (max 100 characters)")
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrMissingDestination    = errors.New("transfer requires a destination account")
	ErrUnexpectedDestination = errors.New("destination account set on non-transfer")
	ErrSameAccount           = errors.New("transfer source and destination are the same account")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidMonth          = errors.New("month must be the first day of a month")
	ErrMissingCategory       = errors.New("budget requires a category")
	ErrInvalidFrequency      = errors.New("invalid frequency")
)

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MonthOf returns the first day of d's month.
func MonthOf(d Date) Date {
	return NewDate(d.Time.Year(), int(d.Time.Month()), 1)
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t AccountType) Validate() error {
	switch t {
	case AccountChecking, AccountSavings, AccountInvestment, AccountBenefit:
		return nil
	default:
		return ErrInvalidAccountType
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return ErrNameTooLong
	}
	if err := a.Type.Validate(); err != nil {
		return err
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(tx.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	switch tx.Type {
	case TypeTransfer:
		if tx.DestinationAccountID == nil {
			return ErrMissingDestination
		}
		if *tx.DestinationAccountID == tx.AccountID {
			return ErrSameAccount
		}
	default:
		if tx.DestinationAccountID != nil {
			return ErrUnexpectedDestination
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return ErrMissingCategory
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if b.Month.Day() != 1 {
		return ErrInvalidMonth
	}
	if b.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// Template materializes the concrete transaction this recurrence posts on
// the given date.
func (r RecurringTransaction) Template(date Date) Transaction {
	tx := Transaction{
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		Date:        date,
	}
	if r.Type == TypeTransfer && r.DestinationAccountID != nil {
		dest := *r.DestinationAccountID
		tx.DestinationAccountID = &dest
	}
	return tx
}

func (r RecurringTransaction) Validate() error {
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return err
	}
	return r.Template(r.StartDate).Validate()
}

// NewIncome builds an income transaction crediting the given account.
func NewIncome(userID string, accountID int64, description string, amount decimal.Decimal, date Date) Transaction {
	return Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Description: description,
		Amount:      amount,
		Type:        TypeIncome,
		Date:        date,
	}
}

// NewExpense builds an expense transaction debiting the given account.
func NewExpense(userID string, accountID int64, description string, amount decimal.Decimal, date Date) Transaction {
	return Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Description: description,
		Amount:      amount,
		Type:        TypeExpense,
		Date:        date,
	}
}

// NewTransfer builds the origin leg of a transfer moving amount from one
// account to another. The store materializes the mirrored credit leg.
func NewTransfer(userID string, fromAccountID, toAccountID int64, description string, amount decimal.Decimal, date Date) Transaction {
	dest := toAccountID
	return Transaction{
		UserID:               userID,
		AccountID:            fromAccountID,
		DestinationAccountID: &dest,
		Description:          description,
		Amount:               amount,
		Type:                 TypeTransfer,
		Date:                 date,
	}
}
