package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/ledger/memory"
)

type publishedEvent struct {
	transactionID int64
	userID        string
	op            string
}

// recordingPublisher captures events instead of talking to a broker.
type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, transactionID int64, userID, op string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{transactionID, userID, op})
	return nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func newServiceFixture(t *testing.T) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	return NewLedgerService(store, pub), store, pub
}

func mustCreateAccount(t *testing.T, svc *LedgerService, userID, name, opening string) core.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), core.Account{
		UserID:         userID,
		Name:           name,
		Type:           core.AccountChecking,
		OpeningBalance: dec(t, opening),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func TestLedgerService_CreateTransactionPublishesEvent(t *testing.T) {
	svc, _, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	tx, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Salary", dec(t, "500"), core.NewDate(2025, 1, 10)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	want := publishedEvent{tx.ID, "u1", amqp.OpCreated}
	if pub.events[0] != want {
		t.Errorf("got event %+v, want %+v", pub.events[0], want)
	}
}

func TestLedgerService_CreateTransferReturnsOriginLeg(t *testing.T) {
	svc, _, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "1000")
	b := mustCreateAccount(t, svc, "u1", "Savings", "0")

	tx, err := svc.CreateTransaction(ctx, core.NewTransfer("u1", a.ID, b.ID, "To savings", dec(t, "200"), core.NewDate(2025, 1, 15)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if tx.AccountID != a.ID {
		t.Errorf("origin leg account = %d, want %d", tx.AccountID, a.ID)
	}
	if tx.DestinationAccountID == nil || *tx.DestinationAccountID != b.ID {
		t.Errorf("origin leg destination = %v, want %d", tx.DestinationAccountID, b.ID)
	}
	if tx.TransferPairID == nil {
		t.Fatal("origin leg has no pair reference")
	}
	if *tx.TransferPairID <= tx.ID {
		t.Errorf("credit leg id %d not greater than origin id %d", *tx.TransferPairID, tx.ID)
	}
	if len(pub.events) != 1 {
		t.Errorf("got %d events, want 1 (origin leg only)", len(pub.events))
	}
}

func TestLedgerService_DeleteTransactionPublishesEvent(t *testing.T) {
	svc, _, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")
	tx, err := svc.CreateTransaction(ctx, core.NewExpense("u1", a.ID, "Coffee", dec(t, "3.50"), core.NewDate(2025, 1, 10)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	pub.events = nil

	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	want := publishedEvent{tx.ID, "u1", amqp.OpDeleted}
	if pub.events[0] != want {
		t.Errorf("got event %+v, want %+v", pub.events[0], want)
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, store, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")
	pub.err = errors.New("broker down")

	if _, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Salary", dec(t, "500"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("CreateTransaction() error = %v, want nil despite publish failure", err)
	}

	txs, err := store.ListTransactions(ctx, "u1", core.Filter{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("got %d transactions, want 1", len(txs))
	}
}

func TestLedgerService_NilPublisherTolerated(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store, nil)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	if _, err := svc.CreateTransaction(ctx, core.NewExpense("u1", a.ID, "Coffee", dec(t, "3.50"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
}

func TestLedgerService_InvalidTransactionRejected(t *testing.T) {
	svc, _, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	_, err := svc.CreateTransaction(ctx, core.NewIncome("u1", a.ID, "Zero", decimal.Zero, core.NewDate(2025, 1, 10)))
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("got error %v, want ErrInvalidAmount", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("got %d events, want 0 for rejected write", len(pub.events))
	}
}

func TestLedgerService_DeleteAccountPublishesBulkEvent(t *testing.T) {
	svc, _, pub := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")
	if _, err := svc.CreateTransaction(ctx, core.NewExpense("u1", a.ID, "Coffee", dec(t, "3.50"), core.NewDate(2025, 1, 10))); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	pub.events = nil

	if err := svc.DeleteAccount(ctx, "u1", a.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	if pub.events[0].transactionID != 0 || pub.events[0].op != amqp.OpDeleted {
		t.Errorf("got event %+v, want bulk delete with transaction id 0", pub.events[0])
	}
}

func TestLedgerService_DeleteMissingTransaction(t *testing.T) {
	svc, _, pub := newServiceFixture(t)

	err := svc.DeleteTransaction(context.Background(), "u1", 999)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("got %d events, want 0 for failed delete", len(pub.events))
	}
}

func TestLedgerService_RecurringLifecycle(t *testing.T) {
	svc, _, _ := newServiceFixture(t)
	ctx := context.Background()
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	rec, err := svc.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:      "u1",
		AccountID:   a.ID,
		Description: "Rent",
		Amount:      dec(t, "900"),
		Type:        core.TypeExpense,
		Frequency:   core.FrequencyMonthly,
		StartDate:   core.NewDate(2025, 1, 1),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	list, err := svc.ListRecurring(ctx, "u1")
	if err != nil {
		t.Fatalf("ListRecurring() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("got %d templates, want the created one", len(list))
	}

	if err := svc.DeleteRecurring(ctx, "u1", rec.ID); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}
	list, err = svc.ListRecurring(ctx, "u1")
	if err != nil {
		t.Fatalf("ListRecurring() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d templates after delete, want 0", len(list))
	}
}

func TestLedgerService_RecurringInvalidFrequency(t *testing.T) {
	svc, _, _ := newServiceFixture(t)
	a := mustCreateAccount(t, svc, "u1", "Checking", "100")

	_, err := svc.CreateRecurring(context.Background(), core.RecurringTransaction{
		UserID:      "u1",
		AccountID:   a.ID,
		Description: "Rent",
		Amount:      dec(t, "900"),
		Type:        core.TypeExpense,
		Frequency:   core.Frequency("fortnightly"),
		StartDate:   core.NewDate(2025, 1, 1),
		Active:      true,
	})
	if !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("got error %v, want ErrInvalidFrequency", err)
	}
}
