// Package services orchestrates ledger operations across the store and the
// message broker, and derives the read models the HTTP layer serves.
package services

import (
	"context"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
)

// EventPublisher pushes ledger change notifications to the snapshot worker.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, transactionID int64, userID, op string) error
}

// LedgerService owns every ledger write. Writes commit to the store first;
// the event published afterwards is best-effort.
type LedgerService struct {
	store  ledger.Store
	events EventPublisher
}

func NewLedgerService(store ledger.Store, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	return s.store.CreateAccount(ctx, a)
}

// DeleteAccount removes the account and its transactions. The cascade
// changes balances, so the worker is notified like any other write.
func (s *LedgerService) DeleteAccount(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return err
	}
	// A cascade touches many rows; transaction id zero marks a bulk change.
	s.publishEvent(ctx, 0, userID, amqp.OpDeleted)
	return nil
}

// CreateTransaction persists the transaction and notifies the worker. A
// transfer comes back as its origin leg with the pair reference set.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, created.ID, created.UserID, amqp.OpCreated)
	return created, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(ctx, id, userID, amqp.OpDeleted)
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	return s.store.CreateCategory(ctx, c)
}

func (s *LedgerService) DeleteCategory(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteCategory(ctx, userID, id)
}

func (s *LedgerService) ListTags(ctx context.Context, userID string) ([]core.Tag, error) {
	return s.store.ListTags(ctx, userID)
}

func (s *LedgerService) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	return s.store.CreateTag(ctx, t)
}

func (s *LedgerService) TagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error {
	return s.store.TagTransaction(ctx, userID, transactionID, tagID)
}

func (s *LedgerService) UntagTransaction(ctx context.Context, userID string, transactionID, tagID int64) error {
	return s.store.UntagTransaction(ctx, userID, transactionID, tagID)
}

func (s *LedgerService) ListBudgets(ctx context.Context, userID string, month core.Date) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID, month)
}

func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return s.store.CreateBudget(ctx, b)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *LedgerService) ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	return s.store.ListRecurring(ctx, userID)
}

func (s *LedgerService) CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	return s.store.CreateRecurring(ctx, r)
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteRecurring(ctx, userID, id)
}

// publishEvent is best-effort: the write already committed, so a dead
// broker must not fail the request.
func (s *LedgerService) publishEvent(ctx context.Context, transactionID int64, userID, op string) {
	if s.events == nil {
		slog.WarnContext(ctx, "Event publisher not configured, skipping ledger event")
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, transactionID, userID, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", transactionID,
			"user_id", userID,
			"op", op,
			"error", err)
	}
}
