package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
)

// RecurringProcessor posts due recurring templates as real transactions.
// Posting goes through the ledger service so the worker hears about the new
// rows like any other write.
type RecurringProcessor struct {
	store         ledger.Store
	ledgerService *LedgerService
}

func NewRecurringProcessor(store ledger.Store, ledgerService *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		store:         store,
		ledgerService: ledgerService,
	}
}

// ProcessDue posts every active template due at now and returns how many
// posted. A failing template is logged and skipped so one bad row cannot
// stall the sweep.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.ledgerService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", now.Format(core.DateLayout))

	posted := 0
	for _, rec := range templates {
		checker, err := GetDuenessChecker(rec.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring transaction",
				"id", rec.ID,
				"error", err)
			continue
		}
		if !checker.IsDue(rec.LastApplied, now, rec.StartDate) {
			continue
		}

		date := core.NewDate(now.Year(), int(now.Month()), now.Day())
		if _, err := p.ledgerService.CreateTransaction(ctx, rec.Template(date)); err != nil {
			slog.ErrorContext(ctx, "Failed to post recurring transaction",
				"id", rec.ID,
				"description", rec.Description,
				"error", err)
			continue
		}

		if err := p.store.MarkRecurringApplied(ctx, rec.UserID, rec.ID, now); err != nil {
			// Posting went through; continue and let the next sweep retry the mark.
			slog.ErrorContext(ctx, "Failed to mark recurring transaction applied",
				"id", rec.ID,
				"error", err)
		}

		posted++
		slog.InfoContext(ctx, "Posted recurring transaction",
			"id", rec.ID,
			"description", rec.Description,
			"amount", rec.Amount.String(),
			"frequency", rec.Frequency)
	}

	slog.InfoContext(ctx, "Recurring transaction sweep complete",
		"posted", posted,
		"total_checked", len(templates))

	return posted, nil
}
