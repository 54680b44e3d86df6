package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/engine"
)

// RecurringProcessor materializes due recurring schedules into real
// transactions and advances their next occurrence.
type RecurringProcessor struct {
	schedules    ScheduleStore
	transactions *TransactionService
}

func NewRecurringProcessor(schedules ScheduleStore, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		schedules:    schedules,
		transactions: transactions,
	}
}

// ProcessDue creates one transaction per schedule occurrence due on or
// before asOf. A schedule several periods behind (downtime, clock skew)
// catches up one occurrence per due date, each dated at its own occurrence.
// Lapsed schedules are deactivated instead of firing.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	if p.schedules == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	due, err := p.schedules.ListDueSchedules(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due schedules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring schedules",
		"due", len(due),
		"as_of", asOf.String())

	processed := 0
	for _, sched := range due {
		n, err := p.processSchedule(ctx, sched, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process schedule",
				"id", sched.ID,
				"description", sched.Description,
				"error", err)
			continue
		}
		processed += n
	}

	slog.InfoContext(ctx, "Recurring schedule processing complete",
		"processed", processed,
		"due", len(due))

	return processed, nil
}

func (p *RecurringProcessor) processSchedule(ctx context.Context, sched core.RecurringSchedule, asOf core.Date) (int, error) {
	created := 0
	occurrence := sched.NextOccurrence

	for !occurrence.IsEmpty() && !occurrence.After(asOf.Time) {
		if !sched.EndDate.IsEmpty() && occurrence.After(sched.EndDate.Time) {
			if err := p.schedules.DeactivateSchedule(ctx, sched.ID); err != nil {
				return created, fmt.Errorf("deactivate lapsed schedule: %w", err)
			}
			return created, nil
		}

		tx := core.Transaction{
			OwnerID:     sched.OwnerID,
			Amount:      sched.Amount,
			Kind:        sched.Kind,
			CategoryID:  sched.CategoryID,
			Description: sched.Description,
			Date:        occurrence,
		}
		saved, err := p.transactions.Create(ctx, tx)
		if err != nil {
			return created, fmt.Errorf("create transaction: %w", err)
		}
		created++

		next, ok := engine.NextAfter(occurrence, sched.Frequency)
		if !ok {
			return created, fmt.Errorf("unknown frequency %q", sched.Frequency)
		}
		if err := p.schedules.AdvanceSchedule(ctx, sched.ID, next); err != nil {
			return created, fmt.Errorf("advance schedule: %w", err)
		}

		slog.InfoContext(ctx, "Created transaction from schedule",
			"schedule_id", sched.ID,
			"transaction_id", saved.ID,
			"occurrence", occurrence.String(),
			"next", next.String(),
			"frequency", sched.Frequency)

		occurrence = next
	}

	// Nothing left before the end date means the schedule has run out
	if !sched.EndDate.IsEmpty() && occurrence.After(sched.EndDate.Time) {
		if err := p.schedules.DeactivateSchedule(ctx, sched.ID); err != nil {
			return created, fmt.Errorf("deactivate finished schedule: %w", err)
		}
	}

	return created, nil
}
