package services

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func monthlySchedule(next core.Date) core.RecurringSchedule {
	return core.RecurringSchedule{
		ID:             "sched-1",
		OwnerID:        "user-1",
		Amount:         core.Money{Cents: 80000},
		Description:    "Affitto",
		CategoryID:     "cat-casa",
		Kind:           core.Expense,
		Frequency:      core.Monthly,
		StartDate:      next,
		NextOccurrence: next,
		Active:         true,
	}
}

func newProcessor(store *fakeStore) *RecurringProcessor {
	return NewRecurringProcessor(store, NewTransactionService(store, nil))
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	t.Run("due schedule fires once and advances", func(t *testing.T) {
		store := newFakeStore()
		store.schedules["sched-1"] = monthlySchedule(core.NewDate(2026, 8, 1))
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 8, 1))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 1 {
			t.Fatalf("processed = %d, want 1", n)
		}

		txs, _ := store.ListTransactions(context.Background(), "user-1", core.Date{}, core.Date{})
		if len(txs) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(txs))
		}
		if got := txs[0].Date.String(); got != "2026-08-01" {
			t.Errorf("transaction date = %s, want 2026-08-01", got)
		}

		sched := store.schedules["sched-1"]
		if got := sched.NextOccurrence.String(); got != "2026-09-01" {
			t.Errorf("next occurrence = %s, want 2026-09-01", got)
		}
	})

	t.Run("schedule behind by two periods catches up", func(t *testing.T) {
		store := newFakeStore()
		store.schedules["sched-1"] = monthlySchedule(core.NewDate(2026, 6, 15))
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 7, 20))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 2 {
			t.Fatalf("processed = %d, want 2", n)
		}

		txs, _ := store.ListTransactions(context.Background(), "user-1", core.Date{}, core.Date{})
		dates := map[string]bool{}
		for _, tx := range txs {
			dates[tx.Date.String()] = true
		}
		if !dates["2026-06-15"] || !dates["2026-07-15"] {
			t.Errorf("catch-up should date each occurrence on its own day, got %v", dates)
		}

		sched := store.schedules["sched-1"]
		if got := sched.NextOccurrence.String(); got != "2026-08-15" {
			t.Errorf("next occurrence = %s, want 2026-08-15", got)
		}
	})

	t.Run("month-end anchor clamps and drifts", func(t *testing.T) {
		store := newFakeStore()
		store.schedules["sched-1"] = monthlySchedule(core.NewDate(2024, 1, 31))
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2024, 3, 1))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 2 {
			t.Fatalf("processed = %d, want 2", n)
		}

		sched := store.schedules["sched-1"]
		if got := sched.NextOccurrence.String(); got != "2024-03-29" {
			t.Errorf("next occurrence = %s, want 2024-03-29", got)
		}
	})

	t.Run("lapsed schedule is deactivated without firing", func(t *testing.T) {
		store := newFakeStore()
		sched := monthlySchedule(core.NewDate(2026, 5, 1))
		sched.StartDate = core.NewDate(2026, 1, 1)
		sched.EndDate = core.NewDate(2026, 4, 30)
		store.schedules["sched-1"] = sched
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 8, 1))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 0 {
			t.Errorf("processed = %d, want 0", n)
		}
		if store.schedules["sched-1"].Active {
			t.Error("lapsed schedule should be deactivated")
		}

		txs, _ := store.ListTransactions(context.Background(), "user-1", core.Date{}, core.Date{})
		if len(txs) != 0 {
			t.Errorf("lapsed schedule must not create transactions, got %d", len(txs))
		}
	})

	t.Run("inactive schedules are skipped", func(t *testing.T) {
		store := newFakeStore()
		sched := monthlySchedule(core.NewDate(2026, 8, 1))
		sched.Active = false
		store.schedules["sched-1"] = sched
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 8, 1))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 0 {
			t.Errorf("processed = %d, want 0", n)
		}
	})

	t.Run("nothing due", func(t *testing.T) {
		store := newFakeStore()
		store.schedules["sched-1"] = monthlySchedule(core.NewDate(2026, 9, 1))
		proc := newProcessor(store)

		n, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 8, 1))
		if err != nil {
			t.Fatalf("ProcessDue() error = %v", err)
		}
		if n != 0 {
			t.Errorf("processed = %d, want 0", n)
		}
	})

	t.Run("uninitialized processor", func(t *testing.T) {
		proc := NewRecurringProcessor(nil, nil)
		if _, err := proc.ProcessDue(context.Background(), core.NewDate(2026, 8, 1)); err == nil {
			t.Error("ProcessDue() should fail when not initialized")
		}
	})
}
