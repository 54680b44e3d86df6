package services

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func validSchedule() core.RecurringSchedule {
	return core.RecurringSchedule{
		OwnerID:     "user-1",
		Amount:      core.Money{Cents: 80000},
		Description: "Affitto",
		CategoryID:  "cat-casa",
		Kind:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2026, 9, 1),
		Active:      true,
	}
}

func TestScheduleService_Create(t *testing.T) {
	t.Run("next occurrence defaults to start date", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		saved, err := svc.Create(context.Background(), validSchedule())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got := saved.NextOccurrence.String(); got != "2026-09-01" {
			t.Errorf("next occurrence = %s, want start date 2026-09-01", got)
		}
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		sched := validSchedule()
		sched.CategoryID = "cat-inesistente"

		_, err := svc.Create(context.Background(), sched)
		var verr *core.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		sched := validSchedule()
		sched.EndDate = core.NewDate(2026, 8, 1)

		if _, err := svc.Create(context.Background(), sched); err == nil {
			t.Error("Create() should reject end date before start date")
		}
	})
}

func TestScheduleService_Update(t *testing.T) {
	t.Run("edit preserves the recurrence cursor", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		saved, err := svc.Create(context.Background(), validSchedule())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		// The worker has advanced the schedule past a few occurrences.
		if err := store.AdvanceSchedule(context.Background(), saved.ID, core.NewDate(2027, 2, 1)); err != nil {
			t.Fatalf("AdvanceSchedule() error = %v", err)
		}

		edited := saved
		edited.Description = "Affitto nuovo contratto"
		edited.NextOccurrence = core.Date{}

		updated, err := svc.Update(context.Background(), edited)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got := updated.NextOccurrence.String(); got != "2027-02-01" {
			t.Errorf("next occurrence = %s, want 2027-02-01 preserved", got)
		}
		if got := store.schedules[saved.ID].NextOccurrence.String(); got != "2027-02-01" {
			t.Errorf("stored next occurrence = %s, edit must not rewind it", got)
		}
	})

	t.Run("cursor sent by the client is ignored", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		saved, err := svc.Create(context.Background(), validSchedule())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.AdvanceSchedule(context.Background(), saved.ID, core.NewDate(2027, 2, 1)); err != nil {
			t.Fatalf("AdvanceSchedule() error = %v", err)
		}

		edited := saved
		edited.NextOccurrence = core.NewDate(2026, 9, 1)

		if _, err := svc.Update(context.Background(), edited); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got := store.schedules[saved.ID].NextOccurrence.String(); got != "2027-02-01" {
			t.Errorf("stored next occurrence = %s, client must not rewind the cursor", got)
		}
	})

	t.Run("cadence change restarts the cursor", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		saved, err := svc.Create(context.Background(), validSchedule())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.AdvanceSchedule(context.Background(), saved.ID, core.NewDate(2027, 2, 1)); err != nil {
			t.Fatalf("AdvanceSchedule() error = %v", err)
		}

		edited := saved
		edited.StartDate = core.NewDate(2027, 3, 1)
		edited.NextOccurrence = core.Date{}

		updated, err := svc.Update(context.Background(), edited)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got := updated.NextOccurrence.String(); got != "2027-03-01" {
			t.Errorf("next occurrence = %s, want restart at new start 2027-03-01", got)
		}
	})

	t.Run("end date shortened past the cursor is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		saved, err := svc.Create(context.Background(), validSchedule())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.AdvanceSchedule(context.Background(), saved.ID, core.NewDate(2027, 2, 1)); err != nil {
			t.Fatalf("AdvanceSchedule() error = %v", err)
		}

		edited := saved
		edited.EndDate = core.NewDate(2026, 12, 31)
		edited.NextOccurrence = core.Date{}

		if _, err := svc.Update(context.Background(), edited); err == nil {
			t.Error("Update() should reject an end date behind the active cursor")
		}
	})

	t.Run("missing schedule", func(t *testing.T) {
		store := newFakeStore()
		svc := NewScheduleService(store, store)

		sched := validSchedule()
		sched.ID = "sched-missing"
		if _, err := svc.Update(context.Background(), sched); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update() error = %v, want storage.ErrNotFound", err)
		}
	})
}

func TestScheduleService_ProjectNext(t *testing.T) {
	store := newFakeStore()
	svc := NewScheduleService(store, store)

	saved, err := svc.Create(context.Background(), validSchedule())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("projection advances without persisting", func(t *testing.T) {
		next, ok, err := svc.ProjectNext(context.Background(), "user-1", saved.ID, core.NewDate(2026, 10, 15))
		if err != nil {
			t.Fatalf("ProjectNext() error = %v", err)
		}
		if !ok {
			t.Fatal("ProjectNext() ok = false, want true")
		}
		if got := next.String(); got != "2026-11-01" {
			t.Errorf("next = %s, want 2026-11-01", got)
		}

		stored := store.schedules[saved.ID]
		if got := stored.NextOccurrence.String(); got != "2026-09-01" {
			t.Errorf("projection must not persist, stored next = %s", got)
		}
	})

	t.Run("inactive schedule has no projection", func(t *testing.T) {
		sched := store.schedules[saved.ID]
		sched.Active = false
		store.schedules[saved.ID] = sched

		_, ok, err := svc.ProjectNext(context.Background(), "user-1", saved.ID, core.NewDate(2026, 10, 15))
		if err != nil {
			t.Fatalf("ProjectNext() error = %v", err)
		}
		if ok {
			t.Error("inactive schedule should have no projection")
		}
	})

	t.Run("missing schedule", func(t *testing.T) {
		if _, _, err := svc.ProjectNext(context.Background(), "user-1", "sched-missing", core.NewDate(2026, 10, 15)); err == nil {
			t.Error("ProjectNext() should fail for a missing schedule")
		}
	})
}
