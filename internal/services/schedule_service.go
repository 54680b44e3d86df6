package services

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/engine"
)

// ScheduleService manages recurring schedule templates.
type ScheduleService struct {
	schedules ScheduleStore
	storage   TransactionStore
}

func NewScheduleService(schedules ScheduleStore, storage TransactionStore) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		storage:   storage,
	}
}

func (s *ScheduleService) Create(ctx context.Context, sched core.RecurringSchedule) (core.RecurringSchedule, error) {
	if sched.NextOccurrence.IsEmpty() {
		sched.NextOccurrence = sched.StartDate
	}
	if err := sched.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}
	if err := s.checkCategory(ctx, sched); err != nil {
		return core.RecurringSchedule{}, err
	}
	return s.schedules.CreateSchedule(ctx, sched)
}

func (s *ScheduleService) Get(ctx context.Context, ownerID, id string) (core.RecurringSchedule, error) {
	return s.schedules.GetSchedule(ctx, ownerID, id)
}

func (s *ScheduleService) List(ctx context.Context, ownerID string) ([]core.RecurringSchedule, error) {
	return s.schedules.ListSchedules(ctx, ownerID)
}

func (s *ScheduleService) Update(ctx context.Context, sched core.RecurringSchedule) (core.RecurringSchedule, error) {
	stored, err := s.schedules.GetSchedule(ctx, sched.OwnerID, sched.ID)
	if err != nil {
		return core.RecurringSchedule{}, err
	}

	// The recurring worker is the only writer of the cursor. An edit keeps
	// the stored one; only a cadence change restarts it from the new start.
	if sched.StartDate.Equal(stored.StartDate.Time) && sched.Frequency == stored.Frequency {
		sched.NextOccurrence = stored.NextOccurrence
	} else {
		sched.NextOccurrence = sched.StartDate
	}
	if sched.NextOccurrence.IsEmpty() {
		sched.NextOccurrence = sched.StartDate
	}

	if err := sched.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}
	if err := s.checkCategory(ctx, sched); err != nil {
		return core.RecurringSchedule{}, err
	}
	if err := s.schedules.UpdateSchedule(ctx, sched); err != nil {
		return core.RecurringSchedule{}, err
	}
	return sched, nil
}

func (s *ScheduleService) Delete(ctx context.Context, ownerID, id string) error {
	return s.schedules.DeleteSchedule(ctx, ownerID, id)
}

// ProjectNext computes the next occurrence of a schedule on or after asOf
// without touching stored state. The second return is false when the
// schedule is inactive or has lapsed past its end date.
func (s *ScheduleService) ProjectNext(ctx context.Context, ownerID, id string, asOf core.Date) (core.Date, bool, error) {
	sched, err := s.schedules.GetSchedule(ctx, ownerID, id)
	if err != nil {
		return core.Date{}, false, err
	}
	next, ok := engine.ProjectNextOccurrence(sched, asOf)
	return next, ok, nil
}

func (s *ScheduleService) checkCategory(ctx context.Context, sched core.RecurringSchedule) error {
	catalog, err := s.storage.CategoryCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	cat, ok := catalog[sched.CategoryID]
	if !ok {
		return &core.ValidationError{Field: "category_id", Reason: "unknown category " + sched.CategoryID}
	}
	if cat.Kind != sched.Kind {
		return &core.ValidationError{Field: "category_id", Reason: "category " + cat.Name + " is " + string(cat.Kind) + ", schedule is " + string(sched.Kind)}
	}
	return nil
}
