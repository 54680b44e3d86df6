package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// fakeStore implements TransactionStore and ScheduleStore in memory.
type fakeStore struct {
	mu        sync.Mutex
	txs       map[string]core.Transaction
	schedules map[string]core.RecurringSchedule
	catalog   map[string]core.Category
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs:       make(map[string]core.Transaction),
		schedules: make(map[string]core.RecurringSchedule),
		catalog: map[string]core.Category{
			"cat-stipendio": {ID: "cat-stipendio", Name: "Stipendio", Kind: core.Income},
			"cat-spesa":     {ID: "cat-spesa", Name: "Spesa", Kind: core.Expense},
			"cat-casa":      {ID: "cat-casa", Name: "Casa", Kind: core.Expense},
		},
	}
}

func (f *fakeStore) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx.ID == "" {
		tx.ID = f.genID("tx")
	}
	f.txs[tx.ID] = tx
	return tx, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, tx := range f.txs {
		if tx.OwnerID != ownerID {
			continue
		}
		if !from.IsEmpty() && tx.Date.Before(from.Time) {
			continue
		}
		if !to.IsEmpty() && tx.Date.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.txs[tx.ID]
	if !ok || existing.OwnerID != tx.OwnerID {
		return storage.ErrNotFound
	}
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) CategoryCatalog(_ context.Context) (map[string]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]core.Category, len(f.catalog))
	for k, v := range f.catalog {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) CreateSchedule(_ context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = f.genID("sched")
	}
	f.schedules[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetSchedule(_ context.Context, ownerID, id string) (core.RecurringSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok || s.OwnerID != ownerID {
		return core.RecurringSchedule{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListSchedules(_ context.Context, ownerID string) ([]core.RecurringSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.RecurringSchedule
	for _, s := range f.schedules {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, s core.RecurringSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.schedules[s.ID]
	if !ok || existing.OwnerID != s.OwnerID {
		return storage.ErrNotFound
	}
	f.schedules[s.ID] = s
	return nil
}

func (f *fakeStore) DeleteSchedule(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok || s.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) ListDueSchedules(_ context.Context, asOf core.Date) ([]core.RecurringSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.RecurringSchedule
	for _, s := range f.schedules {
		if s.Active && !s.NextOccurrence.IsEmpty() && !s.NextOccurrence.After(asOf.Time) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) AdvanceSchedule(_ context.Context, id string, next core.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.NextOccurrence = next
	f.schedules[id] = s
	return nil
}

func (f *fakeStore) DeactivateSchedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.Active = false
	f.schedules[id] = s
	return nil
}

// fakePublisher records published backup messages.
type fakePublisher struct {
	mu       sync.Mutex
	messages []*amqp.BackupMessage
	fail     bool
}

func (p *fakePublisher) PublishBackup(_ context.Context, msg *amqp.BackupMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) published() []*amqp.BackupMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.BackupMessage(nil), p.messages...)
}
