package services

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func validTransaction() core.Transaction {
	return core.Transaction{
		OwnerID:     "user-1",
		Amount:      core.Money{Cents: 2550},
		Kind:        core.Expense,
		CategoryID:  "cat-spesa",
		Description: "Supermercato",
		Date:        core.NewDate(2026, 8, 15),
	}
}

func TestTransactionService_Create(t *testing.T) {
	t.Run("valid record is saved and queued for backup", func(t *testing.T) {
		store := newFakeStore()
		pub := &fakePublisher{}
		svc := NewTransactionService(store, pub)

		saved, err := svc.Create(context.Background(), validTransaction())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if saved.ID == "" {
			t.Error("Create() should assign an ID")
		}

		msgs := pub.published()
		if len(msgs) != 1 {
			t.Fatalf("expected 1 published message, got %d", len(msgs))
		}
		if msgs[0].Action != amqp.ActionExport {
			t.Errorf("published action = %v, want %v", msgs[0].Action, amqp.ActionExport)
		}
		if msgs[0].RecordID != saved.ID {
			t.Errorf("published record_id = %v, want %v", msgs[0].RecordID, saved.ID)
		}
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		svc := NewTransactionService(newFakeStore(), nil)

		tx := validTransaction()
		tx.CategoryID = "cat-inesistente"

		_, err := svc.Create(context.Background(), tx)
		var verr *core.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want *core.ValidationError", err)
		}
		if verr.Field != "category_id" {
			t.Errorf("validation field = %q, want %q", verr.Field, "category_id")
		}
	})

	t.Run("kind mismatch with category is rejected", func(t *testing.T) {
		svc := NewTransactionService(newFakeStore(), nil)

		tx := validTransaction()
		tx.Kind = core.Income
		tx.CategoryID = "cat-spesa" // expense category

		_, err := svc.Create(context.Background(), tx)
		var verr *core.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create() error = %v, want *core.ValidationError", err)
		}
		if verr.Field != "category_id" {
			t.Errorf("validation field = %q, want %q", verr.Field, "category_id")
		}
	})

	t.Run("invalid record is rejected before storage", func(t *testing.T) {
		store := newFakeStore()
		svc := NewTransactionService(store, nil)

		tx := validTransaction()
		tx.Amount = core.Money{Cents: -100}

		if _, err := svc.Create(context.Background(), tx); err == nil {
			t.Error("Create() should reject a negative amount")
		}
		if len(store.txs) != 0 {
			t.Error("invalid record must not reach storage")
		}
	})

	t.Run("broker failure does not fail the write", func(t *testing.T) {
		store := newFakeStore()
		pub := &fakePublisher{fail: true}
		svc := NewTransactionService(store, pub)

		saved, err := svc.Create(context.Background(), validTransaction())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, ok := store.txs[saved.ID]; !ok {
			t.Error("record should be saved even when publish fails")
		}
	})

	t.Run("nil publisher is tolerated", func(t *testing.T) {
		svc := NewTransactionService(newFakeStore(), nil)
		if _, err := svc.Create(context.Background(), validTransaction()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	})
}

func TestTransactionService_Update(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	saved, err := svc.Create(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	saved.Amount = core.Money{Cents: 9900}
	if _, err := svc.Update(context.Background(), saved); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := store.txs[saved.ID].Amount.Cents; got != 9900 {
		t.Errorf("stored amount = %d, want 9900", got)
	}

	msgs := pub.published()
	if len(msgs) != 2 {
		t.Fatalf("expected create + update messages, got %d", len(msgs))
	}
	if msgs[1].Action != amqp.ActionExport {
		t.Errorf("update should republish an export message, got %v", msgs[1].Action)
	}

	t.Run("missing record", func(t *testing.T) {
		tx := validTransaction()
		tx.ID = "tx-missing"
		if _, err := svc.Update(context.Background(), tx); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactionService_Delete(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	saved, err := svc.Create(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "user-1", saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.txs) != 0 {
		t.Error("record should be deleted")
	}

	msgs := pub.published()
	if len(msgs) != 2 || msgs[1].Action != amqp.ActionRemove {
		t.Errorf("delete should publish a remove message, got %+v", msgs)
	}

	t.Run("other owner cannot delete", func(t *testing.T) {
		saved, _ := svc.Create(context.Background(), validTransaction())
		if err := svc.Delete(context.Background(), "user-2", saved.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})
}
