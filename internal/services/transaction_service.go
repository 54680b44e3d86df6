package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// TransactionService orchestrates record writes across SQLite and the
// backup queue. Backup publishing is best-effort, a broker outage never
// fails the user's write.
type TransactionService struct {
	storage   TransactionStore
	publisher BackupPublisher
}

func NewTransactionService(storage TransactionStore, publisher BackupPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewBackupExportMessage(saved.ID, saved.OwnerID))
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID, from, to)
}

func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.NewBackupExportMessage(tx.ID, tx.OwnerID))
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.NewBackupRemoveMessage(id, ownerID))
	return nil
}

// checkCategory verifies the category exists and matches the record's kind.
// A mismatch is flagged, never silently recategorized.
func (s *TransactionService) checkCategory(ctx context.Context, tx core.Transaction) error {
	catalog, err := s.storage.CategoryCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	cat, ok := catalog[tx.CategoryID]
	if !ok {
		return &core.ValidationError{Field: "category_id", Reason: "unknown category " + tx.CategoryID}
	}
	if cat.Kind != tx.Kind {
		return &core.ValidationError{Field: "category_id", Reason: "category " + cat.Name + " is " + string(cat.Kind) + ", record is " + string(tx.Kind)}
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.BackupMessage) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Backup publisher not available, skipping message", "action", msg.Action)
		return
	}
	if err := s.publisher.PublishBackup(ctx, msg); err != nil {
		// Don't fail the request, the record is saved locally and the
		// pending sweep will pick it up
		slog.ErrorContext(ctx, "Failed to publish backup message",
			"action", msg.Action,
			"record_id", msg.RecordID,
			"error", err)
	}
}
