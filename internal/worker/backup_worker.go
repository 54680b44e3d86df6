package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export"
	"bilancio/internal/storage"
)

// BackupStore is the slice of the repository the backup worker needs.
type BackupStore interface {
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	CategoryCatalog(ctx context.Context) (map[string]core.Category, error)
	ListPendingBackup(ctx context.Context, limit int) ([]storage.PendingBackupRecord, error)
	MarkBackedUp(ctx context.Context, id string) error
	MarkBackupError(ctx context.Context, id string) error
	RecordBackup(ctx context.Context, ownerID, recordID, action, status, errMsg string) error
}

// BackupWorker exports transactions to the external backup sheet and removes
// them again when they are deleted. It is driven by AMQP messages, with a
// periodic sweep over unsynced rows as a safety net for lost messages.
type BackupWorker struct {
	storage   BackupStore
	writer    export.RecordWriter
	remover   export.RecordRemover
	batchSize int
}

func NewBackupWorker(storage BackupStore, writer export.RecordWriter, remover export.RecordRemover, batchSize int) *BackupWorker {
	return &BackupWorker{
		storage:   storage,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleBackupMessage processes a single backup message from AMQP.
func (w *BackupWorker) HandleBackupMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	slog.InfoContext(ctx, "Processing backup message",
		"action", msg.Action,
		"record_id", msg.RecordID)

	switch msg.Action {
	case amqp.ActionExport:
		return w.exportRecord(ctx, msg.OwnerID, msg.RecordID)
	case amqp.ActionRemove:
		return w.removeRecord(ctx, msg.OwnerID, msg.RecordID)
	default:
		// Unknown actions are dropped, not requeued: redelivery cannot fix them.
		slog.WarnContext(ctx, "Unknown backup action, dropping message",
			"action", msg.Action,
			"record_id", msg.RecordID)
		return nil
	}
}

// ProcessPending exports any transactions that have no backup yet. This is a
// backup mechanism in case AMQP messages are lost.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	return w.sweep(ctx, w.batchSize)
}

// StartupCheck sweeps a larger batch at worker startup to recover from
// downtime or missed messages.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingBackup(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending backups for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending backups found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending backups on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.exportRecord(ctx, p.OwnerID, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup backup check completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *BackupWorker) sweep(ctx context.Context, limit int) error {
	pending, err := w.storage.ListPendingBackup(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending backups: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))

	for _, p := range pending {
		if err := w.exportRecord(ctx, p.OwnerID, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

func (w *BackupWorker) exportRecord(ctx context.Context, ownerID, id string) error {
	tx, err := w.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between publish and consume. The remove message for
			// it is already in flight.
			slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", id)
			return nil
		}
		if markErr := w.storage.MarkBackupError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	categoryName := tx.CategoryID
	if catalog, err := w.storage.CategoryCatalog(ctx); err == nil {
		if cat, ok := catalog[tx.CategoryID]; ok {
			categoryName = cat.Name
		}
	} else {
		slog.WarnContext(ctx, "Could not load category catalog, exporting raw category id",
			"id", id, "error", err)
	}

	ref, err := w.writer.Append(ctx, tx, categoryName)
	if err != nil {
		if markErr := w.storage.MarkBackupError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "id", id, "error", markErr)
		}
		if logErr := w.storage.RecordBackup(ctx, ownerID, id, amqp.ActionExport, "failed", err.Error()); logErr != nil {
			slog.ErrorContext(ctx, "Failed to record backup outcome", "id", id, "error", logErr)
		}
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.storage.MarkBackedUp(ctx, id); err != nil {
		// The export itself worked; keep going.
		slog.ErrorContext(ctx, "Failed to mark as backed up", "id", id, "error", err)
	}
	if err := w.storage.RecordBackup(ctx, ownerID, id, amqp.ActionExport, "completed", ""); err != nil {
		slog.ErrorContext(ctx, "Failed to record backup outcome", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", id,
		"backup_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}

func (w *BackupWorker) removeRecord(ctx context.Context, ownerID, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No backup remover configured, skipping removal", "id", id)
		return nil
	}

	if err := w.remover.Remove(ctx, id); err != nil {
		if logErr := w.storage.RecordBackup(ctx, ownerID, id, amqp.ActionRemove, "failed", err.Error()); logErr != nil {
			slog.ErrorContext(ctx, "Failed to record backup outcome", "id", id, "error", logErr)
		}
		return fmt.Errorf("remove from backup sheet: %w", err)
	}

	if err := w.storage.RecordBackup(ctx, ownerID, id, amqp.ActionRemove, "completed", ""); err != nil {
		slog.ErrorContext(ctx, "Failed to record backup outcome", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully removed transaction from backup", "id", id)

	return nil
}
