package services

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// Stores are the narrow slices of the repository each service needs. The
// SQLite repository satisfies all of them.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
		CategoryCatalog(ctx context.Context) (map[string]core.Category, error)
	}

	ScheduleStore interface {
		CreateSchedule(ctx context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error)
		GetSchedule(ctx context.Context, ownerID, id string) (core.RecurringSchedule, error)
		ListSchedules(ctx context.Context, ownerID string) ([]core.RecurringSchedule, error)
		UpdateSchedule(ctx context.Context, s core.RecurringSchedule) error
		DeleteSchedule(ctx context.Context, ownerID, id string) error
		ListDueSchedules(ctx context.Context, asOf core.Date) ([]core.RecurringSchedule, error)
		AdvanceSchedule(ctx context.Context, id string, next core.Date) error
		DeactivateSchedule(ctx context.Context, id string) error
	}

	// BackupPublisher enqueues backup work for the export worker.
	BackupPublisher interface {
		PublishBackup(ctx context.Context, msg *amqp.BackupMessage) error
	}
)
