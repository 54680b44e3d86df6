package export

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound backup adapters.
type (
	// RecordWriter appends a record to the external backup destination.
	RecordWriter interface {
		Append(ctx context.Context, tx core.Transaction, categoryName string) (rowRef string, err error)
	}

	// RecordRemover removes a previously exported record by its ID.
	RecordRemover interface {
		Remove(ctx context.Context, recordID string) error
	}
)
