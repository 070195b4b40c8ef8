package repository

import (
	"context"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// ReconciliationLogRepository handles the append-only merge/delete audit log.
// Merges and deletes are irreversible, so the log is the only surviving
// record of what was folded into what.
type ReconciliationLogRepository interface {
	// AppendTx inserts a log entry inside the given transaction, so the entry
	// commits or rolls back together with the operation it records.
	AppendTx(ctx context.Context, tx DBTX, entry *domain.ReconciliationEntry) error

	// List retrieves log entries most recent first, with the total count for
	// pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.ReconciliationEntry, int64, error)
}
