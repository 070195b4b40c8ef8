package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Compile-time interface verification.
var _ ReconciliationLogRepository = (*PgReconciliationLogRepository)(nil)

// PgReconciliationLogRepository is a PostgreSQL implementation of
// ReconciliationLogRepository.
type PgReconciliationLogRepository struct {
	db DBTX
}

// NewPgReconciliationLogRepository creates a new PostgreSQL reconciliation
// log repository.
func NewPgReconciliationLogRepository(db DBTX) *PgReconciliationLogRepository {
	return &PgReconciliationLogRepository{db: db}
}

// AppendTx inserts a log entry inside the given transaction.
func (r *PgReconciliationLogRepository) AppendTx(ctx context.Context, tx DBTX, entry *domain.ReconciliationEntry) error {
	if entry == nil {
		return domain.NewValidationError("entry", "entry cannot be nil")
	}
	if entry.Operation != domain.ReconciliationOpMerge && entry.Operation != domain.ReconciliationOpDelete {
		return domain.NewValidationError("operation", fmt.Sprintf("unknown operation %q", entry.Operation))
	}
	if entry.DropID == uuid.Nil {
		return domain.NewValidationError("drop_id", "dropped client ID is required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reconciliation_log (id, operation, keep_id, drop_id, encounters_moved, operator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.Operation,
		entry.KeepID,
		entry.DropID,
		entry.EncountersMoved,
		entry.Operator,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append reconciliation log entry: %w", err)
	}

	return nil
}

// List retrieves log entries most recent first.
func (r *PgReconciliationLogRepository) List(ctx context.Context, limit, offset int) ([]*domain.ReconciliationEntry, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reconciliation_log`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count reconciliation log entries: %w", err)
	}

	query := `
		SELECT id, operation, keep_id, drop_id, encounters_moved, operator, created_at
		FROM reconciliation_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reconciliation log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.ReconciliationEntry, 0, limit)
	for rows.Next() {
		var e domain.ReconciliationEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.KeepID, &e.DropID, &e.EncountersMoved, &e.Operator, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan reconciliation log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating reconciliation log entries: %w", err)
	}

	return entries, totalCount, nil
}
