package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// ClientRepository handles client record persistence.
// It is the source of the roster snapshot the identity package operates on.
type ClientRepository interface {
	// Create inserts a new client record.
	// Returns the created record with database-assigned timestamps.
	// Returns domain.ErrInvalidInput if the record fails validation.
	Create(ctx context.Context, client *domain.ClientRecord) (*domain.ClientRecord, error)

	// GetByID retrieves a client record by its UUID.
	// Returns domain.ErrNotFound if no matching record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientRecord, error)

	// GetAll retrieves the full roster snapshot, each record annotated with
	// its denormalized most recent encounter date (nil when the client has
	// no encounters). The identity package searches and scans this snapshot
	// in memory.
	GetAll(ctx context.Context) ([]*domain.ClientRecord, error)

	// Update persists the mutable fields of an existing record.
	// The ID is immutable and is never written.
	// Returns domain.ErrNotFound if no matching record exists.
	Update(ctx context.Context, client *domain.ClientRecord) (*domain.ClientRecord, error)

	// GetForUpdateTx retrieves a client row inside the given transaction with
	// a row lock (SELECT ... FOR UPDATE), so a concurrent reconciliation of
	// the same record blocks until this transaction resolves.
	// Returns domain.ErrNotFound if no matching record exists.
	GetForUpdateTx(ctx context.Context, tx DBTX, id uuid.UUID) (*domain.ClientRecord, error)

	// DeleteTx removes a client row inside the given transaction.
	// The caller is responsible for reassigning or removing the client's
	// encounters first; the encounters FK restricts the delete otherwise.
	// Returns domain.ErrNotFound if no matching record exists.
	DeleteTx(ctx context.Context, tx DBTX, id uuid.UUID) error
}
