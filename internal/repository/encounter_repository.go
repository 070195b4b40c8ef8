package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// EncounterRepository handles encounter persistence.
// Every encounter belongs to exactly one client; reassignment and removal
// during reconciliation run inside the reconciler's transaction.
type EncounterRepository interface {
	// Create inserts a new encounter for an existing client.
	// Returns domain.ErrNotFound if the client does not exist.
	Create(ctx context.Context, encounter *domain.Encounter) (*domain.Encounter, error)

	// ListByClientID retrieves all encounters for a client, most recent first.
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*domain.Encounter, error)

	// CountsByClient returns the encounter count for every client that has at
	// least one encounter. Clients absent from the map have zero encounters.
	CountsByClient(ctx context.Context) (map[uuid.UUID]int, error)

	// CountByClientIDTx returns the encounter count for one client inside the
	// given transaction. The reconciler uses it to verify count preservation.
	CountByClientIDTx(ctx context.Context, tx DBTX, clientID uuid.UUID) (int, error)

	// ReassignTx moves all encounters owned by fromID to toID inside the
	// given transaction and returns the number of rows moved.
	ReassignTx(ctx context.Context, tx DBTX, fromID, toID uuid.UUID) (int64, error)

	// DeleteByClientTx removes all encounters owned by clientID inside the
	// given transaction and returns the number of rows removed.
	DeleteByClientTx(ctx context.Context, tx DBTX, clientID uuid.UUID) (int64, error)
}
