package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Compile-time interface verification.
var _ EncounterRepository = (*PgEncounterRepository)(nil)

// PgEncounterRepository is a PostgreSQL implementation of EncounterRepository.
type PgEncounterRepository struct {
	db DBTX
}

// NewPgEncounterRepository creates a new PostgreSQL encounter repository.
func NewPgEncounterRepository(db DBTX) *PgEncounterRepository {
	return &PgEncounterRepository{db: db}
}

// Create inserts a new encounter for an existing client.
func (r *PgEncounterRepository) Create(ctx context.Context, encounter *domain.Encounter) (*domain.Encounter, error) {
	if encounter == nil {
		return nil, domain.NewValidationError("encounter", "encounter cannot be nil")
	}
	if encounter.ClientID == uuid.Nil {
		return nil, domain.NewValidationError("client_id", "client ID is required")
	}
	if encounter.OccurredAt.IsZero() {
		return nil, domain.NewValidationError("occurred_at", "occurrence time is required")
	}
	if encounter.ID == uuid.Nil {
		encounter.ID = uuid.New()
	}

	query := `
		INSERT INTO encounters (id, client_id, occurred_at, worker, location, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		encounter.ID,
		encounter.ClientID,
		encounter.OccurredAt,
		encounter.Worker,
		encounter.Location,
		encounter.Notes,
		time.Now().UTC(),
	).Scan(&encounter.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign key violation, the client does not exist
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.NewNotFoundError("client", encounter.ClientID.String())
		}
		return nil, fmt.Errorf("failed to create encounter: %w", err)
	}

	return encounter, nil
}

// ListByClientID retrieves all encounters for a client, most recent first.
func (r *PgEncounterRepository) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*domain.Encounter, error) {
	query := `
		SELECT id, client_id, occurred_at, worker, location, notes, created_at
		FROM encounters
		WHERE client_id = $1
		ORDER BY occurred_at DESC`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list encounters: %w", err)
	}
	defer rows.Close()

	var encounters []*domain.Encounter
	for rows.Next() {
		var e domain.Encounter
		if err := rows.Scan(&e.ID, &e.ClientID, &e.OccurredAt, &e.Worker, &e.Location, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan encounter: %w", err)
		}
		encounters = append(encounters, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating encounters: %w", err)
	}

	return encounters, nil
}

// CountsByClient returns the encounter count for every client with encounters.
func (r *PgEncounterRepository) CountsByClient(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `
		SELECT client_id, COUNT(*)
		FROM encounters
		GROUP BY client_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count encounters: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var clientID uuid.UUID
		var count int
		if err := rows.Scan(&clientID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan encounter count: %w", err)
		}
		counts[clientID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating encounter counts: %w", err)
	}

	return counts, nil
}

// CountByClientIDTx returns the encounter count for one client inside the transaction.
func (r *PgEncounterRepository) CountByClientIDTx(ctx context.Context, tx DBTX, clientID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM encounters WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count client encounters: %w", err)
	}
	return count, nil
}

// ReassignTx moves all encounters owned by fromID to toID inside the transaction.
func (r *PgEncounterRepository) ReassignTx(ctx context.Context, tx DBTX, fromID, toID uuid.UUID) (int64, error) {
	result, err := tx.Exec(ctx, `UPDATE encounters SET client_id = $2 WHERE client_id = $1`, fromID, toID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign encounters: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteByClientTx removes all encounters owned by clientID inside the transaction.
func (r *PgEncounterRepository) DeleteByClientTx(ctx context.Context, tx DBTX, clientID uuid.UUID) (int64, error) {
	result, err := tx.Exec(ctx, `DELETE FROM encounters WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete encounters: %w", err)
	}
	return result.RowsAffected(), nil
}
