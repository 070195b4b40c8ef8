package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Compile-time interface verification.
var _ ClientRepository = (*PgClientRepository)(nil)

// clientColumns is the scan order shared by every client query.
const clientColumns = `id, code, first_name, middle_name, last_name, nickname, alias,
		dob, gender, program, notes, created_at, updated_at`

// PgClientRepository is a PostgreSQL implementation of ClientRepository.
type PgClientRepository struct {
	db DBTX
}

// NewPgClientRepository creates a new PostgreSQL client repository.
func NewPgClientRepository(db DBTX) *PgClientRepository {
	return &PgClientRepository{db: db}
}

// Create inserts a new client record.
func (r *PgClientRepository) Create(ctx context.Context, client *domain.ClientRecord) (*domain.ClientRecord, error) {
	if client == nil {
		return nil, domain.NewValidationError("client", "client cannot be nil")
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO clients (
			id, code, first_name, middle_name, last_name, nickname, alias,
			dob, gender, program, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		client.ID,
		client.Code,
		client.FirstName,
		client.MiddleName,
		client.LastName,
		client.Nickname,
		client.Alias,
		client.DOB,
		client.Gender,
		client.Program,
		client.Notes,
		now,
		now,
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// GetByID retrieves a client record by its UUID.
func (r *PgClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT MAX(e.occurred_at) FROM encounters e WHERE e.client_id = clients.id) AS last_encounter_at
		FROM clients
		WHERE id = $1`, clientColumns)

	row := r.db.QueryRow(ctx, query, id)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("client", id.String())
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}

	return client, nil
}

// GetAll retrieves the full roster snapshot with denormalized last encounter
// dates. The registry is small enough (hundreds of records per deployment)
// that search and scanning run over the whole snapshot in memory.
func (r *PgClientRepository) GetAll(ctx context.Context) ([]*domain.ClientRecord, error) {
	query := `
		SELECT c.id, c.code, c.first_name, c.middle_name, c.last_name, c.nickname, c.alias,
			c.dob, c.gender, c.program, c.notes, c.created_at, c.updated_at,
			MAX(e.occurred_at) AS last_encounter_at
		FROM clients c
		LEFT JOIN encounters e ON e.client_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	var roster []*domain.ClientRecord
	for rows.Next() {
		client, err := scanClientFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		roster = append(roster, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster: %w", err)
	}

	return roster, nil
}

// Update persists the mutable fields of an existing record.
func (r *PgClientRepository) Update(ctx context.Context, client *domain.ClientRecord) (*domain.ClientRecord, error) {
	if client == nil {
		return nil, domain.NewValidationError("client", "client cannot be nil")
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE clients SET
			code = $2,
			first_name = $3,
			middle_name = $4,
			last_name = $5,
			nickname = $6,
			alias = $7,
			dob = $8,
			gender = $9,
			program = $10,
			notes = $11,
			updated_at = $12
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		client.ID,
		client.Code,
		client.FirstName,
		client.MiddleName,
		client.LastName,
		client.Nickname,
		client.Alias,
		client.DOB,
		client.Gender,
		client.Program,
		client.Notes,
		time.Now().UTC(),
	).Scan(&client.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("client", client.ID.String())
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	return client, nil
}

// GetForUpdateTx retrieves a client row with a row lock inside the transaction.
func (r *PgClientRepository) GetForUpdateTx(ctx context.Context, tx DBTX, id uuid.UUID) (*domain.ClientRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		WHERE id = $1
		FOR UPDATE`, clientColumns)

	var client domain.ClientRecord
	err := tx.QueryRow(ctx, query, id).Scan(
		&client.ID, &client.Code, &client.FirstName, &client.MiddleName, &client.LastName,
		&client.Nickname, &client.Alias, &client.DOB, &client.Gender, &client.Program,
		&client.Notes, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("client", id.String())
		}
		return nil, fmt.Errorf("failed to lock client row: %w", err)
	}

	return &client, nil
}

// DeleteTx removes a client row inside the transaction.
func (r *PgClientRepository) DeleteTx(ctx context.Context, tx DBTX, id uuid.UUID) error {
	result, err := tx.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("client", id.String())
	}

	return nil
}

// clientScanDest holds the destination pointers for scanning a client row
// that includes the denormalized last_encounter_at column.
type clientScanDest struct {
	client domain.ClientRecord
}

// destinations returns the slice of pointers for Scan operations.
func (d *clientScanDest) destinations() []interface{} {
	return []interface{}{
		&d.client.ID, &d.client.Code, &d.client.FirstName, &d.client.MiddleName, &d.client.LastName,
		&d.client.Nickname, &d.client.Alias, &d.client.DOB, &d.client.Gender, &d.client.Program,
		&d.client.Notes, &d.client.CreatedAt, &d.client.UpdatedAt, &d.client.LastEncounterAt,
	}
}

// scanClient scans a single row into a ClientRecord.
func scanClient(row pgx.Row) (*domain.ClientRecord, error) {
	var dest clientScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.client, nil
}

// scanClientFromRows scans the current row from pgx.Rows into a ClientRecord.
func scanClientFromRows(rows pgx.Rows) (*domain.ClientRecord, error) {
	var dest clientScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.client, nil
}
