// Package reconcile implements merge and delete reconciliation for client
// records. Both operations are irreversible and run inside a single database
// transaction with row locks on the affected clients, so concurrent operators
// working on the same records fail cleanly instead of corrupting encounter
// ownership.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/streetcare/client-registry-service/internal/domain"
	"github.com/streetcare/client-registry-service/internal/events"
	"github.com/streetcare/client-registry-service/internal/repository"
)

// TxRunner runs a function inside a database transaction.
// *database.DB satisfies this interface.
type TxRunner interface {
	WithTransactionOptions(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error
}

// metricsRecorder is the subset of the observability metrics used here.
type metricsRecorder interface {
	RecordMerge(encountersMoved int)
	RecordDelete(encountersRemoved int)
	RecordReconciliationFailure(operation string)
}

// Config collects the reconciler's dependencies.
type Config struct {
	DB         TxRunner
	Clients    repository.ClientRepository
	Encounters repository.EncounterRepository
	Log        repository.ReconciliationLogRepository
	Publisher  events.Publisher
	Metrics    metricsRecorder
	Logger     zerolog.Logger
}

// Reconciler executes merge and delete operations on client records.
type Reconciler struct {
	db         TxRunner
	clients    repository.ClientRepository
	encounters repository.EncounterRepository
	log        repository.ReconciliationLogRepository
	publisher  events.Publisher
	metrics    metricsRecorder
	logger     zerolog.Logger
}

// New creates a Reconciler. Publisher defaults to a no-op when unset.
func New(cfg Config) *Reconciler {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Reconciler{
		db:         cfg.DB,
		clients:    cfg.Clients,
		encounters: cfg.Encounters,
		log:        cfg.Log,
		publisher:  publisher,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With().Str("component", "reconcile").Logger(),
	}
}

// Merge folds the client identified by dropID into the client identified by
// keepID: every encounter owned by dropID is reassigned to keepID, the dropID
// record is removed, and an audit entry is appended, all in one transaction.
// The surviving record's fields are not modified.
//
// Returns domain.ErrInvalidOperation when keepID equals dropID and
// domain.ErrNotFound when either record is missing. The total number of
// encounters across both records is verified unchanged before commit.
func (r *Reconciler) Merge(ctx context.Context, keepID, dropID uuid.UUID, operator string) (*domain.ReconciliationEntry, error) {
	if keepID == uuid.Nil {
		return nil, domain.NewValidationError("keep_id", "keep ID is required")
	}
	if dropID == uuid.Nil {
		return nil, domain.NewValidationError("drop_id", "drop ID is required")
	}
	if keepID == dropID {
		return nil, domain.NewInvalidOperationError("merge", "a record cannot be merged into itself")
	}

	var entry *domain.ReconciliationEntry

	err := r.db.WithTransactionOptions(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// Lock both rows in a deterministic order so two operators merging
		// the same pair in opposite directions cannot deadlock.
		first, second := keepID, dropID
		if bytes.Compare(dropID[:], keepID[:]) < 0 {
			first, second = dropID, keepID
		}
		if _, err := r.clients.GetForUpdateTx(ctx, tx, first); err != nil {
			return err
		}
		if _, err := r.clients.GetForUpdateTx(ctx, tx, second); err != nil {
			return err
		}

		keepBefore, err := r.encounters.CountByClientIDTx(ctx, tx, keepID)
		if err != nil {
			return err
		}
		dropBefore, err := r.encounters.CountByClientIDTx(ctx, tx, dropID)
		if err != nil {
			return err
		}

		moved, err := r.encounters.ReassignTx(ctx, tx, dropID, keepID)
		if err != nil {
			return err
		}

		if err := r.clients.DeleteTx(ctx, tx, dropID); err != nil {
			return err
		}

		keepAfter, err := r.encounters.CountByClientIDTx(ctx, tx, keepID)
		if err != nil {
			return err
		}
		if keepAfter != keepBefore+dropBefore {
			return fmt.Errorf("encounter count changed during merge: had %d+%d, kept %d",
				keepBefore, dropBefore, keepAfter)
		}

		entry = &domain.ReconciliationEntry{
			ID:              uuid.New(),
			Operation:       domain.ReconciliationOpMerge,
			KeepID:          &keepID,
			DropID:          dropID,
			EncountersMoved: int(moved),
			Operator:        operator,
		}
		return r.log.AppendTx(ctx, tx, entry)
	})

	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordReconciliationFailure(string(domain.ReconciliationOpMerge))
		}
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordMerge(entry.EncountersMoved)
	}
	r.logger.Info().
		Str("keep_id", keepID.String()).
		Str("drop_id", dropID.String()).
		Int("encounters_moved", entry.EncountersMoved).
		Str("operator", operator).
		Msg("clients merged")

	if err := r.publisher.PublishClientMerged(ctx, entry); err != nil {
		// The log table already holds the durable record.
		r.logger.Warn().Err(err).Msg("failed to publish merge event")
	}

	return entry, nil
}

// Delete removes a client record and all of its encounters in one
// transaction, appending an audit entry. The operation is destructive and
// irreversible; callers must have collected operator confirmation first.
// Returns domain.ErrNotFound when the record is missing.
func (r *Reconciler) Delete(ctx context.Context, id uuid.UUID, operator string) (*domain.ReconciliationEntry, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("id", "client ID is required")
	}

	var entry *domain.ReconciliationEntry

	err := r.db.WithTransactionOptions(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := r.clients.GetForUpdateTx(ctx, tx, id); err != nil {
			return err
		}

		removed, err := r.encounters.DeleteByClientTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := r.clients.DeleteTx(ctx, tx, id); err != nil {
			return err
		}

		entry = &domain.ReconciliationEntry{
			ID:              uuid.New(),
			Operation:       domain.ReconciliationOpDelete,
			DropID:          id,
			EncountersMoved: int(removed),
			Operator:        operator,
		}
		return r.log.AppendTx(ctx, tx, entry)
	})

	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordReconciliationFailure(string(domain.ReconciliationOpDelete))
		}
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordDelete(entry.EncountersMoved)
	}
	r.logger.Info().
		Str("client_id", id.String()).
		Int("encounters_removed", entry.EncountersMoved).
		Str("operator", operator).
		Msg("client deleted")

	if err := r.publisher.PublishClientDeleted(ctx, entry); err != nil {
		r.logger.Warn().Err(err).Msg("failed to publish delete event")
	}

	return entry, nil
}

// VerifyMerge inspects the state left behind by a past merge of dropID into
// keepID. The transactional path cannot produce a half-applied merge, but an
// out-of-band failure (manual SQL, restored backup) can: the dropped record
// still present while owning zero encounters. That state is reported as
// domain.ErrPartialReconciliation so operators see it rather than a silent
// phantom record. A dropped record that still owns encounters means the merge
// never applied, which is not a partial state.
func (r *Reconciler) VerifyMerge(ctx context.Context, keepID, dropID uuid.UUID) error {
	if _, err := r.clients.GetByID(ctx, dropID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // fully reconciled
		}
		return err
	}

	counts, err := r.encounters.CountsByClient(ctx)
	if err != nil {
		return err
	}

	if counts[dropID] == 0 {
		return &domain.PartialReconciliationError{
			KeepID: keepID.String(),
			DropID: dropID.String(),
		}
	}

	return nil
}
