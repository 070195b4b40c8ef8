package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationOp identifies the kind of destructive operation recorded in
// the reconciliation log.
type ReconciliationOp string

// Reconciliation operation constants.
const (
	// ReconciliationOpMerge records a merge of one client into another.
	ReconciliationOpMerge ReconciliationOp = "merge"

	// ReconciliationOpDelete records a destructive delete of a client and
	// all of its encounters.
	ReconciliationOpDelete ReconciliationOp = "delete"
)

// ReconciliationEntry is one append-only audit row for a merge or delete.
// Merges and deletes are irreversible; the log is the only surviving record
// of what was folded into what.
type ReconciliationEntry struct {
	// ID is the internal identifier.
	ID uuid.UUID

	// Operation is the kind of operation performed.
	Operation ReconciliationOp

	// KeepID is the surviving client for a merge. Nil for deletes.
	KeepID *uuid.UUID

	// DropID is the removed client.
	DropID uuid.UUID

	// EncountersMoved is the number of encounters reassigned (merge) or
	// removed (delete).
	EncountersMoved int

	// Operator identifies who confirmed the operation.
	Operator string

	// CreatedAt is when the operation committed.
	CreatedAt time.Time
}

// DuplicateGroupMember is one client inside a duplicate group, annotated with
// its current encounter count for operator decision-making.
type DuplicateGroupMember struct {
	Client         *ClientRecord
	EncounterCount int
}

// DuplicateGroup is a transient clustering of 2+ client records believed to
// be the same person. Produced on demand by the duplicate scanner and never
// persisted.
type DuplicateGroup struct {
	Members []DuplicateGroupMember
}

// CandidateMatch is a transient projection of a client record plus a computed
// similarity score and the most recent encounter date on file, used to
// populate the duplicate-warning UI before a new record is created.
type CandidateMatch struct {
	Client          *ClientRecord
	Score           float64
	LastEncounterAt *time.Time
}
