// Package repository provides data access interfaces and implementations
// for the Client Registry Service.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL
// implementations following the repository pattern to abstract data
// persistence from business logic.
//
// # Repository Interfaces
//
//   - ClientRepository: Manages client record persistence and the roster snapshot
//   - EncounterRepository: Manages encounter persistence and per-client counts
//   - ReconciliationLogRepository: Appends and lists the merge/delete audit log
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple
// goroutines. The underlying pgxpool handles connection pooling and
// synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Methods with a Tx suffix take an explicit DBTX so the reconciler can run
// several repository operations inside one transaction obtained from
// database.DB.WithTransaction. Everything else runs against the DBTX the
// repository was constructed with, which may itself be a transaction.
package repository

import (
	"github.com/streetcare/client-registry-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction
// contexts. Repository constructors accept a DBTX, which enables:
//
//   - Direct usage with a connection pool for standard operations
//   - Transaction support by passing a transaction (pgx.Tx) instead
//   - Easy testing with mock implementations of DBTX
type DBTX = database.DBTX

// Pagination defaults and limits for list queries.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// applyPaginationDefaults normalizes limit and offset values for list queries.
// It clamps limit to [1, maxListLimit] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultListLimit
	}
	if *limit > maxListLimit {
		*limit = maxListLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}
