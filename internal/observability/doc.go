// Package observability provides logging and metrics support for the client
// registry service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, scans, prechecks, and reconciliation
//   - Context helpers for propagating request and operator data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("client_id", id).Msg("client created")
//
// Add reconciliation context to a logger:
//
//	logger = observability.WithReconciliationContext(logger, keepID, dropID)
//
// # Metrics
//
// Initialize and record metrics:
//
//	metrics := observability.NewMetrics("client_registry")
//	metrics.RecordSearch(len(results))
//	metrics.RecordMerge(encountersMoved)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - client_id: Client record identifier
//   - keep_id / drop_id: Reconciliation participants
//   - operator: Case worker who confirmed a destructive operation
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
