package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the client registry service.
// Metrics are organized by subsystem: search, duplicate scanning, prechecks,
// and reconciliation. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// SearchesTotal counts roster searches, including browse-mode requests.
	SearchesTotal prometheus.Counter

	// SearchResults observes the number of records returned per search.
	SearchResults prometheus.Histogram

	// DuplicateScansTotal counts full-roster duplicate scans.
	DuplicateScansTotal prometheus.Counter

	// DuplicateGroupsFound observes the number of groups found per scan.
	DuplicateGroupsFound prometheus.Histogram

	// PrechecksTotal counts pre-create duplicate checks.
	PrechecksTotal prometheus.Counter

	// PrechecksFlagged counts prechecks that surfaced potential duplicates.
	PrechecksFlagged prometheus.Counter

	// MergesTotal counts committed merge operations.
	MergesTotal prometheus.Counter

	// DeletesTotal counts committed delete operations.
	DeletesTotal prometheus.Counter

	// ReconciliationFailures counts failed reconciliation attempts by operation.
	ReconciliationFailures *prometheus.CounterVec

	// EncountersReassigned counts encounters moved to a surviving record by merges.
	EncountersReassigned prometheus.Counter

	// EncountersRemoved counts encounters removed by destructive deletes.
	EncountersRemoved prometheus.Counter

	// ClientsCreated counts client records created through the API.
	ClientsCreated prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of roster searches",
		}),
		SearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of records returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		DuplicateScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_scans_total",
			Help:      "Total number of full-roster duplicate scans",
		}),
		DuplicateGroupsFound: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_groups_found",
			Help:      "Number of duplicate groups found per scan",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		PrechecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prechecks_total",
			Help:      "Total number of pre-create duplicate checks",
		}),
		PrechecksFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prechecks_flagged_total",
			Help:      "Total number of prechecks that surfaced potential duplicates",
		}),
		MergesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total number of committed client merges",
		}),
		DeletesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Total number of committed client deletes",
		}),
		ReconciliationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_failures_total",
			Help:      "Total number of failed reconciliation attempts by operation",
		}, []string{"operation"}),
		EncountersReassigned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encounters_reassigned_total",
			Help:      "Total number of encounters reassigned by merges",
		}),
		EncountersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encounters_removed_total",
			Help:      "Total number of encounters removed by deletes",
		}),
		ClientsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_created_total",
			Help:      "Total number of client records created",
		}),
	}
}

// RecordSearch records a roster search and its result count.
func (m *Metrics) RecordSearch(resultCount int) {
	m.SearchesTotal.Inc()
	m.SearchResults.Observe(float64(resultCount))
}

// RecordDuplicateScan records a duplicate scan and the groups it found.
func (m *Metrics) RecordDuplicateScan(groupsFound int) {
	m.DuplicateScansTotal.Inc()
	m.DuplicateGroupsFound.Observe(float64(groupsFound))
}

// RecordPrecheck records a pre-create duplicate check.
func (m *Metrics) RecordPrecheck(flagged bool) {
	m.PrechecksTotal.Inc()
	if flagged {
		m.PrechecksFlagged.Inc()
	}
}

// RecordMerge records a committed merge and its reassigned encounters.
func (m *Metrics) RecordMerge(encountersMoved int) {
	m.MergesTotal.Inc()
	m.EncountersReassigned.Add(float64(encountersMoved))
}

// RecordDelete records a committed delete and its removed encounters.
func (m *Metrics) RecordDelete(encountersRemoved int) {
	m.DeletesTotal.Inc()
	m.EncountersRemoved.Add(float64(encountersRemoved))
}

// RecordReconciliationFailure records a failed reconciliation attempt.
func (m *Metrics) RecordReconciliationFailure(operation string) {
	m.ReconciliationFailures.WithLabelValues(operation).Inc()
}

// RecordClientCreated records a client record created through the API.
func (m *Metrics) RecordClientCreated() {
	m.ClientsCreated.Inc()
}
