package identity

import (
	"sort"
	"time"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Search defaults. Both are overridable through SearcherConfig.
const (
	// DefaultResultLimit caps the number of records a search returns.
	DefaultResultLimit = 50

	// DefaultRelevanceFloor is the minimum best-field similarity a record
	// needs to appear in a non-empty-query result set.
	DefaultRelevanceFloor = 0.4
)

// SearcherConfig holds the tunables for roster search.
type SearcherConfig struct {
	// ResultLimit caps the result set size. Zero means DefaultResultLimit.
	ResultLimit int

	// RelevanceFloor is the minimum score for a record to match a non-empty
	// query. Zero means DefaultRelevanceFloor.
	RelevanceFloor float64
}

// Searcher ranks a roster snapshot against a free-text query using the
// similarity scorer across name, alias, nickname, and client code.
type Searcher struct {
	cfg SearcherConfig
}

// NewSearcher creates a Searcher, applying defaults for zero config values.
func NewSearcher(cfg SearcherConfig) *Searcher {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = DefaultResultLimit
	}
	if cfg.RelevanceFloor <= 0 {
		cfg.RelevanceFloor = DefaultRelevanceFloor
	}
	return &Searcher{cfg: cfg}
}

// Search returns an ordered, bounded slice of roster records for the query.
//
// An empty query is browse mode: the roster sorted most-recent-contact-first,
// records with no contact last. A non-empty query scores each record as the
// best similarity among full name, alias, nickname, and client code, drops
// records below the relevance floor, and sorts descending by score with a
// most-recent-contact tie-break. Missing optional fields compare as empty
// strings. The roster snapshot is never mutated.
func (s *Searcher) Search(query string, roster []*domain.ClientRecord) []*domain.ClientRecord {
	if NormalizeName(query) == "" {
		return s.browse(roster)
	}

	type scored struct {
		client *domain.ClientRecord
		score  float64
	}

	matches := make([]scored, 0, len(roster))
	for _, c := range roster {
		score := bestFieldScore(query, c)
		if score < s.cfg.RelevanceFloor {
			continue
		}
		matches = append(matches, scored{client: c, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return moreRecent(matches[i].client.LastEncounterAt, matches[j].client.LastEncounterAt)
	})

	if len(matches) > s.cfg.ResultLimit {
		matches = matches[:s.cfg.ResultLimit]
	}

	results := make([]*domain.ClientRecord, len(matches))
	for i, m := range matches {
		results[i] = m.client
	}
	return results
}

// browse returns the roster sorted by most recent contact, truncated.
func (s *Searcher) browse(roster []*domain.ClientRecord) []*domain.ClientRecord {
	results := make([]*domain.ClientRecord, len(roster))
	copy(results, roster)

	sort.SliceStable(results, func(i, j int) bool {
		return moreRecent(results[i].LastEncounterAt, results[j].LastEncounterAt)
	})

	if len(results) > s.cfg.ResultLimit {
		results = results[:s.cfg.ResultLimit]
	}
	return results
}

// bestFieldScore scores a record as the best similarity among its searchable
// fields versus the query.
func bestFieldScore(query string, c *domain.ClientRecord) float64 {
	best := 0.0
	for _, field := range []string{c.FullName(), c.Alias, c.Nickname, c.Code} {
		if field == "" {
			continue
		}
		if score := Similarity(query, field); score > best {
			best = score
		}
	}
	return best
}

// moreRecent orders timestamps newest-first with nil sorting last.
func moreRecent(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
