package identity

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// DefaultMinNameLength is the minimum length both name fragments must reach
// before the pre-create check runs. Very short fragments produce noisy false
// positives as the operator types.
const DefaultMinNameLength = 3

// PrecheckResult is the outcome of a pre-create duplicate check.
type PrecheckResult struct {
	// HasPotentialDuplicates is true when at least one roster record matched.
	HasPotentialDuplicates bool

	// Matches lists every matching roster record, best score first, each
	// annotated with its similarity score and most recent encounter date.
	Matches []domain.CandidateMatch
}

// Prechecker applies the duplicate rule one-sided: an in-progress intake form
// versus the existing roster, before a new record is committed.
type Prechecker struct {
	minNameLength int
}

// NewPrechecker creates a Prechecker. A non-positive minNameLength falls back
// to DefaultMinNameLength.
func NewPrechecker(minNameLength int) *Prechecker {
	if minNameLength <= 0 {
		minNameLength = DefaultMinNameLength
	}
	return &Prechecker{minNameLength: minNameLength}
}

// CheckForDuplicates compares the in-progress intake (first name, last name,
// optional date of birth) against every roster record and returns all matches.
// Both name fragments must reach the minimum length or the check returns an
// empty result. Creation of the new record is a separate, explicit step gated
// on operator confirmation; this is a pure read-only computation.
func (p *Prechecker) CheckForDuplicates(firstName, lastName string, dob *time.Time, roster []*domain.ClientRecord) PrecheckResult {
	if utf8.RuneCountInString(NormalizeName(firstName)) < p.minNameLength ||
		utf8.RuneCountInString(NormalizeName(lastName)) < p.minNameLength {
		return PrecheckResult{}
	}

	intake := Person{FirstName: firstName, LastName: lastName, DOB: dob}

	var matches []domain.CandidateMatch
	for _, c := range roster {
		existing := PersonFromClient(c)
		if !IsDuplicate(intake, existing) {
			continue
		}
		matches = append(matches, domain.CandidateMatch{
			Client:          c,
			Score:           NameAffinity(intake, existing),
			LastEncounterAt: c.LastEncounterAt,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return PrecheckResult{
		HasPotentialDuplicates: len(matches) > 0,
		Matches:                matches,
	}
}
