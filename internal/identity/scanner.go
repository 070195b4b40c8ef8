package identity

import (
	"github.com/google/uuid"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Scan partitions a roster snapshot into duplicate groups with a single
// claim-as-you-go pass: each not-yet-claimed record is compared against every
// later not-yet-claimed record, matches join its group and are claimed, and
// groups of two or more are emitted.
//
// This is deliberately NOT a transitive closure. If A matches B and B matches
// C but A does not match C directly, C stays outside A's group. Grouping is
// therefore dependent on roster order. Operators have been triaging groups
// shaped this way since the original rollout, so the behavior is pinned by
// tests rather than upgraded to union-find clustering.
//
// Each group member carries its current encounter count from the counts map
// as a read-only annotation for operator decision-making. The scan never
// mutates anything and produces identical groups for an unchanged roster.
func Scan(roster []*domain.ClientRecord, counts map[uuid.UUID]int) []domain.DuplicateGroup {
	claimed := make([]bool, len(roster))
	var groups []domain.DuplicateGroup

	for i, anchor := range roster {
		if claimed[i] {
			continue
		}

		members := []domain.DuplicateGroupMember{{
			Client:         anchor,
			EncounterCount: counts[anchor.ID],
		}}

		anchorPerson := PersonFromClient(anchor)
		for j := i + 1; j < len(roster); j++ {
			if claimed[j] {
				continue
			}
			if IsDuplicate(anchorPerson, PersonFromClient(roster[j])) {
				members = append(members, domain.DuplicateGroupMember{
					Client:         roster[j],
					EncounterCount: counts[roster[j].ID],
				})
				claimed[j] = true
			}
		}

		if len(members) >= 2 {
			groups = append(groups, domain.DuplicateGroup{Members: members})
			claimed[i] = true
		}
	}

	return groups
}
