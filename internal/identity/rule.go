package identity

import (
	"time"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Thresholds for the duplicate verdict. An exact birth-date match is strong
// corroborating evidence, so the name-similarity bar drops when both records
// carry the same date of birth; without that corroboration the bar stays high
// to avoid false positives between unrelated people sharing a common name.
const (
	// CorroboratedNameThreshold is the average name similarity that must be
	// exceeded when both records carry the same date of birth.
	CorroboratedNameThreshold = 0.6

	// NameOnlyThreshold is the average name similarity that must be exceeded
	// when there is no date-of-birth corroboration.
	NameOnlyThreshold = 0.85
)

// Person exposes the identity fields the duplicate rule compares. It covers
// both persisted client records and in-progress intake forms.
type Person struct {
	FirstName string
	LastName  string
	DOB       *time.Time
}

// PersonFromClient projects a client record onto the fields the rule reads.
func PersonFromClient(c *domain.ClientRecord) Person {
	return Person{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		DOB:       c.DOB,
	}
}

// IsDuplicate reports whether two people probably refer to the same real
// person. An absent last name compares as an empty string rather than being
// skipped. Symmetric: IsDuplicate(p1, p2) == IsDuplicate(p2, p1).
func IsDuplicate(p1, p2 Person) bool {
	avg := NameAffinity(p1, p2)

	if sameCalendarDate(p1.DOB, p2.DOB) && avg > CorroboratedNameThreshold {
		return true
	}
	return avg > NameOnlyThreshold
}

// NameAffinity returns the average of first-name and last-name similarity,
// the quantity the duplicate thresholds are applied to.
func NameAffinity(p1, p2 Person) float64 {
	firstSim := Similarity(p1.FirstName, p2.FirstName)
	lastSim := Similarity(p1.LastName, p2.LastName)
	return (firstSim + lastSim) / 2
}

// sameCalendarDate reports exact calendar-date equality. Either side missing
// a date of birth means no corroboration.
func sameCalendarDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
