package identity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcare/client-registry-service/internal/domain"
)

func client(first, last string) *domain.ClientRecord {
	c := domain.NewClientRecord("", first, last)
	return c
}

func clientSeen(first, last string, seen time.Time) *domain.ClientRecord {
	c := client(first, last)
	c.LastEncounterAt = &seen
	return c
}

func TestSearch_EmptyQueryBrowsesByRecency(t *testing.T) {
	now := time.Now().UTC()
	older := clientSeen("Alice", "Adams", now.Add(-48*time.Hour))
	newer := clientSeen("Bob", "Brown", now.Add(-1*time.Hour))
	never := client("Carol", "Clark") // no contact on file

	s := NewSearcher(SearcherConfig{})
	results := s.Search("", []*domain.ClientRecord{never, older, newer})

	require.Len(t, results, 3)
	assert.Equal(t, newer.ID, results[0].ID)
	assert.Equal(t, older.ID, results[1].ID)
	assert.Equal(t, never.ID, results[2].ID, "records with no contact sort last")
}

func TestSearch_EmptyQueryRespectsLimit(t *testing.T) {
	roster := make([]*domain.ClientRecord, 0, 60)
	for i := 0; i < 60; i++ {
		roster = append(roster, client(fmt.Sprintf("First%d", i), "Last"))
	}

	s := NewSearcher(SearcherConfig{})
	assert.Len(t, s.Search("", roster), DefaultResultLimit)

	small := NewSearcher(SearcherConfig{ResultLimit: 5})
	assert.Len(t, small.Search("", roster), 5)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	jonathan := client("Jonathan", "Smith")
	jonSmyth := client("Jon", "Smyth")
	unrelated := client("Petra", "Nowak")

	s := NewSearcher(SearcherConfig{})
	results := s.Search("Jon Smith", []*domain.ClientRecord{unrelated, jonathan, jonSmyth})

	require.Len(t, results, 2, "both near matches returned, unrelated record dropped")
	// Best-field edit distance puts the single-typo full name first.
	assert.Equal(t, jonSmyth.ID, results[0].ID)
	assert.Equal(t, jonathan.ID, results[1].ID)
}

func TestSearch_MatchesAliasNicknameAndCode(t *testing.T) {
	byAlias := client("Margaret", "Jones")
	byAlias.Alias = "Peggy Jones"

	byNickname := client("Robert", "Taylor")
	byNickname.Nickname = "Bobby"

	byCode := client("Susan", "Walker")
	byCode.Code = "CL-00412"

	roster := []*domain.ClientRecord{byAlias, byNickname, byCode}
	s := NewSearcher(SearcherConfig{})

	assert.Len(t, s.Search("Peggy Jones", roster), 1)
	assert.Len(t, s.Search("Bobby", roster), 1)

	results := s.Search("CL-00412", roster)
	require.Len(t, results, 1)
	assert.Equal(t, byCode.ID, results[0].ID)
}

func TestSearch_ToleratesMissingOptionalFields(t *testing.T) {
	bare := &domain.ClientRecord{FirstName: "Dana", LastName: "Reed"}

	s := NewSearcher(SearcherConfig{})
	assert.NotPanics(t, func() {
		s.Search("Dana Reed", []*domain.ClientRecord{bare})
	})
	assert.Len(t, s.Search("Dana Reed", []*domain.ClientRecord{bare}), 1)
}

func TestSearch_RelevanceFloorDropsNoise(t *testing.T) {
	roster := []*domain.ClientRecord{
		client("Dana", "Reed"),
		client("Xiomara", "Quintanilla"),
	}

	s := NewSearcher(SearcherConfig{})
	results := s.Search("Dana Reed", roster)
	require.Len(t, results, 1)
	assert.Equal(t, "Dana", results[0].FirstName)
}

func TestSearch_TieBreaksByRecency(t *testing.T) {
	now := time.Now().UTC()
	stale := clientSeen("Dana", "Reed", now.Add(-30*24*time.Hour))
	fresh := clientSeen("Dana", "Reed", now.Add(-time.Hour))

	s := NewSearcher(SearcherConfig{})
	results := s.Search("Dana Reed", []*domain.ClientRecord{stale, fresh})

	require.Len(t, results, 2)
	assert.Equal(t, fresh.ID, results[0].ID)
}

func TestSearch_DoesNotMutateRoster(t *testing.T) {
	now := time.Now().UTC()
	a := clientSeen("Alice", "Adams", now.Add(-48*time.Hour))
	b := clientSeen("Bob", "Brown", now)
	roster := []*domain.ClientRecord{a, b}

	NewSearcher(SearcherConfig{}).Search("", roster)

	assert.Equal(t, a.ID, roster[0].ID, "input snapshot order preserved")
	assert.Equal(t, b.ID, roster[1].ID)
}
