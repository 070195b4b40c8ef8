package httpserver

import (
	"time"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// dateLayout is the wire format for dates of birth.
const dateLayout = "2006-01-02"

// Client response types for JSON serialization.

type clientResponse struct {
	ID              string     `json:"id"`
	Code            string     `json:"code,omitempty"`
	FirstName       string     `json:"first_name"`
	MiddleName      string     `json:"middle_name,omitempty"`
	LastName        string     `json:"last_name"`
	Nickname        string     `json:"nickname,omitempty"`
	Alias           string     `json:"alias,omitempty"`
	DOB             string     `json:"dob,omitempty"`
	Gender          string     `json:"gender,omitempty"`
	Program         string     `json:"program,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	LastEncounterAt *time.Time `json:"last_encounter_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type listClientsResponse struct {
	Clients    []clientResponse `json:"clients"`
	TotalCount int              `json:"total_count"`
}

type encounterResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Worker     string    `json:"worker,omitempty"`
	Location   string    `json:"location,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type listEncountersResponse struct {
	Encounters []encounterResponse `json:"encounters"`
	TotalCount int                 `json:"total_count"`
}

type candidateMatchResponse struct {
	Client          clientResponse `json:"client"`
	Score           float64        `json:"score"`
	LastEncounterAt *time.Time     `json:"last_encounter_at,omitempty"`
}

type duplicateCheckResponse struct {
	HasPotentialDuplicates bool                     `json:"has_potential_duplicates"`
	Matches                []candidateMatchResponse `json:"matches"`
}

type duplicateGroupMemberResponse struct {
	Client         clientResponse `json:"client"`
	EncounterCount int            `json:"encounter_count"`
}

type duplicateGroupResponse struct {
	Members []duplicateGroupMemberResponse `json:"members"`
}

type listDuplicatesResponse struct {
	Groups     []duplicateGroupResponse `json:"groups"`
	TotalCount int                      `json:"total_count"`
}

type reconciliationEntryResponse struct {
	ID              string    `json:"id"`
	Operation       string    `json:"operation"`
	KeepID          string    `json:"keep_id,omitempty"`
	DropID          string    `json:"drop_id"`
	EncountersMoved int       `json:"encounters_moved"`
	Operator        string    `json:"operator,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type listReconciliationsResponse struct {
	Entries    []reconciliationEntryResponse `json:"entries"`
	TotalCount int                           `json:"total_count"`
}

// Converter functions

func domainClientToResponse(c *domain.ClientRecord) clientResponse {
	resp := clientResponse{
		ID:              c.ID.String(),
		Code:            c.Code,
		FirstName:       c.FirstName,
		MiddleName:      c.MiddleName,
		LastName:        c.LastName,
		Nickname:        c.Nickname,
		Alias:           c.Alias,
		Gender:          c.Gender,
		Program:         c.Program,
		Notes:           c.Notes,
		LastEncounterAt: c.LastEncounterAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.DOB != nil {
		resp.DOB = c.DOB.Format(dateLayout)
	}
	return resp
}

func domainEncounterToResponse(e *domain.Encounter) encounterResponse {
	return encounterResponse{
		ID:         e.ID.String(),
		ClientID:   e.ClientID.String(),
		OccurredAt: e.OccurredAt,
		Worker:     e.Worker,
		Location:   e.Location,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
}

func domainMatchToResponse(m domain.CandidateMatch) candidateMatchResponse {
	return candidateMatchResponse{
		Client:          domainClientToResponse(m.Client),
		Score:           m.Score,
		LastEncounterAt: m.LastEncounterAt,
	}
}

func domainGroupToResponse(g domain.DuplicateGroup) duplicateGroupResponse {
	members := make([]duplicateGroupMemberResponse, len(g.Members))
	for i, m := range g.Members {
		members[i] = duplicateGroupMemberResponse{
			Client:         domainClientToResponse(m.Client),
			EncounterCount: m.EncounterCount,
		}
	}
	return duplicateGroupResponse{Members: members}
}

func domainEntryToResponse(e *domain.ReconciliationEntry) reconciliationEntryResponse {
	resp := reconciliationEntryResponse{
		ID:              e.ID.String(),
		Operation:       string(e.Operation),
		DropID:          e.DropID.String(),
		EncountersMoved: e.EncountersMoved,
		Operator:        e.Operator,
		CreatedAt:       e.CreatedAt,
	}
	if e.KeepID != nil {
		resp.KeepID = e.KeepID.String()
	}
	return resp
}
