package httpserver

import (
	"net/http"

	"github.com/streetcare/client-registry-service/internal/identity"
	"github.com/streetcare/client-registry-service/internal/observability"
)

// duplicateCheckRequest is the JSON request body for a pre-create duplicate check.
type duplicateCheckRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	DOB       *string `json:"dob,omitempty"`
}

// mergeRequest is the JSON request body for merging two client records.
type mergeRequest struct {
	KeepID  string `json:"keep_id" validate:"required"`
	DropID  string `json:"drop_id" validate:"required"`
	Confirm bool   `json:"confirm"`
}

// duplicateCheck handles POST /clients/duplicate-check.
// The intake UI calls this as the operator types, so the endpoint is
// rate limited server side on top of any client debounce.
func (s *Server) duplicateCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.precheckLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "duplicate check rate limit exceeded")
		return
	}

	var req duplicateCheckRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	dob, ok := parseDOB(w, req.DOB)
	if !ok {
		return
	}

	roster, err := s.clientRepo.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := s.prechecker.CheckForDuplicates(req.FirstName, req.LastName, dob, roster)
	s.metrics.RecordPrecheck(result.HasPotentialDuplicates)

	matches := make([]candidateMatchResponse, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = domainMatchToResponse(m)
	}

	writeJSON(w, http.StatusOK, duplicateCheckResponse{
		HasPotentialDuplicates: result.HasPotentialDuplicates,
		Matches:                matches,
	})
}

// listDuplicates handles GET /duplicates.
// It runs a full duplicate scan over the roster and returns the groups found.
// Groups are computed on demand and never persisted.
func (s *Server) listDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := s.clientRepo.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	counts, err := s.encounterRepo.CountsByClient(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	groups := identity.Scan(roster, counts)
	s.metrics.RecordDuplicateScan(len(groups))
	s.logger.Debug().
		Int("roster_size", len(roster)).
		Int("groups_found", len(groups)).
		Msg("duplicate scan completed")

	resp := make([]duplicateGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = domainGroupToResponse(g)
	}

	writeJSON(w, http.StatusOK, listDuplicatesResponse{
		Groups:     resp,
		TotalCount: len(resp),
	})
}

// mergeClients handles POST /duplicates/merge.
// Merging is irreversible, so it requires explicit confirmation and an
// operator identity.
func (s *Server) mergeClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mergeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "merging is irreversible and requires confirm=true")
		return
	}

	keepID, ok := parseUUID(w, req.KeepID, "keep_id")
	if !ok {
		return
	}
	dropID, ok := parseUUID(w, req.DropID, "drop_id")
	if !ok {
		return
	}

	operator := observability.OperatorFromContext(ctx)
	if operator == "" {
		writeError(w, http.StatusBadRequest, "X-Operator header is required for destructive operations")
		return
	}

	entry, err := s.reconciler.Merge(ctx, keepID, dropID, operator)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEntryToResponse(entry))
}

// verifyMerge handles GET /duplicates/verify-merge.
// It checks whether a past merge left half-applied state behind: the dropped
// record still present but stripped of its encounters. The transactional merge
// path cannot produce this; the check exists for auditing state left by
// out-of-band failures.
func (s *Server) verifyMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keepID, ok := parseUUID(w, r.URL.Query().Get("keep_id"), "keep_id")
	if !ok {
		return
	}
	dropID, ok := parseUUID(w, r.URL.Query().Get("drop_id"), "drop_id")
	if !ok {
		return
	}

	if err := s.reconciler.VerifyMerge(ctx, keepID, dropID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// listReconciliations handles GET /reconciliations.
// It returns the append-only merge/delete audit log, most recent first.
func (s *Server) listReconciliations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePaginationParams(r)

	entries, totalCount, err := s.logRepo.List(ctx, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]reconciliationEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = domainEntryToResponse(e)
	}

	writeJSON(w, http.StatusOK, listReconciliationsResponse{
		Entries:    resp,
		TotalCount: int(totalCount),
	})
}
