package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/streetcare/client-registry-service/internal/domain"
	"github.com/streetcare/client-registry-service/internal/observability"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 50
	maxPageSize        = 200
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// clientRequest is the JSON request body for creating or updating a client.
type clientRequest struct {
	Code       string  `json:"code,omitempty" validate:"max=32"`
	FirstName  string  `json:"first_name" validate:"required,max=100"`
	MiddleName string  `json:"middle_name,omitempty" validate:"max=100"`
	LastName   string  `json:"last_name" validate:"required,max=100"`
	Nickname   string  `json:"nickname,omitempty" validate:"max=100"`
	Alias      string  `json:"alias,omitempty" validate:"max=100"`
	DOB        *string `json:"dob,omitempty"`
	Gender     string  `json:"gender,omitempty" validate:"max=50"`
	Program    string  `json:"program,omitempty" validate:"max=100"`
	Notes      string  `json:"notes,omitempty" validate:"max=10000"`
}

// createEncounterRequest is the JSON request body for logging an encounter.
type createEncounterRequest struct {
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
	Worker     string    `json:"worker,omitempty" validate:"max=100"`
	Location   string    `json:"location,omitempty" validate:"max=200"`
	Notes      string    `json:"notes,omitempty" validate:"max=10000"`
}

// searchClients handles GET /clients.
// With a q parameter it runs fuzzy roster search; without one it returns the
// roster in browse order, most recent contact first.
func (s *Server) searchClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	roster, err := s.clientRepo.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	results := s.searcher.Search(query, roster)
	s.metrics.RecordSearch(len(results))
	searchLogger := observability.WithSearchContext(s.logger, query, len(results))
	searchLogger.Debug().Msg("roster search completed")

	clients := make([]clientResponse, len(results))
	for i, c := range results {
		clients[i] = domainClientToResponse(c)
	}

	writeJSON(w, http.StatusOK, listClientsResponse{
		Clients:    clients,
		TotalCount: len(clients),
	})
}

// createClient handles POST /clients.
// The pre-create duplicate check is advisory; creation proceeds regardless of
// whether a check was run or what it found.
func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req clientRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	dob, ok := parseDOB(w, req.DOB)
	if !ok {
		return
	}

	client := domain.NewClientRecord(req.Code, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	client.MiddleName = req.MiddleName
	client.Nickname = req.Nickname
	client.Alias = req.Alias
	client.DOB = dob
	client.Gender = req.Gender
	client.Program = req.Program
	client.Notes = req.Notes

	created, err := s.clientRepo.Create(ctx, client)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.metrics.RecordClientCreated()
	clientLogger := observability.WithClientContext(s.logger, created.ID.String())
	clientLogger.Info().Msg("client created")

	writeJSON(w, http.StatusCreated, domainClientToResponse(created))
}

// getClient handles GET /clients/{clientID}.
func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := parseUUID(w, chi.URLParam(r, "clientID"), "client_id")
	if !ok {
		return
	}

	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainClientToResponse(client))
}

// updateClient handles PUT /clients/{clientID}.
// Every field except the ID is mutable.
func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := parseUUID(w, chi.URLParam(r, "clientID"), "client_id")
	if !ok {
		return
	}

	var req clientRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	dob, ok := parseDOB(w, req.DOB)
	if !ok {
		return
	}

	client := &domain.ClientRecord{
		ID:         clientID,
		Code:       req.Code,
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: req.MiddleName,
		LastName:   strings.TrimSpace(req.LastName),
		Nickname:   req.Nickname,
		Alias:      req.Alias,
		DOB:        dob,
		Gender:     req.Gender,
		Program:    req.Program,
		Notes:      req.Notes,
	}

	updated, err := s.clientRepo.Update(ctx, client)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainClientToResponse(updated))
}

// deleteClient handles DELETE /clients/{clientID}.
// Deletion is irreversible and removes the client's encounters, so it
// requires confirm=true and an operator identity.
func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := parseUUID(w, chi.URLParam(r, "clientID"), "client_id")
	if !ok {
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "deletion is irreversible and requires confirm=true")
		return
	}

	operator := observability.OperatorFromContext(ctx)
	if operator == "" {
		writeError(w, http.StatusBadRequest, "X-Operator header is required for destructive operations")
		return
	}

	entry, err := s.reconciler.Delete(ctx, clientID, operator)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEntryToResponse(entry))
}

// listEncounters handles GET /clients/{clientID}/encounters.
func (s *Server) listEncounters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := parseUUID(w, chi.URLParam(r, "clientID"), "client_id")
	if !ok {
		return
	}

	// A 404 for a missing client beats an empty list for a typoed ID.
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		writeDomainError(w, err)
		return
	}

	encounters, err := s.encounterRepo.ListByClientID(ctx, clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]encounterResponse, len(encounters))
	for i, e := range encounters {
		resp[i] = domainEncounterToResponse(e)
	}

	writeJSON(w, http.StatusOK, listEncountersResponse{
		Encounters: resp,
		TotalCount: len(resp),
	})
}

// createEncounter handles POST /clients/{clientID}/encounters.
func (s *Server) createEncounter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := parseUUID(w, chi.URLParam(r, "clientID"), "client_id")
	if !ok {
		return
	}

	var req createEncounterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	encounter := domain.NewEncounter(clientID, req.OccurredAt)
	encounter.Worker = req.Worker
	encounter.Location = req.Location
	encounter.Notes = req.Notes

	created, err := s.encounterRepo.Create(ctx, encounter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainEncounterToResponse(created))
}

// decodeAndValidate reads a JSON request body into v and validates it.
// It writes a 400 response and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid field %s: failed %s validation", field.Field(), field.Tag()))
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}

	return true
}

// parseDOB parses an optional YYYY-MM-DD date of birth.
// It writes a 400 response and returns false on failure.
func parseDOB(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dob format: expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrInvalidOperation):
		var ie *domain.InvalidOperationError
		if errors.As(err, &ie) {
			writeError(w, http.StatusConflict, ie.Error())
		} else {
			writeError(w, http.StatusConflict, "invalid operation")
		}
	case errors.Is(err, domain.ErrPartialReconciliation):
		writeError(w, http.StatusConflict, "reconciliation partially applied")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts limit and offset from query parameters,
// applying default and maximum bounds.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	return limit, offset
}
