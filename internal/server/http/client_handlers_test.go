package httpserver

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcare/client-registry-service/internal/domain"
)

func TestSearchClients(t *testing.T) {
	t.Run("returns scored matches for a query", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.clients.add(rosterClient("Jon", "Smith", nil))
		f.clients.add(rosterClient("Maria", "Garcia", nil))

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients?q=jon+smith", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listClientsResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Clients, 1)
		assert.Equal(t, "Jon", resp.Clients[0].FirstName)
		assert.Equal(t, 1, f.metrics.searches)
	})

	t.Run("empty query returns the roster in browse order", func(t *testing.T) {
		f := newTestServer(t, Config{})
		older := rosterClient("Jon", "Smith", nil)
		older.LastEncounterAt = datePtr(2026, time.January, 10)
		newer := rosterClient("Maria", "Garcia", nil)
		newer.LastEncounterAt = datePtr(2026, time.March, 5)
		f.clients.add(older)
		f.clients.add(newer)
		f.clients.add(rosterClient("Omar", "Haddad", nil))

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listClientsResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Clients, 3)
		assert.Equal(t, "Maria", resp.Clients[0].FirstName)
		assert.Equal(t, "Jon", resp.Clients[1].FirstName)
		assert.Equal(t, "Omar", resp.Clients[2].FirstName)
	})

	t.Run("maps store failure to 503", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.clients.getAllErr = domain.NewStoreError("get all", errors.New("boom"))

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients", nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCreateClient(t *testing.T) {
	t.Run("creates a client from a valid request", func(t *testing.T) {
		f := newTestServer(t, Config{})

		body := map[string]interface{}{
			"code":       "CL-00017",
			"first_name": "Maria",
			"last_name":  "Garcia",
			"dob":        "1975-03-02",
			"program":    "downtown-outreach",
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients", body, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp clientResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Maria", resp.FirstName)
		assert.Equal(t, "1975-03-02", resp.DOB)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, 1, f.metrics.clientsCreated)
		assert.Len(t, f.clients.clients, 1)
	})

	t.Run("rejects missing last name", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients", map[string]interface{}{
			"first_name": "Maria",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.clients.clients)
	})

	t.Run("rejects malformed date of birth", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients", map[string]interface{}{
			"first_name": "Maria",
			"last_name":  "Garcia",
			"dob":        "03/02/1975",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients", "not an object", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetClient(t *testing.T) {
	t.Run("returns an existing client", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", datePtr(1980, time.June, 15)))

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients/"+c.ID.String(), nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp clientResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, c.ID.String(), resp.ID)
		assert.Equal(t, "1980-06-15", resp.DOB)
	})

	t.Run("returns 404 for unknown client", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients/"+uuid.NewString(), nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 for malformed UUID", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients/not-a-uuid", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateClient(t *testing.T) {
	t.Run("updates mutable fields", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))

		body := map[string]interface{}{
			"first_name": "Jonathan",
			"last_name":  "Smith",
			"nickname":   "Jonny",
		}
		rec := f.doRequest(t, http.MethodPut, "/api/v1/clients/"+c.ID.String(), body, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp clientResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Jonathan", resp.FirstName)
		assert.Equal(t, "Jonny", resp.Nickname)
		assert.Equal(t, c.ID.String(), resp.ID)
	})

	t.Run("returns 404 for unknown client", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodPut, "/api/v1/clients/"+uuid.NewString(), map[string]interface{}{
			"first_name": "Jon",
			"last_name":  "Smith",
		}, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteClient(t *testing.T) {
	operatorHeader := map[string]string{"X-Operator": "d.okafor"}

	t.Run("deletes with confirmation and operator", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))
		f.reconciler.deleteEntry = &domain.ReconciliationEntry{
			ID:              uuid.New(),
			Operation:       domain.ReconciliationOpDelete,
			DropID:          c.ID,
			EncountersMoved: 3,
			Operator:        "d.okafor",
			CreatedAt:       time.Now().UTC(),
		}

		rec := f.doRequest(t, http.MethodDelete, "/api/v1/clients/"+c.ID.String()+"?confirm=true", nil, operatorHeader)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp reconciliationEntryResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "delete", resp.Operation)
		assert.Equal(t, c.ID.String(), resp.DropID)
		assert.Equal(t, c.ID, f.reconciler.deletedID)
		assert.Equal(t, "d.okafor", f.reconciler.deleteOperator)
	})

	t.Run("rejects delete without confirmation", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))

		rec := f.doRequest(t, http.MethodDelete, "/api/v1/clients/"+c.ID.String(), nil, operatorHeader)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, uuid.Nil, f.reconciler.deletedID)
	})

	t.Run("rejects delete without operator", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))

		rec := f.doRequest(t, http.MethodDelete, "/api/v1/clients/"+c.ID.String()+"?confirm=true", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps reconciler not found to 404", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.reconciler.deleteErr = domain.NewNotFoundError("client", uuid.NewString())

		rec := f.doRequest(t, http.MethodDelete, "/api/v1/clients/"+uuid.NewString()+"?confirm=true", nil, operatorHeader)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateEncounter(t *testing.T) {
	t.Run("logs an encounter for an existing client", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))

		body := map[string]interface{}{
			"occurred_at": time.Date(2026, time.August, 12, 14, 30, 0, 0, time.UTC),
			"worker":      "d.okafor",
			"location":    "5th and Main",
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/"+c.ID.String()+"/encounters", body, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp encounterResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, c.ID.String(), resp.ClientID)
		assert.Equal(t, "d.okafor", resp.Worker)
		require.Len(t, f.encounters.encounters[c.ID], 1)
	})

	t.Run("rejects missing occurred_at", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/"+c.ID.String()+"/encounters", map[string]interface{}{
			"worker": "d.okafor",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListEncounters(t *testing.T) {
	t.Run("lists a client's encounters", func(t *testing.T) {
		f := newTestServer(t, Config{})
		c := f.clients.add(rosterClient("Jon", "Smith", nil))
		e := domain.NewEncounter(c.ID, time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC))
		e.Worker = "d.okafor"
		f.encounters.encounters[c.ID] = []*domain.Encounter{e}

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients/"+c.ID.String()+"/encounters", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listEncountersResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Encounters, 1)
		assert.Equal(t, 1, resp.TotalCount)
		assert.Equal(t, e.ID.String(), resp.Encounters[0].ID)
	})

	t.Run("returns 404 for unknown client", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/encounters", nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
