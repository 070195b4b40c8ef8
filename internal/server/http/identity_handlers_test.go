package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcare/client-registry-service/internal/domain"
)

func TestDuplicateCheck(t *testing.T) {
	t.Run("flags a near-identical roster record", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.clients.add(rosterClient("Jon", "Smith", datePtr(1980, time.June, 15)))
		f.clients.add(rosterClient("Maria", "Garcia", nil))

		body := map[string]interface{}{
			"first_name": "Jon",
			"last_name":  "Smith",
			"dob":        "1980-06-15",
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/duplicate-check", body, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp duplicateCheckResponse
		decodeBody(t, rec, &resp)
		assert.True(t, resp.HasPotentialDuplicates)
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, "Jon", resp.Matches[0].Client.FirstName)
		assert.Greater(t, resp.Matches[0].Score, 0.85)
		assert.Equal(t, 1, f.metrics.prechecks)
		assert.Equal(t, 1, f.metrics.precheckFlags)
	})

	t.Run("short name fragments produce no matches", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.clients.add(rosterClient("Jo", "Li", nil))

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/duplicate-check", map[string]interface{}{
			"first_name": "Jo",
			"last_name":  "Li",
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp duplicateCheckResponse
		decodeBody(t, rec, &resp)
		assert.False(t, resp.HasPotentialDuplicates)
		assert.Empty(t, resp.Matches)
	})

	t.Run("rejects missing name fields", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/duplicate-check", map[string]interface{}{
			"first_name": "Jon",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enforces the server side rate limit", func(t *testing.T) {
		f := newTestServer(t, Config{PrecheckRateRPS: 0.001, PrecheckRateBurst: 1})

		body := map[string]interface{}{
			"first_name": "Jon",
			"last_name":  "Smith",
		}

		rec := f.doRequest(t, http.MethodPost, "/api/v1/clients/duplicate-check", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.doRequest(t, http.MethodPost, "/api/v1/clients/duplicate-check", body, nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestListDuplicates(t *testing.T) {
	t.Run("groups near-identical records with encounter counts", func(t *testing.T) {
		f := newTestServer(t, Config{})
		a := f.clients.add(rosterClient("Jon", "Smith", datePtr(1980, time.June, 15)))
		b := f.clients.add(rosterClient("Jon", "Smith", datePtr(1980, time.June, 15)))
		f.clients.add(rosterClient("Maria", "Garcia", nil))
		f.encounters.encounters[a.ID] = []*domain.Encounter{
			domain.NewEncounter(a.ID, time.Now().UTC()),
			domain.NewEncounter(a.ID, time.Now().UTC()),
		}

		rec := f.doRequest(t, http.MethodGet, "/api/v1/duplicates", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listDuplicatesResponse
		decodeBody(t, rec, &resp)
		require.Equal(t, 1, resp.TotalCount)
		require.Len(t, resp.Groups, 1)
		require.Len(t, resp.Groups[0].Members, 2)

		countsByID := make(map[string]int)
		for _, m := range resp.Groups[0].Members {
			countsByID[m.Client.ID] = m.EncounterCount
		}
		assert.Equal(t, 2, countsByID[a.ID.String()])
		assert.Equal(t, 0, countsByID[b.ID.String()])
		assert.Equal(t, 1, f.metrics.scans)
	})

	t.Run("clean roster yields no groups", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.clients.add(rosterClient("Jon", "Smith", nil))
		f.clients.add(rosterClient("Maria", "Garcia", nil))

		rec := f.doRequest(t, http.MethodGet, "/api/v1/duplicates", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listDuplicatesResponse
		decodeBody(t, rec, &resp)
		assert.Zero(t, resp.TotalCount)
		assert.Empty(t, resp.Groups)
	})
}

func TestMergeClients(t *testing.T) {
	operatorHeader := map[string]string{"X-Operator": "d.okafor"}

	t.Run("merges with confirmation and operator", func(t *testing.T) {
		f := newTestServer(t, Config{})
		keepID := uuid.New()
		dropID := uuid.New()
		f.reconciler.mergeEntry = &domain.ReconciliationEntry{
			ID:              uuid.New(),
			Operation:       domain.ReconciliationOpMerge,
			KeepID:          &keepID,
			DropID:          dropID,
			EncountersMoved: 5,
			Operator:        "d.okafor",
			CreatedAt:       time.Now().UTC(),
		}

		body := map[string]interface{}{
			"keep_id": keepID.String(),
			"drop_id": dropID.String(),
			"confirm": true,
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/duplicates/merge", body, operatorHeader)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp reconciliationEntryResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "merge", resp.Operation)
		assert.Equal(t, keepID.String(), resp.KeepID)
		assert.Equal(t, dropID.String(), resp.DropID)
		assert.Equal(t, 5, resp.EncountersMoved)
		assert.Equal(t, keepID, f.reconciler.mergedKeep)
		assert.Equal(t, dropID, f.reconciler.mergedDrop)
		assert.Equal(t, "d.okafor", f.reconciler.mergedOperator)
	})

	t.Run("rejects merge without confirmation", func(t *testing.T) {
		f := newTestServer(t, Config{})

		body := map[string]interface{}{
			"keep_id": uuid.NewString(),
			"drop_id": uuid.NewString(),
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/duplicates/merge", body, operatorHeader)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, uuid.Nil, f.reconciler.mergedKeep)
	})

	t.Run("rejects merge without operator", func(t *testing.T) {
		f := newTestServer(t, Config{})

		body := map[string]interface{}{
			"keep_id": uuid.NewString(),
			"drop_id": uuid.NewString(),
			"confirm": true,
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/duplicates/merge", body, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed IDs", func(t *testing.T) {
		f := newTestServer(t, Config{})

		body := map[string]interface{}{
			"keep_id": "not-a-uuid",
			"drop_id": uuid.NewString(),
			"confirm": true,
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/duplicates/merge", body, operatorHeader)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps self-merge rejection to 409", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.reconciler.mergeErr = domain.NewInvalidOperationError("merge", "a record cannot be merged into itself")

		id := uuid.NewString()
		body := map[string]interface{}{
			"keep_id": id,
			"drop_id": id,
			"confirm": true,
		}
		rec := f.doRequest(t, http.MethodPost, "/api/v1/duplicates/merge", body, operatorHeader)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestVerifyMerge(t *testing.T) {
	t.Run("reports a clean merge as verified", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet,
			"/api/v1/duplicates/verify-merge?keep_id="+uuid.NewString()+"&drop_id="+uuid.NewString(), nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		decodeBody(t, rec, &resp)
		assert.Equal(t, "verified", resp["status"])
	})

	t.Run("maps half-applied state to 409", func(t *testing.T) {
		f := newTestServer(t, Config{})
		f.reconciler.verifyErr = &domain.PartialReconciliationError{
			KeepID: uuid.NewString(),
			DropID: uuid.NewString(),
		}

		rec := f.doRequest(t, http.MethodGet,
			"/api/v1/duplicates/verify-merge?keep_id="+uuid.NewString()+"&drop_id="+uuid.NewString(), nil, nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects missing IDs", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet, "/api/v1/duplicates/verify-merge", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListReconciliations(t *testing.T) {
	t.Run("lists audit entries with pagination defaults", func(t *testing.T) {
		f := newTestServer(t, Config{})
		keepID := uuid.New()
		f.log.entries = []*domain.ReconciliationEntry{
			{
				ID:              uuid.New(),
				Operation:       domain.ReconciliationOpMerge,
				KeepID:          &keepID,
				DropID:          uuid.New(),
				EncountersMoved: 2,
				Operator:        "d.okafor",
				CreatedAt:       time.Now().UTC(),
			},
			{
				ID:        uuid.New(),
				Operation: domain.ReconciliationOpDelete,
				DropID:    uuid.New(),
				Operator:  "m.reyes",
				CreatedAt: time.Now().UTC(),
			},
		}

		rec := f.doRequest(t, http.MethodGet, "/api/v1/reconciliations", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listReconciliationsResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.TotalCount)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, "merge", resp.Entries[0].Operation)
		assert.Empty(t, resp.Entries[1].KeepID)
		assert.Equal(t, defaultPageSize, f.log.lastLimit)
		assert.Zero(t, f.log.lastOffset)
	})

	t.Run("honors limit and offset query parameters", func(t *testing.T) {
		f := newTestServer(t, Config{})

		rec := f.doRequest(t, http.MethodGet, "/api/v1/reconciliations?limit=10&offset=20", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, f.log.lastLimit)
		assert.Equal(t, 20, f.log.lastOffset)
	})
}
