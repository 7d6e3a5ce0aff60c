package membership

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/plans"
	"gymdesk/internal/platform/logger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	now := time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepository(), plans.Default(), logger.NewNop(),
		WithClock(func() time.Time { return now }), WithLocation(time.UTC))
	r := chi.NewRouter()
	NewHandler(svc, logger.NewNop()).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerMemberLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/members", map[string]interface{}{
		"firstName":       "ana",
		"paternalSurname": "lopez",
		"maternalSurname": "ruiz",
		"phone":           "5551234567",
		"planId":          "semana",
		"joinDate":        "2025-01-01",
		"quantity":        3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created MemberView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "2025-01-22", created.ExpiryDate.String())
	assert.Equal(t, "450", created.Price.String())

	rec = do(t, h, http.MethodPost, "/members/"+created.ID+"/visit", map[string]interface{}{"paymentType": "visita"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/members/"+created.ID+"/payment", map[string]interface{}{"type": "abono", "amount": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var view MemberView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Visits, 1)
	require.Len(t, view.Payments, 3)
	assert.True(t, view.Payments[2].Amount.IsZero())

	rec = do(t, h, http.MethodGet, "/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
	assert.Len(t, payments, 3)

	rec = do(t, h, http.MethodDelete, "/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerErrors(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/members", map[string]interface{}{"firstName": "ana", "planId": "vip"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/members", bytes.NewBufferString("{not json"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = do(t, h, http.MethodGet, "/members/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"member with ID unknown not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/quick-visits", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerQuickVisitAndBackfill(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/quick-visits", map[string]interface{}{"name": "Luis"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/quick-visits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quick []QuickVisit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quick))
	require.Len(t, quick, 1)
	assert.Equal(t, "50", quick[0].Amount.String())

	rec = do(t, h, http.MethodPost, "/maintenance/backfill-visit-names", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":0}`, rec.Body.String())
}
