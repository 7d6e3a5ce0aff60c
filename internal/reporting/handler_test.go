package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/platform/logger"
)

type stubService struct {
	summary  *Summary
	payments []PaymentRow
	err      error
}

func (s *stubService) Summary(context.Context) (*Summary, error)         { return s.summary, s.err }
func (s *stubService) Today(context.Context) ([]TodayItem, error)        { return []TodayItem{}, s.err }
func (s *stubService) PaymentRows(context.Context) ([]PaymentRow, error) { return s.payments, s.err }
func (s *stubService) VisitRows(context.Context) ([]VisitRow, error)     { return []VisitRow{}, s.err }

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, logger.NewNop()).Routes(r)
	return r
}

func TestHandleSummary(t *testing.T) {
	router := newTestRouter(&stubService{summary: &Summary{TotalMembers: 4, ActiveMembers: 3, ByPlan: []PlanIncome{}}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 4, body["totalMembers"])
	assert.EqualValues(t, 3, body["activeMembers"])
}

func TestHandlePaymentsCSV(t *testing.T) {
	router := newTestRouter(&stubService{payments: []PaymentRow{{Date: "01/02/2025", Time: "08:15", Name: "ANA", Plan: "Mensual", Amount: dec(500)}}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/payments.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pagos-")
	assert.Contains(t, rec.Body.String(), "01/02/2025,08:15,ANA,Mensual,500")
}

func TestHandleReportFailure(t *testing.T) {
	router := newTestRouter(&stubService{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/today", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "db down"))
}
