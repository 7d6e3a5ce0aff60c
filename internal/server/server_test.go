package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
	"gymdesk/internal/platform/logger"
	"gymdesk/internal/reporting"
)

func newTestServer(t *testing.T, origins ...string) *httptest.Server {
	t.Helper()
	now := time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	catalog := plans.Default()
	log := logger.NewNop()

	members := membership.NewService(membership.NewMemoryRepository(), catalog, log,
		membership.WithClock(clock), membership.WithLocation(time.UTC))
	reports := reporting.NewService(members, reporting.NewAggregator(catalog, time.UTC), clock)

	srv, err := New(Deps{
		Catalog:        catalog,
		Members:        members,
		Reports:        reports,
		Log:            log,
		Registry:       prometheus.NewRegistry(),
		ServiceName:    "gymdesk-test",
		Now:            clock,
		AllowedOrigins: origins,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthAndPlans(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, true, health["ok"])
	assert.Equal(t, "gymdesk-test", health["service"])

	resp, err = http.Get(ts.URL + "/plans")
	require.NoError(t, err)
	defer resp.Body.Close()
	var catalog []plans.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	require.Len(t, catalog, 8)
	assert.Equal(t, plans.DayPass, catalog[0].ID)
	assert.Equal(t, "50", catalog[0].Price.String())
}

func preflight(t *testing.T, url, origin string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodOptions, url, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCORSAllowList(t *testing.T) {
	const desk = "http://localhost:5173"
	ts := newTestServer(t, desk)

	resp := preflight(t, ts.URL+"/members", desk)
	assert.Equal(t, desk, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	resp = preflight(t, ts.URL+"/members", "http://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/plans", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", desk)
	get, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, desk, get.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	ts := newTestServer(t)

	resp := preflight(t, ts.URL+"/members", "http://localhost:5173")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRegistrationShowsUpInSummaryAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"firstName": "ana", "paternalSurname": "lopez", "maternalSurname": "ruiz",
		"phone": "5551234567", "planId": plans.Monthly,
	})
	resp, err := http.Post(ts.URL+"/members", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/reports/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	var summary reporting.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.ActiveMembers)
	assert.Equal(t, "500", summary.Today.Amount.String())

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Regexp(t, `gymdesk_http_requests_total\{method="POST",route="/members/?",status="201"\} 1`, string(raw))
}
