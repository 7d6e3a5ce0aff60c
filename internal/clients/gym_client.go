// internal/clients/gym_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
	"gymdesk/internal/platform/httpx"
	"gymdesk/internal/reporting"
)

// Export names accepted by DownloadCSV.
const (
	ExportPayments = "payments"
	ExportVisits   = "visits"
)

// Backfill names accepted by Backfill.
const (
	BackfillVisitNames   = "visit-names"
	BackfillPaymentNames = "payment-names"
)

// GymClient talks to the front desk API.
type GymClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGymClient(baseURL string) *GymClient {
	return &GymClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

func (c *GymClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var eb httpx.ErrorBody
		json.NewDecoder(resp.Body).Decode(&eb)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: eb.Error}
	}
	return resp, nil
}

func (c *GymClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *GymClient) Plans(ctx context.Context) ([]plans.Plan, error) {
	var out []plans.Plan
	if err := c.getJSON(ctx, "/plans", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GymClient) Summary(ctx context.Context) (*reporting.Summary, error) {
	var out reporting.Summary
	if err := c.getJSON(ctx, "/reports/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GymClient) Today(ctx context.Context) ([]reporting.TodayItem, error) {
	var out []reporting.TodayItem
	if err := c.getJSON(ctx, "/reports/today", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GymClient) Members(ctx context.Context) ([]membership.MemberView, error) {
	var out []membership.MemberView
	if err := c.getJSON(ctx, "/members", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GymClient) RecordQuickVisit(ctx context.Context, in membership.QuickVisitInput) (*membership.QuickVisit, error) {
	resp, err := c.do(ctx, http.MethodPost, "/quick-visits", in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out membership.QuickVisit
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadCSV streams one of the CSV exports into w.
func (c *GymClient) DownloadCSV(ctx context.Context, export string, w io.Writer) error {
	switch export {
	case ExportPayments, ExportVisits:
	default:
		return fmt.Errorf("unknown export %q", export)
	}
	resp, err := c.do(ctx, http.MethodGet, "/reports/"+export+".csv", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}

// Backfill runs one of the name backfills and returns how many records changed.
func (c *GymClient) Backfill(ctx context.Context, which string) (int, error) {
	switch which {
	case BackfillVisitNames, BackfillPaymentNames:
	default:
		return 0, fmt.Errorf("unknown backfill %q", which)
	}
	resp, err := c.do(ctx, http.MethodPost, "/maintenance/backfill-"+which, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Updated int `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}
