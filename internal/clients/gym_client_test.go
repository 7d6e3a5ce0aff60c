package clients

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
	"gymdesk/internal/platform/logger"
	"gymdesk/internal/reporting"
	"gymdesk/internal/server"
)

func newClient(t *testing.T) *GymClient {
	t.Helper()
	now := time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	catalog := plans.Default()
	log := logger.NewNop()

	members := membership.NewService(membership.NewMemoryRepository(), catalog, log,
		membership.WithClock(clock), membership.WithLocation(time.UTC))
	srv, err := server.New(server.Deps{
		Catalog: catalog,
		Members: members,
		Reports: reporting.NewService(members, reporting.NewAggregator(catalog, time.UTC), clock),
		Log:     log,
		Now:     clock,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewGymClient(ts.URL + "/")
}

func TestGymClientEndToEnd(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	catalog, err := c.Plans(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 8)

	qv, err := c.RecordQuickVisit(ctx, membership.QuickVisitInput{Name: "Luis"})
	require.NoError(t, err)
	assert.Equal(t, "Luis", qv.Name)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "50", summary.Total.String())
	assert.Equal(t, 1, summary.VisitsToday)

	today, err := c.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, reporting.ItemQuickVisit, today[0].Kind)

	var buf bytes.Buffer
	require.NoError(t, c.DownloadCSV(ctx, ExportPayments, &buf))
	assert.Contains(t, buf.String(), "15/01/2025,17:30,Luis,Visita,50")

	n, err := c.Backfill(ctx, BackfillVisitNames)
	require.NoError(t, err)
	assert.Zero(t, n)

	members, err := c.Members(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestGymClientErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.RecordQuickVisit(ctx, membership.QuickVisitInput{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 400, statusErr.StatusCode)
	assert.True(t, strings.Contains(statusErr.Message, "name"))

	assert.Error(t, c.DownloadCSV(ctx, "members", &bytes.Buffer{}))
	_, err = c.Backfill(ctx, "everything")
	assert.Error(t, err)
}
