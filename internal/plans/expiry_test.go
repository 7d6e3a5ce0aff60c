package plans

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustDate(t testing.TB, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestComputeExpiry(t *testing.T) {
	catalog := Default()

	tests := []struct {
		name     string
		join     string
		plan     string
		quantity int
		want     string
	}{
		{"monthly", "2025-01-15", Monthly, 1, "2025-02-14"},
		{"annual across leap year", "2024-01-01", Annual, 1, "2024-12-31"},
		{"promo single month uses override", "2025-06-10", MonthlyPromo, 1, "2026-02-01"},
		{"promo two months skips override", "2025-01-01", MonthlyPromo, 2, "2025-03-02"},
		{"three weeks", "2025-03-01", Weekly, 3, "2025-03-22"},
		{"day pass", "2025-05-05", DayPass, 4, "2025-05-05"},
		{"year rollover", "2025-12-20", Fortnight, 1, "2026-01-04"},
		{"zero quantity counts as one", "2025-01-15", Monthly, 0, "2025-02-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.ComputeExpiry(mustDate(t, tt.join), tt.plan, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestComputeExpiryUnknownPlan(t *testing.T) {
	_, err := Default().ComputeExpiry(NewDate(2025, 1, 1), "platinum", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPlan))

	var planErr *InvalidPlanError
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, "platinum", planErr.PlanID)
}

func TestOverrideWindow(t *testing.T) {
	catalog, err := NewCatalog([]Plan{
		{ID: "promo", DurationDays: 30, Price: decimal.NewFromInt(300), Label: "Promo"},
	}, []ExpiryOverride{
		{PlanID: "promo", Quantity: 1, ExpiresOn: NewDate(2026, 2, 1), ValidFrom: NewDate(2025, 12, 1), ValidUntil: NewDate(2025, 12, 31)},
	})
	require.NoError(t, err)

	inside, err := catalog.ComputeExpiry(NewDate(2025, 12, 15), "promo", 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", inside.String())

	after, err := catalog.ComputeExpiry(NewDate(2026, 1, 10), "promo", 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09", after.String())
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Plan{{ID: "a", DurationDays: 1}, {ID: "a", DurationDays: 2}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]Plan{{ID: "a", DurationDays: 1}}, []ExpiryOverride{{PlanID: "b", Quantity: 1}})
	assert.Error(t, err)
}

func TestCatalogLabel(t *testing.T) {
	catalog := Default()
	assert.Equal(t, "Mensual", catalog.Label(Monthly))
	assert.Equal(t, "efectivo-extra", catalog.Label("efectivo-extra"))
	assert.Len(t, catalog.Plans(), 8)
	assert.Equal(t, DayPass, catalog.Plans()[0].ID)
}

func TestPlanPriceMarshalsAsNumber(t *testing.T) {
	plan, ok := Default().Lookup(Couples)
	require.True(t, ok)

	out, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(400), decoded["price"])

	out, err = json.Marshal(decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(out))
}

func TestDateIgnoresZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	lateEvening := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-09", DateOf(lateEvening, loc).String())
	assert.Equal(t, "2025-03-10", DateOf(lateEvening, time.UTC).String())

	d := NewDate(2025, 3, 9)
	assert.Equal(t, time.Date(2025, 3, 9, 23, 59, 59, 999999999, loc), d.EndIn(loc))
}

func TestDateCalendarArithmetic(t *testing.T) {
	join := NewDate(2024, 2, 28)
	assert.Equal(t, "2024-03-01", join.AddDays(2).String())
	assert.Equal(t, 2, join.DaysUntil(join.AddDays(2)))
	assert.Equal(t, -365, join.DaysUntil(NewDate(2023, 2, 28)))

	// components normalize like time.Date
	assert.Equal(t, "2025-02-01", NewDate(2025, 1, 32).String())
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 28}, join.Civil())

	assert.True(t, Date{}.IsZero())
	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), join.StartIn(nil))
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Join   Date  `json:"joinDate"`
		Expiry *Date `json:"expiryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"joinDate":"2025-01-15","expiryDate":null}`), &payload))
	assert.Equal(t, "2025-01-15", payload.Join.String())
	assert.Nil(t, payload.Expiry)

	out, err := json.Marshal(payload.Join)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-01-15"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"joinDate":"2025-01-15T10:00:00Z"}`), &payload))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-07-04", d.String())

	require.NoError(t, d.Scan([]byte("2025-07-05T00:00:00Z")))
	assert.Equal(t, "2025-07-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
}

func genDate(t *rapid.T) Date {
	offset := rapid.IntRange(0, 365*20).Draw(t, "offset")
	return NewDate(2015, 1, 1).AddDays(offset)
}

func TestPropertyDayPassNeverExtends(t *testing.T) {
	catalog := Default()
	rapid.Check(t, func(t *rapid.T) {
		join := genDate(t)
		qty := rapid.IntRange(1, 50).Draw(t, "qty")
		got, err := catalog.ComputeExpiry(join, DayPass, qty)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(join) {
			t.Fatalf("day pass expiry %s != join %s", got, join)
		}
	})
}

func TestPropertyPromoOverrideIgnoresJoinDate(t *testing.T) {
	catalog := Default()
	rapid.Check(t, func(t *rapid.T) {
		got, err := catalog.ComputeExpiry(genDate(t), MonthlyPromo, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.String() != "2026-02-01" {
			t.Fatalf("promo expiry = %s", got)
		}
	})
}

func TestPropertyDurationIsCalendarDays(t *testing.T) {
	catalog := Default()
	ids := []string{Weekly, Fortnight, Student, Monthly, Couples, Annual}
	rapid.Check(t, func(t *rapid.T) {
		join := genDate(t)
		planID := rapid.SampledFrom(ids).Draw(t, "plan")
		qty := rapid.IntRange(1, 12).Draw(t, "qty")
		plan, _ := catalog.Lookup(planID)

		got, err := catalog.ComputeExpiry(join, planID, qty)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if days := join.DaysUntil(got); days != plan.DurationDays*qty {
			t.Fatalf("expected %d days, got %d", plan.DurationDays*qty, days)
		}
	})
}
