// internal/reporting/domain.go
package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is income over a time range.
type Window struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// PlanIncome is one bucket of the per-plan breakdown.
type PlanIncome struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// Summary is the front desk dashboard as of AsOf.
type Summary struct {
	AsOf              time.Time       `json:"asOf"`
	TotalMembers      int             `json:"totalMembers"`
	ActiveMembers     int             `json:"activeMembers"`
	InactiveMembers   int             `json:"inactiveMembers"`
	Total             decimal.Decimal `json:"total"`
	Count             int             `json:"count"`
	Today             Window          `json:"today"`
	Week              Window          `json:"week"`
	Month             Window          `json:"month"`
	ByPlan            []PlanIncome    `json:"byPlan"`
	AverageDaily      decimal.Decimal `json:"averageDaily"`
	MonthlyProjection decimal.Decimal `json:"monthlyProjection"`
	VisitsToday       int             `json:"visitsToday"`
}

const (
	ItemPayment    = "payment"
	ItemQuickVisit = "quick"
)

// TodayItem is a line of today's cash list.
type TodayItem struct {
	Kind   string          `json:"kind"`
	At     time.Time       `json:"timestamp"`
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentRow is one line of the payments export.
type PaymentRow struct {
	Date   string
	Time   string
	Name   string
	Plan   string
	Amount decimal.Decimal
}

// VisitRow is one line of the visits export.
type VisitRow struct {
	Date   string
	Time   string
	Name   string
	Method string
	Plan   string
}
