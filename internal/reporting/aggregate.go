// internal/reporting/aggregate.go
package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
)

const (
	weekLookback  = 7 * 24 * time.Hour
	monthLookback = 30 * 24 * time.Hour
)

var (
	hundred = decimal.NewFromInt(100)
	seven   = decimal.NewFromInt(7)
	thirty  = decimal.NewFromInt(30)
)

// Aggregator computes reports over already loaded records. A nil Location means time.Local.
type Aggregator struct {
	Catalog  *plans.Catalog
	Location *time.Location
}

func NewAggregator(catalog *plans.Catalog, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{Catalog: catalog, Location: loc}
}

func (a *Aggregator) loc() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}

func (a *Aggregator) label(key string) string {
	if a.Catalog == nil {
		return key
	}
	return a.Catalog.Label(key)
}

// IsActive reports whether m is still covered at now. Coverage runs to the end of the expiry day.
func (a *Aggregator) IsActive(m membership.Member, now time.Time) bool {
	if m.ExpiryDate == nil || m.ExpiryDate.IsZero() {
		return false
	}
	return !now.After(m.ExpiryDate.EndIn(a.loc()))
}

type windows struct {
	todayStart time.Time
	weekStart  time.Time
	monthStart time.Time
	now        time.Time
}

func (a *Aggregator) windowsAt(now time.Time) windows {
	return windows{
		todayStart: plans.DateOf(now, a.loc()).StartIn(a.loc()),
		weekStart:  now.Add(-weekLookback),
		monthStart: now.Add(-monthLookback),
		now:        now,
	}
}

func within(at, start, end time.Time) bool {
	return !at.Before(start) && !at.After(end)
}

func (w windows) add(s *Summary, at time.Time, amount decimal.Decimal) {
	if within(at, w.todayStart, w.now) {
		s.Today.Amount = s.Today.Amount.Add(amount)
		s.Today.Count++
	}
	if within(at, w.weekStart, w.now) {
		s.Week.Amount = s.Week.Amount.Add(amount)
		s.Week.Count++
	}
	if within(at, w.monthStart, w.now) {
		s.Month.Amount = s.Month.Amount.Add(amount)
		s.Month.Count++
	}
}

// Summarize builds the dashboard in a single pass over members, their history and quick visits.
func (a *Aggregator) Summarize(members []membership.MemberView, quick []membership.QuickVisit, now time.Time) Summary {
	s := Summary{
		AsOf:         now,
		TotalMembers: len(members),
		ByPlan:       []PlanIncome{},
	}
	w := a.windowsAt(now)
	today := plans.DateOf(now, a.loc())
	byKey := make(map[string]decimal.Decimal)

	var earliestJoin plans.Date
	for _, m := range members {
		if a.IsActive(m.Member, now) {
			s.ActiveMembers++
		}
		if !m.JoinDate.IsZero() && (earliestJoin.IsZero() || m.JoinDate.Before(earliestJoin)) {
			earliestJoin = m.JoinDate
		}

		for _, p := range m.Payments {
			s.Total = s.Total.Add(p.Amount)
			s.Count++
			byKey[p.PlanID] = byKey[p.PlanID].Add(p.Amount)
			w.add(&s, p.At, p.Amount)
		}
		for _, v := range m.Visits {
			if plans.DateOf(v.At, a.loc()).Equal(today) {
				s.VisitsToday++
			}
		}
	}
	s.InactiveMembers = s.TotalMembers - s.ActiveMembers

	for _, q := range quick {
		if plans.DateOf(q.At, a.loc()).Equal(today) {
			s.VisitsToday++
		}
		if !q.Amount.IsPositive() {
			continue
		}
		s.Total = s.Total.Add(q.Amount)
		s.Count++
		byKey[plans.DayPass] = byKey[plans.DayPass].Add(q.Amount)
		w.add(&s, q.At, q.Amount)
	}

	s.ByPlan = a.breakdown(byKey, s.Total)
	s.AverageDaily = s.Total.Div(decimal.NewFromInt(int64(a.elapsedDays(earliestJoin, now)))).Round(2)
	s.MonthlyProjection = s.Week.Amount.Div(seven).Mul(thirty).Round(2)
	return s
}

// breakdown is empty when there is no income.
func (a *Aggregator) breakdown(byKey map[string]decimal.Decimal, total decimal.Decimal) []PlanIncome {
	out := []PlanIncome{}
	if !total.IsPositive() {
		return out
	}
	for key, amount := range byKey {
		out = append(out, PlanIncome{
			Key:     key,
			Label:   a.label(key),
			Amount:  amount,
			Percent: amount.Div(total).Mul(hundred).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// elapsedDays counts days since the earliest join, never less than one.
func (a *Aggregator) elapsedDays(earliest plans.Date, now time.Time) int {
	if earliest.IsZero() {
		return 1
	}
	days := int(math.Ceil(now.Sub(earliest.StartIn(a.loc())).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// TodayItems lists today's payments and paid or unpaid quick visits, newest first.
func (a *Aggregator) TodayItems(members []membership.MemberView, quick []membership.QuickVisit, now time.Time) []TodayItem {
	w := a.windowsAt(now)
	items := []TodayItem{}
	for _, m := range members {
		for _, p := range m.Payments {
			if !within(p.At, w.todayStart, now) {
				continue
			}
			items = append(items, TodayItem{
				Kind:   ItemPayment,
				At:     p.At,
				Name:   displayName(p.MemberName, "Sin nombre"),
				Label:  a.label(p.PlanID),
				Amount: p.Amount,
			})
		}
	}
	for _, q := range quick {
		if !within(q.At, w.todayStart, now) {
			continue
		}
		items = append(items, TodayItem{
			Kind:   ItemQuickVisit,
			At:     q.At,
			Name:   displayName(q.Name, "Visitante"),
			Label:  "Visita (visitante)",
			Amount: q.Amount,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	return items
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
