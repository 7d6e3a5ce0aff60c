// internal/plans/catalog.go
package plans

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Well known plan identifiers.
const (
	DayPass      = "visita"
	Weekly       = "semana"
	Fortnight    = "15dias"
	MonthlyPromo = "mensualPromo"
	Student      = "estudiante"
	Monthly      = "mensual"
	Couples      = "parejas"
	Annual       = "anual"
)

var ErrInvalidPlan = errors.New("invalid plan")

// Every package that serializes amounts imports plans, so prices and
// payments travel as JSON numbers throughout.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// InvalidPlanError reports a plan identifier missing from the catalog.
type InvalidPlanError struct {
	PlanID string
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid plan %q", e.PlanID)
}

func (e *InvalidPlanError) Unwrap() error { return ErrInvalidPlan }

// Plan is a membership tier.
type Plan struct {
	ID           string          `json:"id"`
	DurationDays int             `json:"durationDays"`
	Price        decimal.Decimal `json:"price"`
	Label        string          `json:"label"`
}

// IsDayPass reports whether the plan covers a single day.
func (p Plan) IsDayPass() bool { return p.DurationDays == 0 }

// ExpiryOverride forces a fixed expiry date for a plan bought in a given quantity.
// ValidFrom/ValidUntil bound the join dates the rule applies to; zero means unbounded.
type ExpiryOverride struct {
	PlanID     string
	Quantity   int
	ExpiresOn  Date
	ValidFrom  Date
	ValidUntil Date
}

func (o ExpiryOverride) applies(planID string, quantity int, join Date) bool {
	if o.PlanID != planID || o.Quantity != quantity {
		return false
	}
	if !o.ValidFrom.IsZero() && join.Before(o.ValidFrom) {
		return false
	}
	if !o.ValidUntil.IsZero() && join.After(o.ValidUntil) {
		return false
	}
	return true
}

// Catalog is an immutable plan table. Build it once at startup.
type Catalog struct {
	order     []string
	plans     map[string]Plan
	overrides []ExpiryOverride
}

// NewCatalog builds a catalog. Plan ids must be unique and durations non-negative.
func NewCatalog(plans []Plan, overrides []ExpiryOverride) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(plans)),
		plans: make(map[string]Plan, len(plans)),
	}
	for _, p := range plans {
		if p.ID == "" {
			return nil, errors.New("plan id is required")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if p.DurationDays < 0 {
			return nil, fmt.Errorf("plan %q has negative duration", p.ID)
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	for _, o := range overrides {
		if _, ok := c.plans[o.PlanID]; !ok {
			return nil, fmt.Errorf("override references unknown plan %q", o.PlanID)
		}
	}
	c.overrides = append([]ExpiryOverride(nil), overrides...)
	return c, nil
}

// Default returns the gym's current price list.
func Default() *Catalog {
	c, err := NewCatalog([]Plan{
		{ID: DayPass, DurationDays: 0, Price: decimal.NewFromInt(50), Label: "Visita"},
		{ID: Weekly, DurationDays: 7, Price: decimal.NewFromInt(150), Label: "1 Semana"},
		{ID: Fortnight, DurationDays: 15, Price: decimal.NewFromInt(250), Label: "15 Días"},
		{ID: MonthlyPromo, DurationDays: 30, Price: decimal.NewFromInt(400), Label: "Mensual Promo Dic"},
		{ID: Student, DurationDays: 30, Price: decimal.NewFromInt(350), Label: "Promo Estudiantes"},
		{ID: Monthly, DurationDays: 30, Price: decimal.NewFromInt(500), Label: "Mensual"},
		{ID: Couples, DurationDays: 30, Price: decimal.NewFromInt(400), Label: "Parejas o Más"},
		{ID: Annual, DurationDays: 365, Price: decimal.NewFromInt(5000), Label: "Anual"},
	}, []ExpiryOverride{
		// December promo: a single month bought under the promo runs until Feb 1st.
		{PlanID: MonthlyPromo, Quantity: 1, ExpiresOn: NewDate(2026, 2, 1)},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup resolves a plan by id.
func (c *Catalog) Lookup(planID string) (Plan, bool) {
	p, ok := c.plans[planID]
	return p, ok
}

// Plans lists the catalog in display order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// Label returns the display label for a plan id, or the key itself for ad-hoc payment types.
func (c *Catalog) Label(key string) string {
	if p, ok := c.plans[key]; ok {
		return p.Label
	}
	return key
}

// Price returns the unit price of a known plan.
func (c *Catalog) Price(planID string) (decimal.Decimal, bool) {
	p, ok := c.plans[planID]
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}
