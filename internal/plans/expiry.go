// internal/plans/expiry.go
package plans

// ComputeExpiry returns the last covered day for a purchase of quantity units of planID made on join.
func (c *Catalog) ComputeExpiry(join Date, planID string, quantity int) (Date, error) {
	plan, ok := c.Lookup(planID)
	if !ok {
		return Date{}, &InvalidPlanError{PlanID: planID}
	}
	if quantity < 1 {
		quantity = 1
	}

	if plan.IsDayPass() {
		return join, nil
	}

	for _, o := range c.overrides {
		if o.applies(planID, quantity, join) {
			return o.ExpiresOn, nil
		}
	}

	return join.AddDays(plan.DurationDays * quantity), nil
}
