package plans

import "time"

// BillingCycle is the cadence a plan bills on
type BillingCycle string

// Supported billing cycles
const (
	BillingCycleMonthly BillingCycle = "MONTHLY"
	BillingCycleAnnual  BillingCycle = "ANNUAL"
)

// IsValid reports whether the billing cycle is a known value
func (c BillingCycle) IsValid() bool {
	return c == BillingCycleMonthly || c == BillingCycleAnnual
}

// Plan represents a subscription plan
type Plan struct {
	PlanID       int64        `json:"plan_id"`
	PlanName     string       `json:"plan_name"`
	MonthlyPrice float64      `json:"monthly_price"`
	BillingCycle BillingCycle `json:"billing_cycle"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CreatePlanRequest is the payload for creating a plan
type CreatePlanRequest struct {
	PlanName     string       `json:"plan_name"`
	MonthlyPrice *float64     `json:"monthly_price"`
	BillingCycle BillingCycle `json:"billing_cycle"`
}

// PlanPatch carries optional plan fields for a partial update.
// Nil fields are left unchanged.
type PlanPatch struct {
	PlanName     *string       `json:"plan_name"`
	MonthlyPrice *float64      `json:"monthly_price"`
	BillingCycle *BillingCycle `json:"billing_cycle"`
	IsActive     *bool         `json:"is_active"`
}
