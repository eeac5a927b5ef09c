package domain

import "time"

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Account is the per-user record persisted in the account store.
// UsageCount is meaningful only together with LastUsageDate: a counter
// carried over from a prior date is stale and must be treated as zero.
type Account struct {
	ID            string
	Email         string
	DisplayName   string
	Plan          Plan
	UsageCount    int
	LastUsageDate string // YYYY-MM-DD, empty when the account never mined
	UpgradeCode   string
	UpgradedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFree reports whether the account is on the free plan.
func (a Account) IsFree() bool {
	return a.Plan == PlanFree
}
