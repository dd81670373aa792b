package enums

import "fmt"

// SubscriptionPlan is the locally mirrored entitlement tier of a user.
type SubscriptionPlan string

const (
	SubscriptionPlanFree    SubscriptionPlan = "free"
	SubscriptionPlanPremium SubscriptionPlan = "premium"
)

// String implements fmt.Stringer.
func (p SubscriptionPlan) String() string {
	return string(p)
}

// IsValid reports whether the value is a known SubscriptionPlan.
func (p SubscriptionPlan) IsValid() bool {
	switch p {
	case SubscriptionPlanFree, SubscriptionPlanPremium:
		return true
	}
	return false
}

func (p SubscriptionPlan) IsPremium() bool {
	return p == SubscriptionPlanPremium
}

// ParseSubscriptionPlan converts raw input into a SubscriptionPlan.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	plan := SubscriptionPlan(value)
	if !plan.IsValid() {
		return "", fmt.Errorf("invalid subscription plan %q", value)
	}
	return plan, nil
}
