package usage

import "github.com/cellarwise/cellarwise-backend/pkg/enums"

// Unlimited marks a ceiling that is never enforced.
const Unlimited = -1

// FreePlanCeiling is the per-kind row ceiling on the free plan.
const FreePlanCeiling = 3

// Limits holds the row ceilings of one plan.
type Limits struct {
	SavedWines    int `json:"savedWines"`
	UploadedWines int `json:"uploadedWines"`
}

// For returns the ceiling for kind.
func (l Limits) For(kind enums.UsageKind) int {
	switch kind {
	case enums.UsageKindSaved:
		return l.SavedWines
	case enums.UsageKindUploaded:
		return l.UploadedWines
	}
	return 0
}

// PlanLimits maps each plan to its ceilings.
var PlanLimits = map[enums.SubscriptionPlan]Limits{
	enums.SubscriptionPlanFree:    {SavedWines: FreePlanCeiling, UploadedWines: FreePlanCeiling},
	enums.SubscriptionPlanPremium: {SavedWines: Unlimited, UploadedWines: Unlimited},
}

// LimitsFor falls back to the free plan for unknown values.
func LimitsFor(plan enums.SubscriptionPlan) Limits {
	if l, ok := PlanLimits[plan]; ok {
		return l
	}
	return PlanLimits[enums.SubscriptionPlanFree]
}
