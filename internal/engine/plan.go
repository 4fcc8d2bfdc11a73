package engine

import (
	"context"
	"fmt"
	"strings"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanTier1 Plan = "tier1"
	PlanTier2 Plan = "tier2"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanTier1, PlanTier2:
		return true
	default:
		return false
	}
}

// PlanMaxLevels is the level ceiling of each plan.
var PlanMaxLevels = map[Plan]int{
	PlanFree:  5,
	PlanTier1: 10,
	PlanTier2: 15,
}

// SubscriptionPlan is the gate input supplied by the billing side.
type SubscriptionPlan struct {
	Plan     Plan `json:"plan"`
	MaxLevel int  `json:"maxLevel"`
}

// FreePlan is the most conservative plan, used whenever plan data is missing.
func FreePlan() SubscriptionPlan {
	return SubscriptionPlan{Plan: PlanFree, MaxLevel: PlanMaxLevels[PlanFree]}
}

// SubscriptionFor returns the standard plan definition for p.
func SubscriptionFor(p Plan) SubscriptionPlan {
	if !p.IsValid() {
		return FreePlan()
	}
	return SubscriptionPlan{Plan: p, MaxLevel: PlanMaxLevels[p]}
}

// ParsePlan parses user input to a Plan.
func ParsePlan(input string) (Plan, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "", "free", "gratis":
		return PlanFree, nil
	case "tier1", "pro":
		return PlanTier1, nil
	case "tier2", "premium":
		return PlanTier2, nil
	default:
		return "", fmt.Errorf("invalid plan: %q", input)
	}
}

// PlanProvider supplies the caller's current subscription.
type PlanProvider interface {
	Plan(ctx context.Context) (SubscriptionPlan, error)
}

// StaticPlan is a PlanProvider that always returns the same plan.
type StaticPlan SubscriptionPlan

func (p StaticPlan) Plan(context.Context) (SubscriptionPlan, error) {
	return SubscriptionPlan(p), nil
}

// PlanFunc adapts a function to PlanProvider.
type PlanFunc func(ctx context.Context) (SubscriptionPlan, error)

func (f PlanFunc) Plan(ctx context.Context) (SubscriptionPlan, error) { return f(ctx) }
