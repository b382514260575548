package models

import (
	"fmt"
	"time"
)

type GoalType string

const (
	GoalResidentialRent     GoalType = "residential_rent"
	GoalResidentialPurchase GoalType = "residential_purchase"
	GoalVehiclePurchase     GoalType = "vehicle_purchase"
	GoalVehicleLease        GoalType = "vehicle_lease"
	GoalElectronics         GoalType = "electronics"
	GoalGeneral             GoalType = "general"
)

type BudgetSource string

const (
	BudgetLiquidity      BudgetSource = "liquidity"
	BudgetLoan           BudgetSource = "loan"
	BudgetLiquidityLoan  BudgetSource = "liquidity + loan"
	BudgetMonthlyPayment BudgetSource = "monthly_payment"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// UserProfile is the financial profile extracted from one user message.
// All money amounts are in millions of Tomans.
type UserProfile struct {
	Liquidity              float64 `json:"liquidity"`
	LoanAmount             float64 `json:"loan_amount"`
	LoanAvailabilityMonths int     `json:"loan_availability_months"`
	MaxMonthlyPayment      float64 `json:"max_monthly_payment"`
	ExistingObligations    float64 `json:"existing_obligations"`
}

func (p UserProfile) TotalBudget() float64 {
	return p.Liquidity + p.LoanAmount
}

func (p UserProfile) EffectiveMonthlyBudget() float64 {
	return p.MaxMonthlyPayment - p.ExistingObligations
}

// SearchGoal is one discrete search objective derived from user text.
type SearchGoal struct {
	GoalID                 int               `json:"goal_id"`
	Type                   GoalType          `json:"type"`
	TargetLocation         string            `json:"target_location"`
	BudgetSource           BudgetSource      `json:"budget_source"`
	Priority               Priority          `json:"priority"`
	SearchType             string            `json:"search_type"`
	MinPrice               *float64          `json:"min_price,omitempty"`
	MaxPrice               *float64          `json:"max_price,omitempty"`
	MaxMonthlyLeasePayment *float64          `json:"max_monthly_lease_payment,omitempty"`
	AdditionalFilters      map[string]string `json:"additional_filters,omitempty"`
}

// NewSearchGoal validates the price range at construction.
func NewSearchGoal(goal SearchGoal) (SearchGoal, error) {
	if goal.MinPrice != nil && *goal.MinPrice < 0 {
		return SearchGoal{}, fmt.Errorf("goal %d: min_price must be non-negative", goal.GoalID)
	}
	if goal.MaxPrice != nil && *goal.MaxPrice < 0 {
		return SearchGoal{}, fmt.Errorf("goal %d: max_price must be non-negative", goal.GoalID)
	}
	if goal.MinPrice != nil && goal.MaxPrice != nil && *goal.MaxPrice < *goal.MinPrice {
		return SearchGoal{}, fmt.Errorf("goal %d: max_price %.1f below min_price %.1f",
			goal.GoalID, *goal.MaxPrice, *goal.MinPrice)
	}
	return goal, nil
}

// StructuredQuery is the output of the NLU stage and the input of query
// generation. Built once per processed message, never mutated afterwards.
type StructuredQuery struct {
	UserProfile UserProfile  `json:"user_profile"`
	SearchGoals []SearchGoal `json:"search_goals"`
	IsMultiGoal bool         `json:"is_multi_goal"`
	Confidence  float64      `json:"confidence"`
	Timestamp   time.Time    `json:"timestamp"`
}

func NewStructuredQuery(profile UserProfile, goals []SearchGoal, confidence float64) (*StructuredQuery, error) {
	if len(goals) == 0 {
		return nil, fmt.Errorf("structured query requires at least one search goal")
	}
	return &StructuredQuery{
		UserProfile: profile,
		SearchGoals: goals,
		IsMultiGoal: len(goals) > 1,
		Confidence:  confidence,
		Timestamp:   time.Now(),
	}, nil
}

// SearchQuery is a per-site query derived from a SearchGoal. Filters carry
// site-recognized field names only; Priority is 3/2/1 for high/medium/low.
type SearchQuery struct {
	SiteName   string            `json:"site"`
	GoalID     int               `json:"goal_id"`
	SearchType string            `json:"search_type"`
	Filters    map[string]any    `json:"filters"`
	Priority   int               `json:"priority"`
	Metadata   map[string]string `json:"metadata"`
}

// QueryPlan is the JSON form handed to the crawl orchestrator.
type QueryPlan struct {
	Queries      []SearchQuery `json:"queries"`
	TotalQueries int           `json:"total_queries"`
	Sites        []string      `json:"sites"`
}
