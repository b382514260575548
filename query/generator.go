package query

import (
	"sort"
	"strings"

	"sede/models"
)

// siteCapability describes which goal types a site can serve and which
// filter fields it recognizes.
type siteCapability struct {
	name     string
	supports []models.GoalType
	fields   []string
}

// capabilityTable is ordered: per-goal enumeration follows this order and
// the final stable sort preserves it for equal priorities.
var capabilityTable = []siteCapability{
	{
		name:     "divar",
		supports: []models.GoalType{models.GoalResidentialRent, models.GoalResidentialPurchase, models.GoalVehiclePurchase},
		fields:   []string{"category", "location", "price_min", "price_max", "rent_type"},
	},
	{
		name:     "sheypoor",
		supports: []models.GoalType{models.GoalResidentialRent, models.GoalResidentialPurchase, models.GoalVehiclePurchase},
		fields:   []string{"category", "location", "price_min", "price_max"},
	},
	{
		name:     "bama",
		supports: []models.GoalType{models.GoalVehiclePurchase, models.GoalVehicleLease},
		fields:   []string{"vehicle_type", "price_min", "price_max", "lease_monthly"},
	},
	{
		name:     "torob",
		supports: []models.GoalType{models.GoalElectronics, models.GoalGeneral},
		fields:   []string{"product_name", "price_min", "price_max"},
	},
	{
		name:     "digikala",
		supports: []models.GoalType{models.GoalElectronics, models.GoalGeneral},
		fields:   []string{"product_name", "price_min", "price_max"},
	},
}

// Generator expands a structured query into per-site search queries.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate emits one SearchQuery per (goal, supporting site) pair, skipping
// sites whose filter map comes out empty, sorted descending by priority.
func (g *Generator) Generate(sq *models.StructuredQuery) []models.SearchQuery {
	var queries []models.SearchQuery

	for _, goal := range sq.SearchGoals {
		for _, site := range capabilityTable {
			if !site.supportsType(goal.Type) {
				continue
			}
			if q, ok := buildSiteQuery(site.name, goal); ok {
				queries = append(queries, q)
			}
		}
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Priority > queries[j].Priority
	})

	return queries
}

// Plan packages generated queries in the JSON shape the orchestrator takes.
func (g *Generator) Plan(queries []models.SearchQuery) models.QueryPlan {
	plan := models.QueryPlan{
		Queries:      queries,
		TotalQueries: len(queries),
	}

	seen := make(map[string]bool)
	for _, q := range queries {
		if !seen[q.SiteName] {
			seen[q.SiteName] = true
			plan.Sites = append(plan.Sites, q.SiteName)
		}
	}

	return plan
}

func (s siteCapability) supportsType(t models.GoalType) bool {
	for _, supported := range s.supports {
		if supported == t {
			return true
		}
	}
	return false
}

func buildSiteQuery(site string, goal models.SearchGoal) (models.SearchQuery, bool) {
	var filters map[string]any

	switch site {
	case "divar", "sheypoor":
		filters = realEstateFilters(goal)
	case "bama":
		filters = vehicleFilters(goal)
	case "torob", "digikala":
		filters = productFilters(goal)
	}

	if len(filters) == 0 {
		return models.SearchQuery{}, false
	}

	return models.SearchQuery{
		SiteName:   site,
		GoalID:     goal.GoalID,
		SearchType: mapSearchType(site, goal),
		Filters:    filters,
		Priority:   numericPriority(goal.Priority),
		Metadata: map[string]string{
			"goal_type":       string(goal.Type),
			"target_location": goal.TargetLocation,
			"budget_source":   string(goal.BudgetSource),
		},
	}, true
}

// realEstateFilters covers Divar and Sheypoor. When only a max price is
// known, the min is synthesized at 80% of it to narrow the listing pages.
func realEstateFilters(goal models.SearchGoal) map[string]any {
	filters := make(map[string]any)

	if goal.TargetLocation != "" {
		filters["location"] = goal.TargetLocation
	}

	if goal.MaxPrice != nil {
		filters["price_max"] = int(*goal.MaxPrice)
	}
	if goal.MinPrice != nil {
		filters["price_min"] = int(*goal.MinPrice)
	} else if goal.MaxPrice != nil {
		filters["price_min"] = int(*goal.MaxPrice * 0.8)
	}

	switch goal.Type {
	case models.GoalResidentialRent:
		filters["category"] = "apartment-rent"
		if strings.Contains(goal.SearchType, "رهن کامل") {
			filters["rent_type"] = "full_deposit"
		} else {
			filters["rent_type"] = "deposit_rent"
		}
	case models.GoalResidentialPurchase:
		filters["category"] = "apartment-sell"
	}

	return filters
}

func vehicleFilters(goal models.SearchGoal) map[string]any {
	filters := make(map[string]any)

	if goal.MaxPrice != nil {
		filters["price_max"] = int(*goal.MaxPrice)
	}
	if goal.MinPrice != nil {
		filters["price_min"] = int(*goal.MinPrice)
	}
	if goal.MaxMonthlyLeasePayment != nil {
		filters["lease_monthly_max"] = int(*goal.MaxMonthlyLeasePayment)
	}

	if goal.Type == models.GoalVehicleLease {
		filters["search_type"] = "lease"
	} else {
		filters["search_type"] = "purchase"
	}

	return filters
}

func productFilters(goal models.SearchGoal) map[string]any {
	filters := make(map[string]any)

	if goal.MaxPrice != nil {
		filters["price_max"] = int(*goal.MaxPrice)
	}
	if goal.MinPrice != nil {
		filters["price_min"] = int(*goal.MinPrice)
	}
	if name := goal.AdditionalFilters["product_name"]; name != "" {
		filters["product_name"] = name
	}

	return filters
}

func mapSearchType(site string, goal models.SearchGoal) string {
	switch site {
	case "divar", "sheypoor":
		switch goal.Type {
		case models.GoalResidentialRent:
			return "rent"
		case models.GoalResidentialPurchase:
			return "purchase"
		}
	case "bama":
		if goal.Type == models.GoalVehicleLease {
			return "lease"
		}
		return "purchase"
	}
	return "general"
}

func numericPriority(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	default:
		return 1
	}
}

// SupportedSites reports how many sites in the capability table serve a goal
// type.
func SupportedSites(t models.GoalType) []string {
	var sites []string
	for _, site := range capabilityTable {
		if site.supportsType(t) {
			sites = append(sites, site.name)
		}
	}
	return sites
}
