package query

import (
	"testing"

	"sede/models"
)

func floatPtr(v float64) *float64 { return &v }

func mustQuery(t *testing.T, goals ...models.SearchGoal) *models.StructuredQuery {
	t.Helper()
	sq, err := models.NewStructuredQuery(models.UserProfile{Liquidity: 600}, goals, 0.8)
	if err != nil {
		t.Fatalf("NewStructuredQuery failed: %v", err)
	}
	return sq
}

func TestGenerate_RentGoal(t *testing.T) {
	g := NewGenerator()

	sq := mustQuery(t, models.SearchGoal{
		GoalID:         1,
		Type:           models.GoalResidentialRent,
		TargetLocation: "اکباتان",
		Priority:       models.PriorityHigh,
		SearchType:     "رهن و اجاره",
		MaxPrice:       floatPtr(600),
	})

	queries := g.Generate(sq)
	if len(queries) != 2 {
		t.Fatalf("expected queries for divar and sheypoor, got %d", len(queries))
	}

	for _, q := range queries {
		if q.SiteName != "divar" && q.SiteName != "sheypoor" {
			t.Fatalf("unexpected site %q for rent goal", q.SiteName)
		}
		if q.SearchType != "rent" {
			t.Fatalf("expected search type rent, got %q", q.SearchType)
		}
		if q.Filters["location"] != "اکباتان" {
			t.Fatalf("expected location filter, got %v", q.Filters["location"])
		}
		if q.Filters["price_max"] != 600 {
			t.Fatalf("expected price_max 600, got %v", q.Filters["price_max"])
		}
		// min synthesized at 80% of max when absent
		if q.Filters["price_min"] != 480 {
			t.Fatalf("expected synthesized price_min 480, got %v", q.Filters["price_min"])
		}
		if q.Filters["rent_type"] != "deposit_rent" {
			t.Fatalf("expected deposit_rent, got %v", q.Filters["rent_type"])
		}
		if q.Priority != 3 {
			t.Fatalf("expected priority 3, got %d", q.Priority)
		}
	}
}

func TestGenerate_FullDepositRentType(t *testing.T) {
	g := NewGenerator()

	sq := mustQuery(t, models.SearchGoal{
		GoalID:     1,
		Type:       models.GoalResidentialRent,
		Priority:   models.PriorityHigh,
		SearchType: "رهن کامل",
		MaxPrice:   floatPtr(500),
	})

	queries := g.Generate(sq)
	if len(queries) == 0 {
		t.Fatalf("expected queries")
	}
	if queries[0].Filters["rent_type"] != "full_deposit" {
		t.Fatalf("expected full_deposit, got %v", queries[0].Filters["rent_type"])
	}
}

func TestGenerate_VehicleLease(t *testing.T) {
	g := NewGenerator()

	sq := mustQuery(t, models.SearchGoal{
		GoalID:                 1,
		Type:                   models.GoalVehicleLease,
		Priority:               models.PriorityHigh,
		MaxMonthlyLeasePayment: floatPtr(15),
	})

	queries := g.Generate(sq)
	if len(queries) != 1 {
		t.Fatalf("expected only bama for vehicle lease, got %d", len(queries))
	}
	q := queries[0]
	if q.SiteName != "bama" {
		t.Fatalf("expected bama, got %q", q.SiteName)
	}
	if q.SearchType != "lease" {
		t.Fatalf("expected lease, got %q", q.SearchType)
	}
	if q.Filters["lease_monthly_max"] != 15 {
		t.Fatalf("expected lease_monthly_max 15, got %v", q.Filters["lease_monthly_max"])
	}
}

func TestGenerate_SkipsEmptyFilterSites(t *testing.T) {
	g := NewGenerator()

	// Electronics goal with no price and no product name yields nothing for
	// torob or digikala.
	sq := mustQuery(t, models.SearchGoal{
		GoalID:   1,
		Type:     models.GoalElectronics,
		Priority: models.PriorityHigh,
	})

	queries := g.Generate(sq)
	if len(queries) != 0 {
		t.Fatalf("expected no queries for empty filters, got %d", len(queries))
	}
}

func TestGenerate_PrioritySortDescending(t *testing.T) {
	g := NewGenerator()

	sq := mustQuery(t,
		models.SearchGoal{
			GoalID:   1,
			Type:     models.GoalElectronics,
			Priority: models.PriorityMedium,
			MaxPrice: floatPtr(30),
		},
		models.SearchGoal{
			GoalID:   2,
			Type:     models.GoalResidentialRent,
			Priority: models.PriorityHigh,
			MaxPrice: floatPtr(600),
		},
	)

	queries := g.Generate(sq)
	if len(queries) != 4 {
		t.Fatalf("expected 4 queries (2 product sites + 2 real estate sites), got %d", len(queries))
	}

	for i := 1; i < len(queries); i++ {
		if queries[i].Priority > queries[i-1].Priority {
			t.Fatalf("queries not sorted by priority: %d after %d", queries[i].Priority, queries[i-1].Priority)
		}
	}
	if queries[0].GoalID != 2 {
		t.Fatalf("expected high priority goal first, got goal %d", queries[0].GoalID)
	}

	// Stable sort keeps capability-table order within equal priorities.
	if queries[0].SiteName != "divar" || queries[1].SiteName != "sheypoor" {
		t.Fatalf("expected divar then sheypoor for the high priority goal, got %q, %q",
			queries[0].SiteName, queries[1].SiteName)
	}
}

func TestPlan(t *testing.T) {
	g := NewGenerator()

	sq := mustQuery(t, models.SearchGoal{
		GoalID:   1,
		Type:     models.GoalResidentialPurchase,
		Priority: models.PriorityHigh,
		MaxPrice: floatPtr(900),
	})

	queries := g.Generate(sq)
	plan := g.Plan(queries)

	if plan.TotalQueries != len(queries) {
		t.Fatalf("total queries mismatch: %d vs %d", plan.TotalQueries, len(queries))
	}
	if len(plan.Sites) != 2 {
		t.Fatalf("expected 2 distinct sites, got %v", plan.Sites)
	}

	seen := make(map[string]bool)
	for _, site := range plan.Sites {
		if seen[site] {
			t.Fatalf("duplicate site %q in plan", site)
		}
		seen[site] = true
	}
}

func TestSupportedSites(t *testing.T) {
	if got := SupportedSites(models.GoalResidentialRent); len(got) != 2 {
		t.Fatalf("expected 2 sites for rent, got %v", got)
	}
	if got := SupportedSites(models.GoalVehiclePurchase); len(got) != 3 {
		t.Fatalf("expected 3 sites for vehicle purchase, got %v", got)
	}
	if got := SupportedSites(models.GoalElectronics); len(got) != 2 {
		t.Fatalf("expected 2 sites for electronics, got %v", got)
	}
}
