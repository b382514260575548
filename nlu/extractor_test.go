package nlu

import (
	"testing"

	"sede/models"
)

func TestNormalizeMoney(t *testing.T) {
	cases := []struct {
		value string
		unit  string
		want  float64
	}{
		{"500", "500 میلیون", 500},
		{"500", "500 هزار تومان", 0.5},
		{"2", "2 میلیارد", 2000},
		{"3.5", "3.5 میلیون تومان", 3.5},
		{"1,500", "1,500 تومان", 1500},
		{"750", "750k", 0.75},
		{"1", "1b", 1000},
		{"abc", "abc میلیون", 0},
	}

	for _, tc := range cases {
		got := NormalizeMoney(tc.value, tc.unit)
		if got != tc.want {
			t.Fatalf("NormalizeMoney(%q, %q) = %v, want %v", tc.value, tc.unit, got, tc.want)
		}
	}
}

func TestExtractMoneyEntities(t *testing.T) {
	e := NewEntityExtractor()

	entities := e.ExtractMoneyEntities("من 600 میلیون نقد دارم")
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Value != 600 {
		t.Fatalf("expected 600, got %v", entities[0].Value)
	}
	if entities[0].Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", entities[0].Confidence)
	}
}

func TestExtractMoneyEntities_PatternOrder(t *testing.T) {
	e := NewEntityExtractor()

	// The million pattern scans before the thousand pattern, so the million
	// amount comes first even though it appears later in the text.
	entities := e.ExtractMoneyEntities("پس‌انداز 500 هزار تومان و وام 200 میلیون دارم")
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].Value != 200 {
		t.Fatalf("expected first entity 200, got %v", entities[0].Value)
	}
	if entities[1].Value != 0.5 {
		t.Fatalf("expected second entity 0.5, got %v", entities[1].Value)
	}
}

func TestExtractLoanInfo(t *testing.T) {
	e := NewEntityExtractor()

	info := e.ExtractLoanInfo("وام 200 میلیون که 6 ماه دیگه آزاد میشه")
	if info.Amount != 200 {
		t.Fatalf("expected loan amount 200, got %v", info.Amount)
	}
	if info.Months != 6 {
		t.Fatalf("expected 6 months, got %d", info.Months)
	}

	empty := e.ExtractLoanInfo("هیچ وامی ندارم")
	if empty.Amount != 0 || empty.Months != 0 {
		t.Fatalf("expected zero loan info, got %+v", empty)
	}
}

func TestExtractMonthlyPayment(t *testing.T) {
	e := NewEntityExtractor()

	if got := e.ExtractMonthlyPayment("ماهی 15 میلیون میتونم بدم"); got != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
	if got := e.ExtractMonthlyPayment("قسط 8 میلیون"); got != 8 {
		t.Fatalf("expected 8, got %v", got)
	}
	if got := e.ExtractMonthlyPayment("بدون قسط"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestExtractLocations(t *testing.T) {
	e := NewEntityExtractor()

	locations := e.ExtractLocations("می‌خواهم در اکباتان رهن کنم")
	if len(locations) == 0 {
		t.Fatalf("expected at least one location")
	}
	if locations[0] != "اکباتان" {
		t.Fatalf("expected اکباتان first, got %q", locations[0])
	}

	// Gazetteer hits come before marker-word captures, in list order.
	locations = e.ExtractLocations("خانه در اکباتان یا تهران")
	if locations[0] != "تهران" {
		t.Fatalf("expected تهران first (gazetteer order), got %q", locations[0])
	}

	for i, loc := range locations {
		for j := i + 1; j < len(locations); j++ {
			if loc == locations[j] {
				t.Fatalf("duplicate location %q at %d and %d", loc, i, j)
			}
		}
	}
}

func TestExtractSearchType_RuleChain(t *testing.T) {
	e := NewEntityExtractor()

	cases := []struct {
		text       string
		wantType   models.GoalType
		searchType string
	}{
		{"می‌خواهم آپارتمان رهن کنم", models.GoalResidentialRent, "رهن و اجاره"},
		{"رهن کامل در اکباتان", models.GoalResidentialRent, "رهن کامل"},
		{"خرید آپارتمان", models.GoalResidentialPurchase, ""},
		{"خرید ماشین", models.GoalVehiclePurchase, ""},
		{"ماشین با اقساط", models.GoalVehicleLease, ""},
		{"یک چیزی بخواهم", "", ""},
	}

	for _, tc := range cases {
		info := e.ExtractSearchType(tc.text)
		if info.Type != tc.wantType {
			t.Fatalf("ExtractSearchType(%q) type = %q, want %q", tc.text, info.Type, tc.wantType)
		}
		if tc.searchType != "" && info.SearchType != tc.searchType {
			t.Fatalf("ExtractSearchType(%q) search type = %q, want %q", tc.text, info.SearchType, tc.searchType)
		}
	}
}

func TestExtractSearchType_LaterRuleOverrides(t *testing.T) {
	e := NewEntityExtractor()

	// Rent fires first, then purchase leaves it, then vehicle overrides
	// because purchase also fired.
	info := e.ExtractSearchType("رهن یا خرید ماشین")
	if info.Type != models.GoalVehiclePurchase {
		t.Fatalf("expected vehicle_purchase after override, got %q", info.Type)
	}
	if !info.IsRent || !info.IsPurchase {
		t.Fatalf("expected both rent and purchase flags, got %+v", info)
	}
}

func TestExtractAll_PrimaryLiquidity(t *testing.T) {
	e := NewEntityExtractor()

	entities := e.ExtractAll("من 600 میلیون نقد دارم و وام 200 میلیون")
	if entities.PrimaryLiquidity != 600 {
		t.Fatalf("expected primary liquidity 600, got %v", entities.PrimaryLiquidity)
	}

	empty := e.ExtractAll("بدون پول")
	if empty.PrimaryLiquidity != 0 {
		t.Fatalf("expected zero primary liquidity, got %v", empty.PrimaryLiquidity)
	}
}

func TestBuildSearchGoals(t *testing.T) {
	e := NewEntityExtractor()

	entities := e.ExtractAll("من 600 میلیون دارم و می‌خواهم در اکباتان یا گیشا رهن کنم")
	profile := e.BuildUserProfile(entities)
	goals, err := e.BuildSearchGoals(entities, profile)
	if err != nil {
		t.Fatalf("BuildSearchGoals failed: %v", err)
	}

	if len(goals) < 2 {
		t.Fatalf("expected one goal per location, got %d", len(goals))
	}
	if goals[0].GoalID != 1 || goals[1].GoalID != 2 {
		t.Fatalf("expected sequential goal ids, got %d, %d", goals[0].GoalID, goals[1].GoalID)
	}
	if goals[0].Priority != models.PriorityHigh {
		t.Fatalf("expected first goal high priority, got %q", goals[0].Priority)
	}
	if goals[1].Priority != models.PriorityMedium {
		t.Fatalf("expected second goal medium priority, got %q", goals[1].Priority)
	}
	if goals[0].Type != models.GoalResidentialRent {
		t.Fatalf("expected residential_rent, got %q", goals[0].Type)
	}
	if goals[0].MaxPrice == nil || *goals[0].MaxPrice != 600 {
		t.Fatalf("expected max price 600, got %v", goals[0].MaxPrice)
	}
}

func TestBuildSearchGoals_NoLocation(t *testing.T) {
	e := NewEntityExtractor()

	entities := e.ExtractAll("خرید گوشی با 30 میلیون")
	profile := e.BuildUserProfile(entities)
	goals, err := e.BuildSearchGoals(entities, profile)
	if err != nil {
		t.Fatalf("BuildSearchGoals failed: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected single goal without location, got %d", len(goals))
	}
	if goals[0].TargetLocation != "" {
		t.Fatalf("expected empty location, got %q", goals[0].TargetLocation)
	}
}

func TestSelectBudgetSource(t *testing.T) {
	cases := []struct {
		profile models.UserProfile
		want    models.BudgetSource
	}{
		{models.UserProfile{Liquidity: 100, LoanAmount: 50}, models.BudgetLiquidityLoan},
		{models.UserProfile{LoanAmount: 50}, models.BudgetLoan},
		{models.UserProfile{MaxMonthlyPayment: 10}, models.BudgetMonthlyPayment},
		{models.UserProfile{Liquidity: 100}, models.BudgetLiquidity},
		{models.UserProfile{}, models.BudgetLiquidity},
	}

	for _, tc := range cases {
		if got := selectBudgetSource(tc.profile); got != tc.want {
			t.Fatalf("selectBudgetSource(%+v) = %q, want %q", tc.profile, got, tc.want)
		}
	}
}
