package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"sede/models"
)

// MoneyEntity is one money mention found in the text, normalized to millions
// of Tomans.
type MoneyEntity struct {
	Value      float64
	Confidence float64
	Start      int
	End        int
	RawText    string
}

// LoanInfo carries the first loan amount and availability window found.
type LoanInfo struct {
	Amount float64
	Months int
}

// SearchTypeInfo is the outcome of the search-type rule chain.
type SearchTypeInfo struct {
	Type       models.GoalType
	SearchType string
	IsRent     bool
	IsPurchase bool
	IsLease    bool
}

// Entities is the full extraction result for one message.
type Entities struct {
	MoneyEntities    []MoneyEntity
	Locations        []string
	LoanInfo         LoanInfo
	MonthlyPayment   float64
	SearchTypeInfo   SearchTypeInfo
	PrimaryLiquidity float64
}

// EntityExtractor finds money amounts, loan terms, monthly payments,
// locations and goal-type signals in free-form Persian text.
type EntityExtractor struct {
	moneyPatterns   []*regexp.Regexp
	monthlyPatterns []*regexp.Regexp
	loanPatterns    []*regexp.Regexp
	timePatterns    []*regexp.Regexp

	locationKeywords []string
	locationPatterns []*regexp.Regexp

	searchTypeRules []searchTypeRule
}

type searchTypeRule struct {
	name  string
	apply func(text string, info *SearchTypeInfo)
}

func NewEntityExtractor() *EntityExtractor {
	e := &EntityExtractor{
		// Pattern order matters: the first entity in this order is taken as
		// the primary liquidity.
		moneyPatterns: compileAll(
			`(?i)(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)\s*(?:تومان|تومن)?`,
			`(?i)(\d+(?:\.\d+)?)\s*(?:هزار|k)\s*(?:تومان|تومن)?`,
			`(?i)(\d+(?:\.\d+)?)\s*(?:میلیارد|بیلیون|b)\s*(?:تومان|تومن)?`,
			`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:تومان|تومن)`,
		),
		monthlyPatterns: compileAll(
			`(?i)ماهی\s*(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)`,
			`(?i)ماهانه\s*(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)`,
			`(?i)قسط\s*(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)`,
		),
		loanPatterns: compileAll(
			`(?i)وام\s*(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)`,
			`(?i)(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)\s*وام`,
			`(?i)قرض\s*(\d+(?:\.\d+)?)\s*(?:میلیون|ملیون|م|M)`,
		),
		timePatterns: compileAll(
			`(\d+)\s*ماه\s*(?:دیگه|دیگر|آینده|بعد)`,
			`(\d+)\s*ماه\s*(?:بعد|بعدا)`,
			`تا\s*(\d+)\s*ماه\s*(?:دیگه|دیگر|آینده)`,
		),
		locationKeywords: []string{
			"تهران", "اکباتان", "ولیعصر", "تجریش", "ونک", "پاسداران",
			"شهرک غرب", "سعادت آباد", "میرداماد", "گیشا", "جنت آباد",
		},
		locationPatterns: compileAll(
			`(?:در|از|به)\s*(.+?)(?:\s|$|،|\.)`,
			`منطقه\s*(.+?)(?:\s|$|،|\.)`,
			`محله\s*(.+?)(?:\s|$|،|\.)`,
		),
	}
	e.searchTypeRules = searchTypeRuleChain()
	return e
}

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// NormalizeMoney converts a matched numeric literal and its unit token to
// millions of Tomans: thousands divide by 1000, billions multiply by 1000,
// millions and bare currency amounts pass through.
func NormalizeMoney(value string, unit string) float64 {
	num, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0
	}

	unitLower := strings.ToLower(unit)
	switch {
	case strings.Contains(unitLower, "هزار") || strings.Contains(unitLower, "k"):
		return num / 1000.0
	case strings.Contains(unitLower, "میلیارد") || strings.Contains(unitLower, "b"):
		return num * 1000.0
	default:
		return num
	}
}

// ExtractMoneyEntities scans with each money pattern independently. Matches
// from different patterns are not deduplicated against each other, so
// overlapping spans can yield duplicate entities. That mirrors the scanning
// order used to pick the primary liquidity.
func (e *EntityExtractor) ExtractMoneyEntities(text string) []MoneyEntity {
	var entities []MoneyEntity

	for _, pattern := range e.moneyPatterns {
		for _, idx := range pattern.FindAllStringSubmatchIndex(text, -1) {
			raw := text[idx[0]:idx[1]]
			value := text[idx[2]:idx[3]]

			entities = append(entities, MoneyEntity{
				Value:      NormalizeMoney(value, raw),
				Confidence: 0.9,
				Start:      idx[0],
				End:        idx[1],
				RawText:    raw,
			})
		}
	}

	return entities
}

// ExtractLoanInfo returns the first loan-amount match and the first
// time-expression match. The two scans are independent.
func (e *EntityExtractor) ExtractLoanInfo(text string) LoanInfo {
	var info LoanInfo

	for _, pattern := range e.loanPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			info.Amount = NormalizeMoney(m[1], m[0])
			break
		}
	}

	for _, pattern := range e.timePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if months, err := strconv.Atoi(m[1]); err == nil {
				info.Months = months
			}
			break
		}
	}

	return info
}

func (e *EntityExtractor) ExtractMonthlyPayment(text string) float64 {
	for _, pattern := range e.monthlyPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return NormalizeMoney(m[1], m[0])
		}
	}
	return 0
}

// ExtractLocations unions gazetteer hits with marker-word captures longer
// than two characters, deduplicated in first-seen order.
func (e *EntityExtractor) ExtractLocations(text string) []string {
	var locations []string
	seen := make(map[string]bool)

	add := func(loc string) {
		if loc == "" || seen[loc] {
			return
		}
		seen[loc] = true
		locations = append(locations, loc)
	}

	for _, keyword := range e.locationKeywords {
		if strings.Contains(text, keyword) {
			add(keyword)
		}
	}

	for _, pattern := range e.locationPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			captured := strings.TrimSpace(m[1])
			if len([]rune(captured)) > 2 {
				add(captured)
			}
		}
	}

	return locations
}

// searchTypeRuleChain is the fixed last-writer-wins precedence chain for
// goal-type classification. Rules run in this exact order; later rules may
// override the type set by earlier ones.
func searchTypeRuleChain() []searchTypeRule {
	return []searchTypeRule{
		{
			name: "rent",
			apply: func(text string, info *SearchTypeInfo) {
				if !containsAny(text, "رهن", "اجاره", "رهن کامل") {
					return
				}
				info.IsRent = true
				info.Type = models.GoalResidentialRent
				if strings.Contains(text, "رهن کامل") {
					info.SearchType = "رهن کامل"
				} else {
					info.SearchType = "رهن و اجاره"
				}
			},
		},
		{
			name: "purchase",
			apply: func(text string, info *SearchTypeInfo) {
				if !containsAny(text, "خرید", "تهیه", "بگیرم") {
					return
				}
				info.IsPurchase = true
				if info.Type == "" {
					info.Type = models.GoalResidentialPurchase
				}
			},
		},
		{
			name: "vehicle",
			apply: func(text string, info *SearchTypeInfo) {
				if !containsAny(text, "ماشین", "خودرو", "اتومبیل") {
					return
				}
				if info.IsPurchase {
					info.Type = models.GoalVehiclePurchase
				} else if info.IsLease {
					info.Type = models.GoalVehicleLease
				}
			},
		},
		{
			name: "lease",
			apply: func(text string, info *SearchTypeInfo) {
				if !containsAny(text, "لیزینگ", "قسط", "اقساط") {
					return
				}
				info.IsLease = true
				if containsAny(text, "ماشین", "خودرو") {
					info.Type = models.GoalVehicleLease
				}
			},
		},
	}
}

func (e *EntityExtractor) ExtractSearchType(text string) SearchTypeInfo {
	var info SearchTypeInfo
	lower := strings.ToLower(text)
	for _, rule := range e.searchTypeRules {
		rule.apply(lower, &info)
	}
	return info
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ExtractAll runs every extractor over the text. PrimaryLiquidity is the
// value of the first money entity in pattern-list order, a positional
// heuristic that does not distinguish cash from loan mentions.
func (e *EntityExtractor) ExtractAll(text string) Entities {
	entities := Entities{
		MoneyEntities:  e.ExtractMoneyEntities(text),
		Locations:      e.ExtractLocations(text),
		LoanInfo:       e.ExtractLoanInfo(text),
		MonthlyPayment: e.ExtractMonthlyPayment(text),
		SearchTypeInfo: e.ExtractSearchType(text),
	}

	if len(entities.MoneyEntities) > 0 {
		entities.PrimaryLiquidity = entities.MoneyEntities[0].Value
	}

	return entities
}

// BuildUserProfile maps extracted amounts onto the financial profile.
func (e *EntityExtractor) BuildUserProfile(entities Entities) models.UserProfile {
	return models.UserProfile{
		Liquidity:              entities.PrimaryLiquidity,
		LoanAmount:             entities.LoanInfo.Amount,
		LoanAvailabilityMonths: entities.LoanInfo.Months,
		MaxMonthlyPayment:      entities.MonthlyPayment,
	}
}

// BuildSearchGoals emits one goal per detected location, or a single goal
// with empty location when none was found. Goal IDs are sequential from 1,
// the first goal gets high priority, the rest medium.
func (e *EntityExtractor) BuildSearchGoals(entities Entities, profile models.UserProfile) ([]models.SearchGoal, error) {
	goalType := entities.SearchTypeInfo.Type
	if goalType == "" {
		goalType = models.GoalGeneral
	}

	searchType := entities.SearchTypeInfo.SearchType
	if searchType == "" {
		searchType = "عمومی"
	}

	budgetSource := selectBudgetSource(profile)

	var maxPrice *float64
	if total := profile.TotalBudget(); total > 0 {
		maxPrice = &total
	}
	var maxLease *float64
	if profile.MaxMonthlyPayment > 0 {
		monthly := profile.MaxMonthlyPayment
		maxLease = &monthly
	}

	locations := entities.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	goals := make([]models.SearchGoal, 0, len(locations))
	for i, location := range locations {
		priority := models.PriorityMedium
		if i == 0 {
			priority = models.PriorityHigh
		}

		goal, err := models.NewSearchGoal(models.SearchGoal{
			GoalID:                 i + 1,
			Type:                   goalType,
			TargetLocation:         location,
			BudgetSource:           budgetSource,
			Priority:               priority,
			SearchType:             searchType,
			MaxPrice:               maxPrice,
			MaxMonthlyLeasePayment: maxLease,
		})
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	return goals, nil
}

// selectBudgetSource is an ordered precedence chain: both positive wins,
// then loan only, then monthly payment only, then the liquidity default.
func selectBudgetSource(profile models.UserProfile) models.BudgetSource {
	switch {
	case profile.LoanAmount > 0 && profile.Liquidity > 0:
		return models.BudgetLiquidityLoan
	case profile.LoanAmount > 0:
		return models.BudgetLoan
	case profile.MaxMonthlyPayment > 0:
		return models.BudgetMonthlyPayment
	default:
		return models.BudgetLiquidity
	}
}
