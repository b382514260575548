package crawler

import (
	"sort"
	"strings"
	"time"

	"sede/models"
)

// Normalizer merges crawl results across sources into one deduplicated,
// scored, ranked item set.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// completeness weights; the denominator is their sum.
const completenessDenominator = 10.0

// NormalizeBatch concatenates items from successful results, drops later
// duplicates of the same URL, recomputes completeness, and sorts descending
// by (confidence, completeness). The output is stable under input
// reordering as long as distinct URLs map to distinct items.
func (n *Normalizer) NormalizeBatch(batch models.CrawlBatchResult) models.NormalizedResult {
	var all []models.CrawledItem
	for _, result := range batch.Results {
		if result.Success {
			all = append(all, result.Items...)
		}
	}

	seen := make(map[string]bool)
	kept := make([]models.CrawledItem, 0, len(all))
	for _, item := range all {
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		kept = append(kept, n.normalizeItem(item))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].ConfidenceScore != kept[j].ConfidenceScore {
			return kept[i].ConfidenceScore > kept[j].ConfidenceScore
		}
		return kept[i].CompletenessScore > kept[j].CompletenessScore
	})

	var sources []string
	seenSource := make(map[string]bool)
	for _, item := range kept {
		if !seenSource[item.SourceSite] {
			seenSource[item.SourceSite] = true
			sources = append(sources, item.SourceSite)
		}
	}

	return models.NormalizedResult{
		Success:    true,
		TotalItems: len(kept),
		Items:      kept,
		Sources:    sources,
		Timestamp:  time.Now(),
		Metadata: models.NormalizedMetadata{
			NormalizationApplied: true,
			DuplicatesRemoved:    len(all) - len(kept),
		},
	}
}

func (n *Normalizer) normalizeItem(item models.CrawledItem) models.CrawledItem {
	item.Title = normalizeText(item.Title)
	item.Description = normalizeText(item.Description)
	item.Location = normalizeLocation(item.Location)
	item.CompletenessScore = Completeness(item)
	return item
}

// Completeness is a weighted field-presence score in [0,1]: title 1.0,
// url 1.0, price or price text 1.5, location 1.0, images 1.0,
// description 0.5, city 0.5, district 0.5, non-empty properties 1.0.
func Completeness(item models.CrawledItem) float64 {
	score := 0.0

	if item.Title != "" {
		score += 1.0
	}
	if item.URL != "" {
		score += 1.0
	}
	if item.Price != nil || item.PriceText != "" {
		score += 1.5
	}
	if item.Location != "" {
		score += 1.0
	}
	if len(item.Images) > 0 {
		score += 1.0
	}
	if item.Description != "" {
		score += 0.5
	}
	if item.City != "" {
		score += 0.5
	}
	if item.District != "" {
		score += 0.5
	}
	if len(item.Properties) > 0 {
		score += 1.0
	}

	score /= completenessDenominator
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

var locationAliases = map[string]string{
	"tehran":      "تهران",
	"tehran city": "تهران",
}

func normalizeLocation(location string) string {
	if location == "" {
		return ""
	}
	if canonical, ok := locationAliases[strings.ToLower(location)]; ok {
		return canonical
	}
	return strings.TrimSpace(location)
}
