package crawler

import (
	"regexp"
	"strconv"
	"strings"

	"sede/models"
)

// RawItem is an untyped record pulled out of a listing page before
// normalization.
type RawItem map[string]string

// Adapter is the fixed per-site contract. The orchestrator never looks past
// these three operations.
type Adapter interface {
	ID() string
	BuildSearchURL(filters map[string]any) string
	ExtractItems(content string) ([]RawItem, error)
	NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error)
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice converts a marketplace price string to millions of Tomans.
// Returns nil when no number is present.
func ParsePrice(priceText string) *float64 {
	if priceText == "" {
		return nil
	}

	cleaned := strings.NewReplacer(
		"تومان", "",
		"تومن", "",
		",", "",
		"،", "",
	).Replace(priceText)

	match := numberPattern.FindString(cleaned)
	if match == "" {
		return nil
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}

	if strings.Contains(cleaned, "میلیارد") || strings.Contains(cleaned, "بیلیون") {
		price *= 1000
	} else if strings.Contains(cleaned, "هزار") {
		price /= 1000
	}

	return &price
}

// intFilter reads an integer-valued filter regardless of how the map was
// built (generator emits int, JSON round-trips produce float64).
func intFilter(filters map[string]any, key string) (int, bool) {
	switch v := filters[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func stringFilter(filters map[string]any, key string) string {
	if v, ok := filters[key].(string); ok {
		return v
	}
	return ""
}

func lastPathSegment(href string) string {
	trimmed := strings.TrimRight(href, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
