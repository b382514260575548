package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"sede/config"
	"sede/models"
)

// DivarAdapter crawls divar.ir apartment and vehicle listings.
type DivarAdapter struct {
	cfg *config.SiteConfig
}

func NewDivarAdapter(cfg *config.SiteConfig) *DivarAdapter {
	return &DivarAdapter{cfg: cfg}
}

func (a *DivarAdapter) ID() string { return "divar" }

func (a *DivarAdapter) BuildSearchURL(filters map[string]any) string {
	category := stringFilter(filters, "category")
	if category == "" {
		category = "apartment-rent"
	}

	searchURL := fmt.Sprintf("%s/s/tehran/%s", a.cfg.BaseURL, category)

	params := url.Values{}
	if min, ok := intFilter(filters, "price_min"); ok {
		params.Set("price-min", fmt.Sprintf("%d", min*1_000_000))
	}
	if max, ok := intFilter(filters, "price_max"); ok {
		params.Set("price-max", fmt.Sprintf("%d", max*1_000_000))
	}
	if stringFilter(filters, "rent_type") == "full_deposit" {
		params.Set("rent-type", "full_deposit")
	}

	if len(params) > 0 {
		searchURL += "?" + params.Encode()
	}
	return searchURL
}

func (a *DivarAdapter) ExtractItems(content string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("divar: failed to parse page: %w", err)
	}

	var items []RawItem
	doc.Find("div.kt-post-card").Each(func(_ int, card *goquery.Selection) {
		item := RawItem{}

		item["title"] = strings.TrimSpace(card.Find("h2.kt-post-card__title").Text())

		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			item["url"] = a.cfg.BaseURL + href
			item["item_id"] = lastPathSegment(href)
		}

		if priceText := strings.TrimSpace(card.Find("div.kt-post-card__description").Text()); priceText != "" {
			item["price_text"] = priceText
		}

		item["location"] = strings.TrimSpace(card.Find("span.kt-post-card__bottom-description").Text())

		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			item["thumbnail"] = src
		}

		if item["title"] != "" && item["url"] != "" {
			items = append(items, item)
		}
	})

	return items, nil
}

func (a *DivarAdapter) NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error) {
	if raw["url"] == "" {
		return models.CrawledItem{}, fmt.Errorf("divar: item without url")
	}

	itemID := raw["item_id"]
	if itemID == "" {
		itemID = uuid.NewString()
	}

	location := raw["location"]
	item := models.CrawledItem{
		ItemID:          itemID,
		SourceSite:      "divar",
		Title:           raw["title"],
		URL:             raw["url"],
		PriceText:       raw["price_text"],
		Price:           ParsePrice(raw["price_text"]),
		Location:        location,
		City:            "تهران",
		District:        location,
		Thumbnail:       raw["thumbnail"],
		CrawledAt:       time.Now(),
		GoalID:          goalID,
		ConfidenceScore: 0.9,
	}
	if raw["thumbnail"] != "" {
		item.Images = []string{raw["thumbnail"]}
	}

	return item, nil
}
