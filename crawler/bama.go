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

// BamaAdapter crawls bama.ir vehicle listings, both purchase and lease.
type BamaAdapter struct {
	cfg *config.SiteConfig
}

func NewBamaAdapter(cfg *config.SiteConfig) *BamaAdapter {
	return &BamaAdapter{cfg: cfg}
}

func (a *BamaAdapter) ID() string { return "bama" }

func (a *BamaAdapter) BuildSearchURL(filters map[string]any) string {
	var searchURL string
	if stringFilter(filters, "search_type") == "lease" {
		searchURL = a.cfg.BaseURL + "/lease"
	} else {
		searchURL = a.cfg.BaseURL + "/car"
	}

	params := url.Values{}
	if min, ok := intFilter(filters, "price_min"); ok {
		params.Set("price-min", fmt.Sprintf("%d", min*1_000_000))
	}
	if max, ok := intFilter(filters, "price_max"); ok {
		params.Set("price-max", fmt.Sprintf("%d", max*1_000_000))
	}
	if lease, ok := intFilter(filters, "lease_monthly_max"); ok {
		params.Set("lease-monthly-max", fmt.Sprintf("%d", lease*1_000_000))
	}

	if len(params) > 0 {
		searchURL += "?" + params.Encode()
	}
	return searchURL
}

func (a *BamaAdapter) ExtractItems(content string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("bama: failed to parse page: %w", err)
	}

	var items []RawItem
	doc.Find("div.car-item").Each(func(_ int, card *goquery.Selection) {
		item := RawItem{}

		link := card.Find("h2.car-title a[href]").First()
		if href, ok := link.Attr("href"); ok {
			item["title"] = strings.TrimSpace(link.Text())
			item["url"] = a.cfg.BaseURL + href
			item["item_id"] = lastPathSegment(href)
		}

		if priceText := strings.TrimSpace(card.Find("div.car-price").Text()); priceText != "" {
			item["price_text"] = priceText
		}

		if info := strings.TrimSpace(card.Find("div.car-info").Text()); info != "" {
			item["description"] = info
		}

		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			item["thumbnail"] = src
		}

		if item["title"] != "" && item["url"] != "" {
			items = append(items, item)
		}
	})

	return items, nil
}

func (a *BamaAdapter) NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error) {
	if raw["url"] == "" {
		return models.CrawledItem{}, fmt.Errorf("bama: item without url")
	}

	itemID := raw["item_id"]
	if itemID == "" {
		itemID = uuid.NewString()
	}

	item := models.CrawledItem{
		ItemID:          itemID,
		SourceSite:      "bama",
		Title:           raw["title"],
		Description:     raw["description"],
		URL:             raw["url"],
		PriceText:       raw["price_text"],
		Price:           ParsePrice(raw["price_text"]),
		PriceType:       "نقدی",
		Thumbnail:       raw["thumbnail"],
		Properties:      map[string]string{"vehicle_type": "car"},
		CrawledAt:       time.Now(),
		GoalID:          goalID,
		ConfidenceScore: 0.9,
	}
	if raw["thumbnail"] != "" {
		item.Images = []string{raw["thumbnail"]}
	}

	return item, nil
}
