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

// TorobAdapter crawls torob.com price-comparison results. Torob serves
// plain HTML, so this is the one adapter that runs without a browser.
type TorobAdapter struct {
	cfg *config.SiteConfig
}

func NewTorobAdapter(cfg *config.SiteConfig) *TorobAdapter {
	return &TorobAdapter{cfg: cfg}
}

func (a *TorobAdapter) ID() string { return "torob" }

func (a *TorobAdapter) BuildSearchURL(filters map[string]any) string {
	searchURL := a.cfg.BaseURL + "/search/"

	params := url.Values{}
	if name := stringFilter(filters, "product_name"); name != "" {
		params.Set("query", name)
	}
	if min, ok := intFilter(filters, "price_min"); ok {
		params.Set("price-min", fmt.Sprintf("%d", min*1_000_000))
	}
	if max, ok := intFilter(filters, "price_max"); ok {
		params.Set("price-max", fmt.Sprintf("%d", max*1_000_000))
	}

	if len(params) > 0 {
		searchURL += "?" + params.Encode()
	}
	return searchURL
}

func (a *TorobAdapter) ExtractItems(content string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("torob: failed to parse page: %w", err)
	}

	var items []RawItem
	doc.Find("div.product-card").Each(func(_ int, card *goquery.Selection) {
		item := RawItem{}

		link := card.Find("a[href]").First()
		if href, ok := link.Attr("href"); ok {
			item["url"] = a.cfg.BaseURL + href
			item["item_id"] = lastPathSegment(href)
		}

		item["title"] = strings.TrimSpace(card.Find("h2.product-name").Text())

		if priceText := strings.TrimSpace(card.Find("div.product-price").Text()); priceText != "" {
			item["price_text"] = priceText
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

func (a *TorobAdapter) NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error) {
	if raw["url"] == "" {
		return models.CrawledItem{}, fmt.Errorf("torob: item without url")
	}

	itemID := raw["item_id"]
	if itemID == "" {
		itemID = uuid.NewString()
	}

	item := models.CrawledItem{
		ItemID:          itemID,
		SourceSite:      "torob",
		Title:           raw["title"],
		URL:             raw["url"],
		PriceText:       raw["price_text"],
		Price:           ParsePrice(raw["price_text"]),
		PriceType:       "نقدی",
		Thumbnail:       raw["thumbnail"],
		Properties:      map[string]string{"product_type": "electronics"},
		CrawledAt:       time.Now(),
		GoalID:          goalID,
		ConfidenceScore: 0.9,
	}
	if raw["thumbnail"] != "" {
		item.Images = []string{raw["thumbnail"]}
	}

	return item, nil
}
