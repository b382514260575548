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

// DigikalaAdapter crawls digikala.com product search results.
type DigikalaAdapter struct {
	cfg *config.SiteConfig
}

func NewDigikalaAdapter(cfg *config.SiteConfig) *DigikalaAdapter {
	return &DigikalaAdapter{cfg: cfg}
}

func (a *DigikalaAdapter) ID() string { return "digikala" }

func (a *DigikalaAdapter) BuildSearchURL(filters map[string]any) string {
	searchURL := a.cfg.BaseURL + "/search/"
	if name := stringFilter(filters, "product_name"); name != "" {
		searchURL += strings.ReplaceAll(name, " ", "-")
	}

	params := url.Values{}
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

func (a *DigikalaAdapter) ExtractItems(content string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("digikala: failed to parse page: %w", err)
	}

	var items []RawItem
	doc.Find("article.c-product-box").Each(func(_ int, card *goquery.Selection) {
		item := RawItem{}

		link := card.Find("h3.c-product-box__title a[href]").First()
		if href, ok := link.Attr("href"); ok {
			item["title"] = strings.TrimSpace(link.Text())
			item["url"] = a.cfg.BaseURL + href
			item["item_id"] = lastPathSegment(href)
		}

		if priceText := strings.TrimSpace(card.Find("div.c-product-box__price").Text()); priceText != "" {
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

func (a *DigikalaAdapter) NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error) {
	if raw["url"] == "" {
		return models.CrawledItem{}, fmt.Errorf("digikala: item without url")
	}

	itemID := raw["item_id"]
	if itemID == "" {
		itemID = uuid.NewString()
	}

	item := models.CrawledItem{
		ItemID:          itemID,
		SourceSite:      "digikala",
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
