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

// SheypoorAdapter crawls sheypoor.com listings. Same page shape as Divar
// but with its own selectors and URL scheme.
type SheypoorAdapter struct {
	cfg *config.SiteConfig
}

func NewSheypoorAdapter(cfg *config.SiteConfig) *SheypoorAdapter {
	return &SheypoorAdapter{cfg: cfg}
}

func (a *SheypoorAdapter) ID() string { return "sheypoor" }

func (a *SheypoorAdapter) BuildSearchURL(filters map[string]any) string {
	category := stringFilter(filters, "category")
	if category == "" {
		category = "apartment-rent"
	}

	searchURL := fmt.Sprintf("%s/tehran/%s", a.cfg.BaseURL, category)

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

func (a *SheypoorAdapter) ExtractItems(content string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("sheypoor: failed to parse page: %w", err)
	}

	var items []RawItem
	doc.Find("article.item").Each(func(_ int, card *goquery.Selection) {
		item := RawItem{}

		link := card.Find("h2.item-title a[href]").First()
		if href, ok := link.Attr("href"); ok {
			item["title"] = strings.TrimSpace(link.Text())
			item["url"] = a.cfg.BaseURL + href
			item["item_id"] = lastPathSegment(href)
		}

		if priceText := strings.TrimSpace(card.Find("div.item-price").Text()); priceText != "" {
			item["price_text"] = priceText
		}

		item["location"] = strings.TrimSpace(card.Find("div.item-location").Text())

		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			item["thumbnail"] = src
		}

		if item["title"] != "" && item["url"] != "" {
			items = append(items, item)
		}
	})

	return items, nil
}

func (a *SheypoorAdapter) NormalizeItem(raw RawItem, goalID *int) (models.CrawledItem, error) {
	if raw["url"] == "" {
		return models.CrawledItem{}, fmt.Errorf("sheypoor: item without url")
	}

	itemID := raw["item_id"]
	if itemID == "" {
		itemID = uuid.NewString()
	}

	location := raw["location"]
	item := models.CrawledItem{
		ItemID:          itemID,
		SourceSite:      "sheypoor",
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
