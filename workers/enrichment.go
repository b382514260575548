package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sede/storage"
)

// EnrichmentWorker fetches item detail pages and fills in fields the search
// result cards do not carry: full description, image gallery, extra
// properties.
type EnrichmentWorker struct {
	store      *storage.PostgresStore
	httpClient *http.Client
	userAgent  string
	triggerCh  chan struct{}
}

func NewEnrichmentWorker(store *storage.PostgresStore, userAgent string) *EnrichmentWorker {
	return &EnrichmentWorker{
		store: store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately
func (w *EnrichmentWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// EnrichedData contains the fields extracted from a detail page
type EnrichedData struct {
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Location    string   `json:"location"`
}

// Enrich fetches an item URL and extracts detail-page data
func (w *EnrichmentWorker) Enrich(ctx context.Context, itemURL string) (*EnrichedData, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", itemURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "fa-IR,fa;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return w.ParseHTML(resp.Body)
}

// ParseHTML parses a detail page and extracts enrichable fields
func (w *EnrichmentWorker) ParseHTML(r io.Reader) (*EnrichedData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	data := &EnrichedData{}

	// Marketplace detail pages differ; take the first matching container.
	for _, sel := range []string{
		"div.kt-description-row__text",
		"div.item-description",
		"div.car-description",
		"div.product-description",
		"meta[name=description]",
	} {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if sel == "meta[name=description]" {
			if content, ok := node.Attr("content"); ok {
				data.Description = strings.TrimSpace(content)
			}
		} else {
			data.Description = strings.TrimSpace(node.Text())
		}
		if data.Description != "" {
			break
		}
	}

	seen := make(map[string]bool)
	doc.Find("picture img[src], div.gallery img[src], img.post-image[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" && !seen[src] {
			seen[src] = true
			data.Images = append(data.Images, src)
		}
	})

	data.Location = strings.TrimSpace(doc.Find("div.kt-page-title__subtitle, div.item-location, span.location").First().Text())

	return data, nil
}

// UpdateItem writes the enriched fields back, keeping existing values when
// the detail page yielded nothing.
func (w *EnrichmentWorker) UpdateItem(ctx context.Context, itemID string, data *EnrichedData) error {
	query := `
		UPDATE crawled_items SET
			description = COALESCE(NULLIF($2, ''), description),
			location = COALESCE(NULLIF($3, ''), location),
			images = CASE WHEN cardinality($4::text[]) > 0 THEN $4 ELSE images END
		WHERE item_id = $1`

	_, err := w.store.Pool().Exec(ctx, query, itemID, data.Description, data.Location, data.Images)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Run starts the enrichment worker loop
func (w *EnrichmentWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Enrichment worker stopping")
			return
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *EnrichmentWorker) processBatch(ctx context.Context, batchSize int) {
	query := `
		SELECT item_id, url
		FROM crawled_items
		WHERE (description IS NULL OR description = '' OR images IS NULL)
		  AND url <> ''
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := w.store.Pool().Query(ctx, query, batchSize)
	if err != nil {
		log.Printf("Enrichment: query error: %v", err)
		return
	}
	defer rows.Close()

	type itemToEnrich struct {
		ID  string
		URL string
	}

	var items []itemToEnrich
	for rows.Next() {
		var it itemToEnrich
		if err := rows.Scan(&it.ID, &it.URL); err != nil {
			log.Printf("Enrichment: scan error: %v", err)
			continue
		}
		items = append(items, it)
	}

	if len(items) == 0 {
		return
	}

	log.Printf("Enrichment: processing %d items", len(items))

	for _, it := range items {
		data, err := w.Enrich(ctx, it.URL)
		if err != nil {
			log.Printf("Enrichment: failed to enrich %s: %v", it.URL, err)
			continue
		}

		if err := w.UpdateItem(ctx, it.ID, data); err != nil {
			log.Printf("Enrichment: failed to update %s: %v", it.ID, err)
			continue
		}

		log.Printf("Enrichment: enriched %s (%d images)", it.ID, len(data.Images))

		// Rate limit between requests
		time.Sleep(500 * time.Millisecond)
	}
}
