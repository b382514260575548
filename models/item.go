package models

import "time"

// CrawledItem is the canonical record produced by a site adapter. Prices are
// in millions of Tomans; URL is the identity key for cross-source dedup.
type CrawledItem struct {
	ItemID      string            `json:"item_id"`
	SourceSite  string            `json:"source_site"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url"`
	Price       *float64          `json:"price,omitempty"`
	PriceText   string            `json:"price_text,omitempty"`
	PriceType   string            `json:"price_type,omitempty"`
	Location    string            `json:"location,omitempty"`
	City        string            `json:"city,omitempty"`
	District    string            `json:"district,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	CrawledAt   time.Time         `json:"crawled_at"`
	GoalID      *int              `json:"goal_id,omitempty"`

	ConfidenceScore   float64 `json:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score"`
}

// CrawlResult is the per-site outcome of one crawl. Success flips to false
// only when the fetch itself failed; per-record extraction or normalization
// failures land in Errors without affecting it.
type CrawlResult struct {
	Success       bool          `json:"success"`
	SiteName      string        `json:"site_name"`
	Items         []CrawledItem `json:"items"`
	TotalItems    int           `json:"total_items"`
	ExecutionTime float64       `json:"execution_time"`
	Errors        []string      `json:"errors,omitempty"`
}

// CrawlBatchResult aggregates one multi-site crawl invocation. Success is
// true iff any constituent result succeeded; ExecutionTime is wall clock for
// the whole batch, not a sum.
type CrawlBatchResult struct {
	Success       bool          `json:"success"`
	Results       []CrawlResult `json:"results"`
	TotalItems    int           `json:"total_items"`
	ExecutionTime float64       `json:"execution_time"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NormalizedResult is the deduplicated, scored, ranked output of a batch,
// shaped for JSON export.
type NormalizedResult struct {
	Success    bool               `json:"success"`
	TotalItems int                `json:"total_items"`
	Items      []CrawledItem      `json:"items"`
	Sources    []string           `json:"sources"`
	Timestamp  time.Time          `json:"timestamp"`
	Metadata   NormalizedMetadata `json:"metadata"`
}

type NormalizedMetadata struct {
	NormalizationApplied bool `json:"normalization_applied"`
	DuplicatesRemoved    int  `json:"duplicates_removed"`
}
