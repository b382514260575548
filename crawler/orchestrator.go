package crawler

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"sede/config"
	"sede/httputil"
	"sede/models"
	"sede/storage"
)

// NewAdapter returns the adapter implementation registered for a site.
func NewAdapter(siteCfg *config.SiteConfig) (Adapter, error) {
	switch siteCfg.ID {
	case "divar":
		return NewDivarAdapter(siteCfg), nil
	case "sheypoor":
		return NewSheypoorAdapter(siteCfg), nil
	case "bama":
		return NewBamaAdapter(siteCfg), nil
	case "torob":
		return NewTorobAdapter(siteCfg), nil
	case "digikala":
		return NewDigikalaAdapter(siteCfg), nil
	default:
		return nil, fmt.Errorf("no adapter for site: %s", siteCfg.ID)
	}
}

// CrawlRequest is one unit of work for the batch crawl.
type CrawlRequest struct {
	Site    string
	Filters map[string]any
	GoalID  *int
}

// Orchestrator runs site adapters with retry and bounded concurrency and
// aggregates their results.
type Orchestrator struct {
	cfg      *config.Config
	adapters map[string]Adapter
	fetchers map[string]*Fetcher
	store    *storage.SQLiteStore
}

func NewOrchestrator(cfg *config.Config) *Orchestrator {
	client := httputil.NewClient(cfg.Crawler.FetchTimeout, cfg.Crawler.UserAgent)

	adapters := make(map[string]Adapter)
	fetchers := make(map[string]*Fetcher)
	for id, siteCfg := range cfg.Sites {
		adapter, err := NewAdapter(siteCfg)
		if err != nil {
			log.Printf("Skipping site %s: %v", id, err)
			continue
		}
		adapters[id] = adapter
		fetchers[id] = NewFetcher(siteCfg, cfg.Crawler, client)
	}

	return &Orchestrator{
		cfg:      cfg,
		adapters: adapters,
		fetchers: fetchers,
	}
}

// SetStore enables crawl run and log recording.
func (o *Orchestrator) SetStore(store *storage.SQLiteStore) {
	o.store = store
}

// CrawlSite executes one full single-source crawl: build URL, fetch with
// retry, extract, normalize. Success flips to false only when the fetch
// exhausted its retries; per-record failures are collected in Errors.
func (o *Orchestrator) CrawlSite(ctx context.Context, site string, filters map[string]any, goalID *int) models.CrawlResult {
	start := time.Now()
	result := models.CrawlResult{SiteName: site}

	adapter, ok := o.adapters[site]
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("no adapter for site: %s", site))
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}

	searchURL := adapter.BuildSearchURL(filters)
	log.Printf("Crawling %s: %s", site, searchURL)

	content, err := o.fetchWithRetry(ctx, site, searchURL)
	if err != nil {
		o.logCrawl(models.LogLevelError, fmt.Sprintf("fetch failed: %v", err), site)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to fetch page content: %v", err))
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}

	result.Success = true

	rawItems, err := adapter.ExtractItems(content)
	if err != nil {
		o.logCrawl(models.LogLevelWarn, fmt.Sprintf("extraction failed: %v", err), site)
		result.Errors = append(result.Errors, fmt.Sprintf("extraction error: %v", err))
		result.ExecutionTime = time.Since(start).Seconds()
		return result
	}
	log.Printf("%s: extracted %d raw items", site, len(rawItems))

	for _, raw := range rawItems {
		item, err := adapter.NormalizeItem(raw, goalID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("normalization error: %v", err))
			continue
		}
		result.Items = append(result.Items, item)
	}

	result.TotalItems = len(result.Items)
	result.ExecutionTime = time.Since(start).Seconds()
	return result
}

// fetchWithRetry makes up to RetryTimes attempts with linear backoff
// (delay x attempt number). Retries are sequential on the calling worker.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, site, url string) (string, error) {
	fetcher := o.fetchers[site]
	if fetcher == nil {
		return "", fmt.Errorf("no fetcher for site: %s", site)
	}

	retries := o.cfg.Crawler.RetryTimes
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		content, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return content, nil
		}
		lastErr = err
		log.Printf("%s: attempt %d/%d failed: %v", site, attempt, retries, err)
		if attempt < retries {
			time.Sleep(o.cfg.Crawler.DownloadDelay * time.Duration(attempt))
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", retries, lastErr)
}

// CrawlBatch runs the requests through a bounded worker pool (or serially
// when parallel is off). The batch result is assembled only after every
// submitted task has returned; batch success means at least one source
// succeeded, and execution time is wall clock for the whole batch.
func (o *Orchestrator) CrawlBatch(ctx context.Context, requests []CrawlRequest, parallel bool) models.CrawlBatchResult {
	start := time.Now()
	results := make([]models.CrawlResult, len(requests))

	if parallel && len(requests) > 1 {
		workers := o.cfg.Crawler.MaxWorkers
		if workers < 1 {
			workers = 1
		}
		g := &errgroup.Group{}
		g.SetLimit(workers)
		for i, req := range requests {
			i, req := i, req
			g.Go(func() error {
				results[i] = o.CrawlSite(ctx, req.Site, req.Filters, req.GoalID)
				return nil
			})
		}
		g.Wait()
	} else {
		for i, req := range requests {
			results[i] = o.CrawlSite(ctx, req.Site, req.Filters, req.GoalID)
		}
	}

	batch := models.CrawlBatchResult{
		Results:       results,
		ExecutionTime: time.Since(start).Seconds(),
		Timestamp:     time.Now(),
	}
	for _, r := range results {
		batch.TotalItems += r.TotalItems
		if r.Success {
			batch.Success = true
		}
	}

	o.recordRun(&batch)
	return batch
}

// RunPlan executes every query in a generated plan as one batch.
func (o *Orchestrator) RunPlan(ctx context.Context, plan models.QueryPlan) models.CrawlBatchResult {
	requests := make([]CrawlRequest, 0, len(plan.Queries))
	for _, q := range plan.Queries {
		goalID := q.GoalID
		requests = append(requests, CrawlRequest{
			Site:    q.SiteName,
			Filters: q.Filters,
			GoalID:  &goalID,
		})
	}
	return o.CrawlBatch(ctx, requests, true)
}

func (o *Orchestrator) recordRun(batch *models.CrawlBatchResult) {
	if o.store == nil {
		return
	}

	status := models.RunStatusCompleted
	if !batch.Success {
		status = models.RunStatusFailed
	}

	errorsCount := 0
	for _, r := range batch.Results {
		errorsCount += len(r.Errors)
	}

	now := time.Now()
	run := &models.CrawlRun{
		StartedAt:    now.Add(-time.Duration(batch.ExecutionTime * float64(time.Second))),
		FinishedAt:   &now,
		Status:       status,
		SitesQueried: len(batch.Results),
		ItemsFound:   batch.TotalItems,
		ErrorsCount:  errorsCount,
	}
	if _, err := o.store.CreateCrawlRun(run); err != nil {
		log.Printf("Warning: failed to record crawl run: %v", err)
	}
}

func (o *Orchestrator) logCrawl(level models.LogLevel, message, site string) {
	log.Printf("[%s] %s: %s", level, site, message)
	if o.store != nil {
		o.store.Log(nil, level, message, site)
	}
}

// Close releases every fetcher's browser resources.
func (o *Orchestrator) Close() {
	for _, fetcher := range o.fetchers {
		fetcher.Close()
	}
}

// SiteIDs lists the configured sites with a working adapter.
func (o *Orchestrator) SiteIDs() []string {
	var ids []string
	for id := range o.adapters {
		ids = append(ids, id)
	}
	return ids
}
