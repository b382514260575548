package crawler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"

	"sede/config"
	"sede/httputil"
)

// Fetcher retrieves raw page content for one site, over plain HTTP or a
// headless browser depending on the site config. Each fetcher owns at most
// one browser instance, created lazily and held until Close.
type Fetcher struct {
	siteCfg *config.SiteConfig
	crawler config.CrawlerConfig
	client  *httputil.Client

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	browserCtx  playwright.BrowserContext
	initialized bool
}

func NewFetcher(siteCfg *config.SiteConfig, crawlerCfg config.CrawlerConfig, client *httputil.Client) *Fetcher {
	return &Fetcher{
		siteCfg: siteCfg,
		crawler: crawlerCfg,
		client:  client,
	}
}

// Fetch returns the page content for url, choosing the transport the site
// is configured for.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.siteCfg.UseBrowser {
		return f.fetchWithBrowser(url)
	}
	return f.client.FetchPage(ctx, url)
}

func (f *Fetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		return nil
	}

	var err error
	f.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	f.browser, err = f.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		f.pw.Stop()
		f.pw = nil
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	f.browserCtx, err = f.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(f.crawler.UserAgent),
	})
	if err != nil {
		f.browser.Close()
		f.pw.Stop()
		f.pw = nil
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	f.initialized = true
	return nil
}

func (f *Fetcher) fetchWithBrowser(url string) (string, error) {
	if err := f.ensureBrowser(); err != nil {
		return "", err
	}

	page, err := f.browserCtx.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	_, err = page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(f.crawler.FetchTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return "", fmt.Errorf("navigation failed for %s: %w", url, err)
	}

	f.waitForContent(page)

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// waitForContent polls for the site's ready selector instead of sleeping a
// fixed interval after navigation. Falls back to one short settle wait for
// sites without a configured selector.
func (f *Fetcher) waitForContent(page playwright.Page) {
	if f.siteCfg.ReadySelector == "" {
		page.WaitForTimeout(2000)
		return
	}

	for i := 0; i < 20; i++ {
		count, err := page.Locator(f.siteCfg.ReadySelector).Count()
		if err == nil && count > 0 {
			return
		}
		page.WaitForTimeout(500)
	}
	log.Printf("%s: timeout waiting for %q", f.siteCfg.ID, f.siteCfg.ReadySelector)
}

// Close releases the browser process if one was started.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browserCtx != nil {
		f.browserCtx.Close()
		f.browserCtx = nil
	}
	if f.browser != nil {
		f.browser.Close()
		f.browser = nil
	}
	if f.pw != nil {
		f.pw.Stop()
		f.pw = nil
	}
	f.initialized = false
}
