package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Crawler   CrawlerConfig
	Scheduler SchedulerConfig
	Database  DatabaseConfig
	DBPath     string
	LogLevel   string
	LogMaxSize int64 // bytes
	Sites      map[string]*SiteConfig

	// ConfidenceThreshold gates clarification in the chatbot engine.
	ConfidenceThreshold float64
}

type CrawlerConfig struct {
	MaxWorkers    int
	DownloadDelay time.Duration
	RetryTimes    int
	FetchTimeout  time.Duration
	UserAgent     string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type DatabaseConfig struct {
	URL string // Postgres, optional
}

type SiteConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	BaseURL       string `yaml:"base_url"`
	UseBrowser    bool   `yaml:"use_browser"`
	ReadySelector string `yaml:"ready_selector"`
	RateLimitMS   int    `yaml:"rate_limit_ms"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Crawler: CrawlerConfig{
			MaxWorkers:    getEnvInt("MAX_WORKERS", 5),
			DownloadDelay: time.Duration(getEnvInt("DOWNLOAD_DELAY_MS", 1000)) * time.Millisecond,
			RetryTimes:    getEnvInt("RETRY_TIMES", 3),
			FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_SEC", 30)) * time.Second,
			UserAgent:     getEnv("USER_AGENT", defaultUserAgent),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("CRAWL_CRON"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		DBPath:              getEnv("DB_PATH", "sede.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogMaxSize:          int64(getEnvInt("LOG_MAX_SIZE_MB", 2)) * 1024 * 1024,
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.5),
		Sites:               defaultSites(),
	}

	if interval := os.Getenv("CRAWL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultSites covers the known marketplaces so the engine works without any
// yaml files on disk. Files under config/sites/ override by ID.
func defaultSites() map[string]*SiteConfig {
	sites := []*SiteConfig{
		{ID: "divar", Name: "Divar", BaseURL: "https://divar.ir", UseBrowser: true, ReadySelector: "div.kt-post-card"},
		{ID: "sheypoor", Name: "Sheypoor", BaseURL: "https://www.sheypoor.com", UseBrowser: true, ReadySelector: "article.item"},
		{ID: "bama", Name: "Bama", BaseURL: "https://bama.ir", UseBrowser: true, ReadySelector: "div.car-item"},
		{ID: "torob", Name: "Torob", BaseURL: "https://torob.com", UseBrowser: false},
		{ID: "digikala", Name: "Digikala", BaseURL: "https://www.digikala.com", UseBrowser: true, ReadySelector: "article.c-product-box"},
	}

	m := make(map[string]*SiteConfig, len(sites))
	for _, s := range sites {
		m[s.ID] = s
	}
	return m
}

func (c *Config) loadSiteConfigs() error {
	configDir := "config/sites"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(configDir, entry.Name()))
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return err
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
