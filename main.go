package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"sede/config"
	"sede/crawler"
	"sede/engine"
	"sede/logging"
	"sede/scheduler"
	"sede/storage"
	"sede/workers"
)

var (
	message     = flag.String("message", "", "Process one message and exit")
	interactive = flag.Bool("interactive", false, "Run an interactive chat session")
	daemon      = flag.Bool("daemon", false, "Run saved searches on a schedule")
	save        = flag.Bool("save", false, "Save the generated search plan for scheduled re-runs")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup("sede.log", cfg.LogMaxSize)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting sede...")

	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s)", site.Name, id)
	}

	ctx := context.Background()

	// SQLite holds operational data: sessions, runs, saved searches
	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	// Postgres holds normalized crawl output; optional
	var pgStore *storage.PostgresStore
	if cfg.Database.URL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))
	}

	chatbot := engine.NewChatbot(cfg.ConfidenceThreshold)
	orchestrator := crawler.NewOrchestrator(cfg)
	integration := engine.NewIntegration(chatbot, orchestrator)
	integration.SetStores(sqliteStore, pgStore)
	defer integration.Close()

	switch {
	case *message != "":
		runOnce(ctx, integration, *message, *save)
	case *interactive:
		runInteractive(ctx, integration)
	case *daemon:
		runDaemon(ctx, cfg, integration, pgStore)
	default:
		flag.Usage()
	}
}

func runOnce(ctx context.Context, integration *engine.Integration, message string, save bool) {
	sessionID := uuid.NewString()
	result := integration.ProcessUserRequest(ctx, message, sessionID)
	printResult(result)

	if save && result.Success && result.SearchQueries != nil {
		id, err := integration.SaveSearch(sessionID, *result.SearchQueries)
		if err != nil {
			log.Printf("Failed to save search: %v", err)
		} else {
			fmt.Printf("جستجو ذخیره شد (شماره %d)\n", id)
		}
	}
}

func runInteractive(ctx context.Context, integration *engine.Integration) {
	sessionID := uuid.NewString()
	fmt.Println("سلام! درخواست مالی خود را بنویسید (برای خروج: exit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result := integration.ProcessUserRequest(ctx, line, sessionID)
		printResult(result)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, integration *engine.Integration, pgStore *storage.PostgresStore) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, integration)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	if pgStore != nil {
		enrichmentWorker := workers.NewEnrichmentWorker(pgStore, cfg.Crawler.UserAgent)
		sched.SetWorkers(enrichmentWorker)
		go enrichmentWorker.Run(ctx, 10, 5*time.Minute) // batch of 10 every 5 min
		log.Println("Enrichment worker started")
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func printResult(result *engine.RequestResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	if result.ChatbotResponse != nil && result.ChatbotResponse.Message != "" {
		fmt.Println(result.ChatbotResponse.Message)
	}

	if result.CrawlResults != nil {
		fmt.Printf("\n%d مورد از %d منبع یافت شد\n",
			result.CrawlResults.TotalItems, len(result.CrawlResults.Sources))
		for i, item := range result.CrawlResults.Items {
			if i >= 10 {
				fmt.Printf("... و %d مورد دیگر\n", result.CrawlResults.TotalItems-10)
				break
			}
			price := item.PriceText
			if price == "" && item.Price != nil {
				price = fmt.Sprintf("%.0f میلیون تومان", *item.Price)
			}
			fmt.Printf("%2d. [%s] %s | %s\n     %s\n", i+1, item.SourceSite, item.Title, price, item.URL)
		}
	}

	if result.Summary != nil {
		summaryJSON, err := json.MarshalIndent(result.Summary, "", "  ")
		if err == nil {
			fmt.Printf("\n%s\n", summaryJSON)
		}
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	rest := connStr[start+3:]

	atIdx := strings.Index(rest, "@")
	colonIdx := strings.Index(rest, ":")
	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:start+3] + rest[:colonIdx+1] + "****" + rest[atIdx:]
	}
	return connStr
}
