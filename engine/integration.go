package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"sede/crawler"
	"sede/models"
	"sede/storage"
)

// Summary condenses one end-to-end request for display and logging.
type Summary struct {
	UserBudget      float64  `json:"user_budget"`
	TotalItemsFound int      `json:"total_items_found"`
	SourcesCrawled  []string `json:"sources_crawled"`
	Confidence      float64  `json:"confidence"`
	ExecutionTime   float64  `json:"execution_time"`
}

// RequestResult is the full envelope for one end-to-end user request.
type RequestResult struct {
	Success                bool                     `json:"success"`
	Message                string                   `json:"message,omitempty"`
	RequiresClarification  bool                     `json:"requires_clarification,omitempty"`
	ClarificationQuestions []string                 `json:"clarification_questions,omitempty"`
	Confidence             float64                  `json:"confidence,omitempty"`
	ChatbotResponse        *Response                `json:"chatbot_response,omitempty"`
	StructuredQuery        *models.StructuredQuery  `json:"structured_query,omitempty"`
	SearchQueries          *models.QueryPlan        `json:"search_queries,omitempty"`
	CrawlResults           *models.NormalizedResult `json:"crawl_results,omitempty"`
	Summary                *Summary                 `json:"summary,omitempty"`
	Errors                 []string                 `json:"errors,omitempty"`
}

// Integration wires the chatbot to the crawl orchestrator for end-to-end
// request handling.
type Integration struct {
	chatbot      *Chatbot
	orchestrator *crawler.Orchestrator
	normalizer   *crawler.Normalizer
	sqliteStore  *storage.SQLiteStore
	pgStore      *storage.PostgresStore
}

func NewIntegration(chatbot *Chatbot, orchestrator *crawler.Orchestrator) *Integration {
	return &Integration{
		chatbot:      chatbot,
		orchestrator: orchestrator,
		normalizer:   crawler.NewNormalizer(),
	}
}

// SetStores attaches the operational and analytical stores. Either may be
// nil; persistence is skipped for whichever is missing.
func (in *Integration) SetStores(sqliteStore *storage.SQLiteStore, pgStore *storage.PostgresStore) {
	in.sqliteStore = sqliteStore
	in.pgStore = pgStore
	if sqliteStore != nil {
		in.chatbot.SetStore(sqliteStore)
		in.orchestrator.SetStore(sqliteStore)
	}
}

// ProcessUserRequest runs the full pipeline: understand the message, expand
// it to per-site queries, crawl, and normalize. Clarification requests
// short-circuit before any crawling happens.
func (in *Integration) ProcessUserRequest(ctx context.Context, message, sessionID string) *RequestResult {
	chatResp := in.chatbot.ProcessMessage(message, sessionID)

	if !chatResp.Success {
		return &RequestResult{
			Success: false,
			Message: chatResp.Message,
			Errors:  chatResp.Errors,
		}
	}

	if chatResp.RequiresClarification {
		return &RequestResult{
			Success:                true,
			RequiresClarification:  true,
			Message:                chatResp.Message,
			ClarificationQuestions: chatResp.ClarificationQuestions,
			Confidence:             chatResp.Confidence,
		}
	}

	if chatResp.Query == nil {
		return &RequestResult{
			Success: false,
			Message: "نتوانستیم درخواست شما را به درستی درک کنیم.",
		}
	}

	queries := in.chatbot.Generator().Generate(chatResp.Query)
	plan := in.chatbot.Generator().Plan(queries)

	batch := in.orchestrator.RunPlan(ctx, plan)
	normalized := in.normalizer.NormalizeBatch(batch)

	in.persistResults(ctx, sessionID, &normalized)

	return &RequestResult{
		Success:         true,
		ChatbotResponse: &chatResp,
		StructuredQuery: chatResp.Query,
		SearchQueries:   &plan,
		CrawlResults:    &normalized,
		Summary: &Summary{
			UserBudget:      chatResp.Query.UserProfile.TotalBudget(),
			TotalItemsFound: normalized.TotalItems,
			SourcesCrawled:  normalized.Sources,
			Confidence:      chatResp.Confidence,
			ExecutionTime:   batch.ExecutionTime,
		},
	}
}

func (in *Integration) persistResults(ctx context.Context, sessionID string, normalized *models.NormalizedResult) {
	if in.pgStore == nil || normalized.TotalItems == 0 {
		return
	}
	if _, err := in.pgStore.SaveNormalizedResult(ctx, sessionID, normalized); err != nil {
		log.Printf("Warning: failed to persist normalized results: %v", err)
	}
}

// SaveSearch stores a crawl plan for periodic re-execution.
func (in *Integration) SaveSearch(sessionID string, plan models.QueryPlan) (int64, error) {
	if in.sqliteStore == nil {
		return 0, fmt.Errorf("no store configured for saved searches")
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to encode plan: %w", err)
	}
	return in.sqliteStore.CreateSavedSearch(sessionID, string(planJSON))
}

// RunSavedSearches re-executes every active saved search and persists the
// normalized output. Failures on one search do not stop the rest.
func (in *Integration) RunSavedSearches(ctx context.Context) error {
	if in.sqliteStore == nil {
		return fmt.Errorf("no store configured for saved searches")
	}

	searches, err := in.sqliteStore.GetActiveSavedSearches()
	if err != nil {
		return fmt.Errorf("failed to load saved searches: %w", err)
	}

	for _, search := range searches {
		var plan models.QueryPlan
		if err := json.Unmarshal([]byte(search.QueryJSON), &plan); err != nil {
			log.Printf("Skipping saved search %d: invalid plan: %v", search.ID, err)
			continue
		}

		log.Printf("Running saved search %d (%d queries)", search.ID, plan.TotalQueries)
		batch := in.orchestrator.RunPlan(ctx, plan)
		normalized := in.normalizer.NormalizeBatch(batch)
		in.persistResults(ctx, search.SessionID, &normalized)

		if err := in.sqliteStore.TouchSavedSearch(search.ID); err != nil {
			log.Printf("Warning: failed to update saved search %d: %v", search.ID, err)
		}
	}

	return nil
}

// Close releases crawler resources.
func (in *Integration) Close() {
	in.orchestrator.Close()
}
