package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"sede/models"
	"sede/nlu"
	"sede/query"
	"sede/storage"
)

// Response is the chat-facing result of one processed message.
type Response struct {
	Success                bool                    `json:"success"`
	Message                string                  `json:"message"`
	Query                  *models.StructuredQuery `json:"query,omitempty"`
	Confidence             float64                 `json:"confidence"`
	RequiresClarification  bool                    `json:"requires_clarification"`
	ClarificationQuestions []string                `json:"clarification_questions,omitempty"`
	Errors                 []string                `json:"errors,omitempty"`
}

// SessionSummary describes the stored state of one conversation.
type SessionSummary struct {
	SessionID     string `json:"session_id"`
	TotalMessages int    `json:"total_messages"`
	LastMessage   string `json:"last_message"`
	LastQuery     string `json:"last_query"`
	Timestamp     string `json:"timestamp"`
}

// Chatbot turns Persian financial requests into structured queries and
// human-readable replies. Conversation history is persisted per session
// when a store is attached.
type Chatbot struct {
	processor           *nlu.Processor
	generator           *query.Generator
	store               *storage.SQLiteStore
	confidenceThreshold float64
}

func NewChatbot(confidenceThreshold float64) *Chatbot {
	return &Chatbot{
		processor:           nlu.NewProcessor(),
		generator:           query.NewGenerator(),
		confidenceThreshold: confidenceThreshold,
	}
}

// SetStore enables conversation history persistence.
func (c *Chatbot) SetStore(store *storage.SQLiteStore) {
	c.store = store
}

// Generator exposes the query generator for callers that expand the
// structured query into a crawl plan themselves.
func (c *Chatbot) Generator() *query.Generator {
	return c.generator
}

// ProcessMessage analyzes one message. Clarification is requested when the
// classifier flags the intent as too weak or when overall confidence falls
// below the configured threshold; in that case no structured query is built.
func (c *Chatbot) ProcessMessage(message, sessionID string) Response {
	result, err := c.processor.Process(message)
	if err != nil {
		log.Printf("Error processing message: %v", err)
		return Response{
			Success: false,
			Message: "متأسفانه خطایی در پردازش درخواست شما رخ داد. لطفاً دوباره تلاش کنید.",
			Errors:  []string{err.Error()},
		}
	}

	if result.RequiresClarification || result.Confidence < c.confidenceThreshold {
		return Response{
			Success:                true,
			Message:                clarificationMessage(result.ClarificationQuestions),
			Confidence:             result.Confidence,
			RequiresClarification:  true,
			ClarificationQuestions: result.ClarificationQuestions,
		}
	}

	structured, err := c.processor.BuildStructuredQuery(result)
	if err != nil {
		log.Printf("Error building structured query: %v", err)
		return Response{
			Success: false,
			Message: "متأسفانه خطایی در پردازش درخواست شما رخ داد. لطفاً دوباره تلاش کنید.",
			Errors:  []string{err.Error()},
		}
	}

	if sessionID != "" && c.store != nil {
		queryJSON, err := json.Marshal(structured)
		if err == nil {
			if err := c.store.AppendTurn(sessionID, message, string(queryJSON)); err != nil {
				log.Printf("Warning: failed to store conversation turn: %v", err)
			}
		}
	}

	return Response{
		Success:    true,
		Message:    responseMessage(structured),
		Query:      structured,
		Confidence: result.Confidence,
	}
}

func clarificationMessage(questions []string) string {
	if len(questions) == 0 {
		return "لطفاً اطلاعات بیشتری در مورد درخواست خود ارائه دهید."
	}

	var b strings.Builder
	b.WriteString("برای ارائه بهترین پیشنهاد، لطفاً به سؤالات زیر پاسخ دهید:\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return b.String()
}

func responseMessage(sq *models.StructuredQuery) string {
	var parts []string

	if sq.UserProfile.TotalBudget() > 0 {
		parts = append(parts, fmt.Sprintf("بودجه کل شما: %.0f میلیون تومان", sq.UserProfile.TotalBudget()))
	}
	if sq.UserProfile.MaxMonthlyPayment > 0 {
		parts = append(parts, fmt.Sprintf("توان پرداخت ماهیانه: %.0f میلیون تومان", sq.UserProfile.MaxMonthlyPayment))
	}

	parts = append(parts, fmt.Sprintf("\n%d هدف جستجو شناسایی شد:", len(sq.SearchGoals)))
	for _, goal := range sq.SearchGoals {
		desc := fmt.Sprintf("• %s", goal.Type)
		if goal.TargetLocation != "" {
			desc += fmt.Sprintf(" در %s", goal.TargetLocation)
		}
		if goal.MaxPrice != nil {
			desc += fmt.Sprintf(" (تا %.0f میلیون تومان)", *goal.MaxPrice)
		}
		parts = append(parts, desc)
	}

	parts = append(parts, "\nدر حال جستجو در سایت‌های مرتبط...")
	return strings.Join(parts, "\n")
}

// ClearSession drops a session's stored history.
func (c *Chatbot) ClearSession(sessionID string) error {
	if c.store == nil {
		return nil
	}
	return c.store.ClearSession(sessionID)
}

// GetSessionSummary returns the stored state of a session, or nil when the
// session has no history.
func (c *Chatbot) GetSessionSummary(sessionID string) (*SessionSummary, error) {
	if c.store == nil {
		return nil, nil
	}

	turns, err := c.store.GetTurns(sessionID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, nil
	}

	last := turns[len(turns)-1]
	return &SessionSummary{
		SessionID:     sessionID,
		TotalMessages: len(turns),
		LastMessage:   last.Message,
		LastQuery:     last.QueryJSON,
		Timestamp:     last.CreatedAt.Format("2006-01-02T15:04:05"),
	}, nil
}
