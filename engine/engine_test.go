package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"sede/models"
	"sede/storage"
)

func newTestChatbot(t *testing.T) *Chatbot {
	t.Helper()
	c := NewChatbot(0.5)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	c.SetStore(store)
	return c
}

func TestProcessMessage_FullRequest(t *testing.T) {
	c := newTestChatbot(t)

	resp := c.ProcessMessage("من 600 میلیون نقد دارم و می‌خواهم در اکباتان رهن کنم", "s1")
	if !resp.Success {
		t.Fatalf("expected success, errors: %v", resp.Errors)
	}
	if resp.RequiresClarification {
		t.Fatalf("fully specified request should not need clarification")
	}
	if resp.Query == nil {
		t.Fatalf("expected structured query")
	}
	if resp.Query.UserProfile.Liquidity != 600 {
		t.Fatalf("expected liquidity 600, got %v", resp.Query.UserProfile.Liquidity)
	}
	if resp.Query.SearchGoals[0].Type != models.GoalResidentialRent {
		t.Fatalf("expected residential_rent, got %q", resp.Query.SearchGoals[0].Type)
	}
	if !strings.Contains(resp.Message, "هدف جستجو شناسایی شد") {
		t.Fatalf("expected goal summary in message, got %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "600") {
		t.Fatalf("expected budget in message, got %q", resp.Message)
	}
}

func TestProcessMessage_GreetingNeedsClarification(t *testing.T) {
	c := newTestChatbot(t)

	resp := c.ProcessMessage("سلام", "s1")
	if !resp.Success {
		t.Fatalf("expected success, errors: %v", resp.Errors)
	}
	if !resp.RequiresClarification {
		t.Fatalf("greeting carries no actionable signal, clarification expected")
	}
	if resp.Query != nil {
		t.Fatalf("no structured query should be built for a clarification response")
	}
	if resp.Confidence >= 0.5 {
		t.Fatalf("expected confidence below threshold, got %v", resp.Confidence)
	}
	if resp.Message == "" {
		t.Fatalf("expected clarification message")
	}
}

func TestProcessMessage_UnknownGetsQuestions(t *testing.T) {
	c := newTestChatbot(t)

	resp := c.ProcessMessage("qwerty 12345", "s1")
	if !resp.RequiresClarification {
		t.Fatalf("expected clarification")
	}
	if len(resp.ClarificationQuestions) == 0 {
		t.Fatalf("expected questions")
	}
	if !strings.Contains(resp.Message, "1. ") {
		t.Fatalf("expected numbered questions, got %q", resp.Message)
	}
}

func TestSessionHistory(t *testing.T) {
	c := newTestChatbot(t)

	resp := c.ProcessMessage("خرید ماشین با 800 میلیون", "session-a")
	if !resp.Success || resp.Query == nil {
		t.Fatalf("expected processed query, got %+v", resp)
	}

	summary, err := c.GetSessionSummary("session-a")
	if err != nil {
		t.Fatalf("GetSessionSummary failed: %v", err)
	}
	if summary == nil {
		t.Fatalf("expected session summary")
	}
	if summary.TotalMessages != 1 {
		t.Fatalf("expected 1 message, got %d", summary.TotalMessages)
	}
	if summary.LastMessage != "خرید ماشین با 800 میلیون" {
		t.Fatalf("unexpected last message %q", summary.LastMessage)
	}
	if summary.LastQuery == "" {
		t.Fatalf("expected stored query json")
	}

	if err := c.ClearSession("session-a"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	summary, err = c.GetSessionSummary("session-a")
	if err != nil {
		t.Fatalf("GetSessionSummary failed: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected no summary after clear")
	}
}

func TestClarificationMessage(t *testing.T) {
	msg := clarificationMessage(nil)
	if !strings.Contains(msg, "اطلاعات بیشتری") {
		t.Fatalf("unexpected fallback message %q", msg)
	}

	msg = clarificationMessage([]string{"بودجه شما چقدر است؟", "در چه منطقه‌ای جستجو کنیم؟"})
	if !strings.Contains(msg, "1. بودجه شما چقدر است؟") {
		t.Fatalf("expected first numbered question, got %q", msg)
	}
	if !strings.Contains(msg, "2. در چه منطقه‌ای جستجو کنیم؟") {
		t.Fatalf("expected second numbered question, got %q", msg)
	}
}
