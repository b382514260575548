package storage

import (
	"path/filepath"
	"testing"
	"time"

	"sede/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationTurns(t *testing.T) {
	store := newTestStore(t)

	if err := store.AppendTurn("s1", "پیام اول", `{"a":1}`); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := store.AppendTurn("s1", "پیام دوم", `{"a":2}`); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := store.AppendTurn("s2", "جلسه دیگر", `{}`); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	turns, err := store.GetTurns("s1")
	if err != nil {
		t.Fatalf("GetTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Message != "پیام اول" || turns[1].Message != "پیام دوم" {
		t.Fatalf("turns out of order: %q, %q", turns[0].Message, turns[1].Message)
	}

	if err := store.ClearSession("s1"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	turns, err = store.GetTurns("s1")
	if err != nil {
		t.Fatalf("GetTurns failed: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no turns after clear, got %d", len(turns))
	}

	// other sessions untouched
	turns, err = store.GetTurns("s2")
	if err != nil {
		t.Fatalf("GetTurns failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn in s2, got %d", len(turns))
	}
}

func TestCrawlRunsAndLogs(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	run := &models.CrawlRun{
		StartedAt:    now.Add(-time.Minute),
		FinishedAt:   &now,
		Status:       models.RunStatusCompleted,
		SitesQueried: 3,
		ItemsFound:   42,
		ItemsKept:    40,
		ErrorsCount:  1,
		SessionID:    "s1",
	}

	id, err := store.CreateCrawlRun(run)
	if err != nil {
		t.Fatalf("CreateCrawlRun failed: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero run id")
	}
	if run.ID != id {
		t.Fatalf("expected run id backfilled, got %d", run.ID)
	}

	if err := store.Log(&id, models.LogLevelInfo, "crawl finished", "divar"); err != nil {
		t.Fatalf("Log with run failed: %v", err)
	}
	if err := store.Log(nil, models.LogLevelError, "fetch failed", "bama"); err != nil {
		t.Fatalf("Log without run failed: %v", err)
	}
}

func TestSavedSearches(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateSavedSearch("s1", `{"queries":[],"total_queries":0}`)
	if err != nil {
		t.Fatalf("CreateSavedSearch failed: %v", err)
	}

	searches, err := store.GetActiveSavedSearches()
	if err != nil {
		t.Fatalf("GetActiveSavedSearches failed: %v", err)
	}
	if len(searches) != 1 {
		t.Fatalf("expected 1 active search, got %d", len(searches))
	}
	if searches[0].LastRunAt != nil {
		t.Fatalf("new search should not have a last run time")
	}

	if err := store.TouchSavedSearch(id); err != nil {
		t.Fatalf("TouchSavedSearch failed: %v", err)
	}
	searches, err = store.GetActiveSavedSearches()
	if err != nil {
		t.Fatalf("GetActiveSavedSearches failed: %v", err)
	}
	if searches[0].LastRunAt == nil {
		t.Fatalf("expected last run time after touch")
	}

	if err := store.DeactivateSavedSearch(id); err != nil {
		t.Fatalf("DeactivateSavedSearch failed: %v", err)
	}
	searches, err = store.GetActiveSavedSearches()
	if err != nil {
		t.Fatalf("GetActiveSavedSearches failed: %v", err)
	}
	if len(searches) != 0 {
		t.Fatalf("expected no active searches, got %d", len(searches))
	}
}
