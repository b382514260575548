package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// CrawlRun is the persisted record of one batch crawl execution.
type CrawlRun struct {
	ID            int64      `json:"id" db:"id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	SitesQueried  int        `json:"sites_queried" db:"sites_queried"`
	ItemsFound    int        `json:"items_found" db:"items_found"`
	ItemsKept     int        `json:"items_kept" db:"items_kept"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
	SessionID     string     `json:"session_id" db:"session_id"`
	QueryConfText float64    `json:"query_confidence" db:"query_confidence"`
}

// CrawlLog is a per-run log line, kept for inspection after the fact.
type CrawlLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     *int64    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	SiteName  string    `json:"site_name" db:"site_name"`
}

// ConversationTurn is one entry in a session's append-only history.
type ConversationTurn struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Message   string    `json:"message" db:"message"`
	QueryJSON string    `json:"query_json" db:"query_json"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SavedSearch is a structured query the user asked to re-run periodically.
type SavedSearch struct {
	ID        int64      `json:"id" db:"id"`
	SessionID string     `json:"session_id" db:"session_id"`
	QueryJSON string     `json:"query_json" db:"query_json"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastRunAt *time.Time `json:"last_run_at" db:"last_run_at"`
	Active    bool       `json:"active" db:"active"`
}
