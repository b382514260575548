package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sede/models"
)

// SQLiteStore holds operational data: conversation history, crawl run
// records, and saved searches.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_turns (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		message TEXT,
		query_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		sites_queried INTEGER,
		items_found INTEGER,
		items_kept INTEGER,
		errors_count INTEGER,
		session_id TEXT,
		query_confidence REAL
	);

	CREATE TABLE IF NOT EXISTS crawl_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_name TEXT
	);

	CREATE TABLE IF NOT EXISTS saved_searches (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		query_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_run_at DATETIME,
		active BOOLEAN DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON crawl_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON crawl_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_saved_active ON saved_searches(active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AppendTurn adds one entry to a session's conversation history.
func (s *SQLiteStore) AppendTurn(sessionID, message, queryJSON string) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_turns (session_id, message, query_json, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, message, queryJSON, time.Now(),
	)
	return err
}

// GetTurns returns a session's history in append order.
func (s *SQLiteStore) GetTurns(sessionID string) ([]models.ConversationTurn, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, message, query_json, created_at
		 FROM conversation_turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Message, &t.QueryJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ClearSession removes a session's history.
func (s *SQLiteStore) ClearSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_turns WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) CreateCrawlRun(run *models.CrawlRun) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO crawl_runs (started_at, finished_at, status, sites_queried, items_found, items_kept, errors_count, session_id, query_confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.Status, run.SitesQueried,
		run.ItemsFound, run.ItemsKept, run.ErrorsCount, run.SessionID, run.QueryConfText,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteName string) error {
	_, err := s.db.Exec(
		`INSERT INTO crawl_logs (run_id, timestamp, level, message, site_name) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteName,
	)
	return err
}

func (s *SQLiteStore) CreateSavedSearch(sessionID, queryJSON string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO saved_searches (session_id, query_json, created_at, active) VALUES (?, ?, ?, TRUE)`,
		sessionID, queryJSON, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetActiveSavedSearches() ([]models.SavedSearch, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, query_json, created_at, last_run_at, active
		 FROM saved_searches WHERE active = TRUE ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []models.SavedSearch
	for rows.Next() {
		var ss models.SavedSearch
		if err := rows.Scan(&ss.ID, &ss.SessionID, &ss.QueryJSON, &ss.CreatedAt, &ss.LastRunAt, &ss.Active); err != nil {
			return nil, err
		}
		searches = append(searches, ss)
	}
	return searches, rows.Err()
}

func (s *SQLiteStore) TouchSavedSearch(id int64) error {
	_, err := s.db.Exec(`UPDATE saved_searches SET last_run_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) DeactivateSavedSearch(id int64) error {
	_, err := s.db.Exec(`UPDATE saved_searches SET active = FALSE WHERE id = ?`, id)
	return err
}
