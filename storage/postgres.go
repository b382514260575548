package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sede/models"
)

// PostgresStore persists normalized crawl output for downstream analysis.
// It is optional; the engine runs without it when DATABASE_URL is unset.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Pool exposes the underlying connection pool for workers that run their
// own queries.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS normalized_batches (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT,
		total_items INT NOT NULL,
		sources TEXT[],
		duplicates_removed INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS crawled_items (
		id BIGSERIAL PRIMARY KEY,
		batch_id BIGINT REFERENCES normalized_batches(id),
		item_id TEXT NOT NULL,
		source_site TEXT NOT NULL,
		title TEXT,
		description TEXT,
		url TEXT NOT NULL,
		price DOUBLE PRECISION,
		price_text TEXT,
		price_type TEXT,
		location TEXT,
		city TEXT,
		district TEXT,
		images TEXT[],
		thumbnail TEXT,
		properties JSONB,
		goal_id INT,
		confidence_score DOUBLE PRECISION,
		completeness_score DOUBLE PRECISION,
		crawled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_items_batch ON crawled_items(batch_id);
	CREATE INDEX IF NOT EXISTS idx_items_site ON crawled_items(source_site, crawled_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_items_batch_url ON crawled_items(batch_id, url);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SaveNormalizedResult writes a batch header plus its items and returns the
// batch id.
func (s *PostgresStore) SaveNormalizedResult(ctx context.Context, sessionID string, result *models.NormalizedResult) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var batchID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO normalized_batches (session_id, total_items, sources, duplicates_removed, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sessionID, result.TotalItems, result.Sources,
		result.Metadata.DuplicatesRemoved, result.Timestamp,
	).Scan(&batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}

	for _, item := range result.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO crawled_items
			 (batch_id, item_id, source_site, title, description, url, price, price_text, price_type,
			  location, city, district, images, thumbnail, properties, goal_id,
			  confidence_score, completeness_score, crawled_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			 ON CONFLICT (batch_id, url) DO NOTHING`,
			batchID, item.ItemID, item.SourceSite, item.Title, item.Description,
			item.URL, item.Price, item.PriceText, item.PriceType,
			item.Location, item.City, item.District, item.Images, item.Thumbnail,
			item.Properties, item.GoalID,
			item.ConfidenceScore, item.CompletenessScore, item.CrawledAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item %s: %w", item.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return batchID, nil
}

// RecentItems returns the latest persisted items for a site, newest first.
func (s *PostgresStore) RecentItems(ctx context.Context, site string, limit int) ([]models.CrawledItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, source_site, title, description, url, price, price_text, price_type,
		        location, city, district, images, thumbnail, goal_id,
		        confidence_score, completeness_score, crawled_at
		 FROM crawled_items WHERE source_site = $1
		 ORDER BY crawled_at DESC LIMIT $2`,
		site, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.CrawledItem
	for rows.Next() {
		var item models.CrawledItem
		err := rows.Scan(&item.ItemID, &item.SourceSite, &item.Title, &item.Description,
			&item.URL, &item.Price, &item.PriceText, &item.PriceType,
			&item.Location, &item.City, &item.District, &item.Images, &item.Thumbnail,
			&item.GoalID, &item.ConfidenceScore, &item.CompletenessScore, &item.CrawledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
