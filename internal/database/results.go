package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maltedev/product-page-scraper/internal/models"
)

const DefaultResultsTable = "scrape_results"

type ResultStatus string

const (
	StatusCompleted ResultStatus = "completed"
	StatusFailed    ResultStatus = "failed"
)

// Execer is satisfied by *DB, pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ScrapeResult mirrors one written CSV row.
type ScrapeResult struct {
	RunID        string         `db:"run_id"`
	ItemIndex    int            `db:"item_index"`
	URL          string         `db:"url"`
	Title        string         `db:"title"`
	Price        string         `db:"price"`
	Description  string         `db:"description"`
	ImagePath    sql.NullString `db:"image_path"`
	Status       ResultStatus   `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	DurationMS   int64          `db:"duration_ms"`
	ScrapedAt    time.Time      `db:"scraped_at"`
}

func NewScrapeResult(result models.ItemResult, now time.Time) *ScrapeResult {
	r := &ScrapeResult{
		RunID:       result.RunID,
		ItemIndex:   result.Index,
		URL:         result.URL,
		Title:       result.Row[0],
		Price:       result.Row[1],
		Description: result.Row[2],
		Status:      StatusCompleted,
		DurationMS:  result.Duration.Milliseconds(),
		ScrapedAt:   now,
	}
	if result.ImagePath != "" {
		r.ImagePath = sql.NullString{String: result.ImagePath, Valid: true}
	}
	if !result.Success() {
		r.Status = StatusFailed
		r.ErrorMessage = sql.NullString{String: result.Err.Error(), Valid: true}
	}
	return r
}

// ResultRepository mirrors every item outcome into Postgres.
type ResultRepository struct {
	db     Execer
	table  string
	logger *slog.Logger
}

func NewResultRepository(db Execer, table string, logger *slog.Logger) *ResultRepository {
	if table == "" {
		table = DefaultResultsTable
	}
	return &ResultRepository{
		db:     db,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: logger.With("component", "result_repository"),
	}
}

func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			item_index INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			price TEXT NOT NULL,
			description TEXT NOT NULL,
			image_path TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (run_id, item_index)
		)`, r.table)

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	return nil
}

func (r *ResultRepository) Insert(ctx context.Context, res *ScrapeResult) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, item_index, url, title, price, description,
			image_path, status, error_message, duration_ms, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id, item_index) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			image_path = EXCLUDED.image_path,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			duration_ms = EXCLUDED.duration_ms,
			scraped_at = EXCLUDED.scraped_at`, r.table)

	tag, err := r.db.Exec(ctx, query,
		res.RunID, res.ItemIndex, res.URL, res.Title, res.Price, res.Description,
		res.ImagePath, res.Status, res.ErrorMessage, res.DurationMS, res.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrape result: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("unexpected rows affected for item %d: %d", res.ItemIndex, tag.RowsAffected())
	}
	return nil
}

func (r *ResultRepository) ItemDone(ctx context.Context, result models.ItemResult) error {
	return r.Insert(ctx, NewScrapeResult(result, time.Now()))
}

// RunDone is a no-op; every item was already persisted.
func (r *ResultRepository) RunDone(_ context.Context, state models.RunState) error {
	r.logger.Debug("run mirrored", "processed", state.Processed, "total", state.Total)
	return nil
}
