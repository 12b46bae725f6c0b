// internal/cache/history.go
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"

	_ "github.com/lib/pq"
)

// PostgresHistory mirrors appended rating points into a relational table
// for external time-series tooling. The snapshot document remains the
// source of truth; mirror failures are diagnostic, never fatal.
type PostgresHistory struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

// NewPostgresHistory opens the mirror connection.
func NewPostgresHistory(cfg config.PostgresConfig, log logger.Logger) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresHistoryWithDB(db, cfg.Table, log), nil
}

// NewPostgresHistoryWithDB wraps an existing connection.
func NewPostgresHistoryWithDB(db *sql.DB, table string, log logger.Logger) *PostgresHistory {
	return &PostgresHistory{db: db, table: table, logger: log}
}

// Ping tests the database connection.
func (h *PostgresHistory) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// Close closes the database connection.
func (h *PostgresHistory) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Append inserts the rating points that were newly appended to the
// document history this run.
func (h *PostgresHistory) Append(ctx context.Context, points []models.MarketRating) error {
	if len(points) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (source, actor, geo, app_id, package_id, rating, rating_count, url, name, collected_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		h.table,
	)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}

	for _, p := range points {
		if _, err := tx.ExecContext(ctx, query,
			p.Source, p.Actor, p.Geo, p.AppID, p.PackageID,
			p.Rating, p.RatingCount, p.URL, p.Name, p.CollectedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert rating point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}

	h.logger.Debug("mirrored rating points", map[string]interface{}{
		"table": h.table,
		"count": len(points),
	})
	return nil
}
