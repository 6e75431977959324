package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

// statsRepo implements StatsRepo on PostgreSQL.
type statsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStatsRepo creates a PostgreSQL weekly stats repository.
func NewStatsRepo(db *sqlx.DB, timeout time.Duration) persistence.StatsRepo {
	return &statsRepo{db: db, timeout: timeout}
}

const statsColumns = `year, week, week_start, total_users, total_posts, total_comments,
	ultra_active, very_active, active, occasional, low_activity`

// UpsertBatch writes all rows in one transaction so a reprocessed year
// becomes visible all at once. Replaying the same rows is a no-op beyond
// overwriting identical values.
func (r *statsRepo) UpsertBatch(ctx context.Context, rows []domain.WeeklyStats) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weekly_stats (year, week, week_start, total_users, total_posts, total_comments,
			ultra_active, very_active, active, occasional, low_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (year, week) DO UPDATE SET
			week_start = EXCLUDED.week_start,
			total_users = EXCLUDED.total_users,
			total_posts = EXCLUDED.total_posts,
			total_comments = EXCLUDED.total_comments,
			ultra_active = EXCLUDED.ultra_active,
			very_active = EXCLUDED.very_active,
			active = EXCLUDED.active,
			occasional = EXCLUDED.occasional,
			low_activity = EXCLUDED.low_activity`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			row.Year, row.Week, row.WeekStart, row.TotalUsers,
			row.TotalPosts, row.TotalComments,
			row.UltraActive, row.VeryActive, row.Active,
			row.Occasional, row.LowActivity)
		if err != nil {
			return fmt.Errorf("failed to upsert week %d/%d: %w", row.Year, row.Week, err)
		}
	}

	return tx.Commit()
}

// Scan returns stored rows ordered by (year, week) ascending.
func (r *statsRepo) Scan(ctx context.Context, yr persistence.YearRange) ([]domain.WeeklyStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM weekly_stats`, statsColumns)
	args := []interface{}{}
	var preds []string
	if yr.From != 0 {
		args = append(args, yr.From)
		preds = append(preds, fmt.Sprintf("year >= $%d", len(args)))
	}
	if yr.To != 0 {
		args = append(args, yr.To)
		preds = append(preds, fmt.Sprintf("year <= $%d", len(args)))
	}
	if len(preds) > 0 {
		query += ` WHERE ` + strings.Join(preds, " AND ")
	}
	query += ` ORDER BY year ASC, week ASC`

	var rows []domain.WeeklyStats
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}

	return rows, nil
}

// Last returns the n most recent rows after skipping offset newest ones,
// in ascending order.
func (r *statsRepo) Last(ctx context.Context, n, offset int) ([]domain.WeeklyStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT %s FROM weekly_stats
			ORDER BY year DESC, week DESC
			LIMIT $1 OFFSET $2
		) recent
		ORDER BY year ASC, week ASC`, statsColumns, statsColumns)

	var rows []domain.WeeklyStats
	if err := r.db.SelectContext(ctx, &rows, query, n, offset); err != nil {
		return nil, fmt.Errorf("failed to query recent weekly stats: %w", err)
	}

	return rows, nil
}
