package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

// pricesRepo implements PriceRepo on PostgreSQL.
type pricesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPricesRepo creates a PostgreSQL daily price repository.
func NewPricesRepo(db *sqlx.DB, timeout time.Duration) persistence.PriceRepo {
	return &pricesRepo{db: db, timeout: timeout}
}

// UpsertBatch writes all points in one transaction, last write winning on
// a date conflict.
func (r *pricesRepo) UpsertBatch(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
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
		INSERT INTO price_points (date, coin, price_usd)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET
			coin = EXCLUDED.coin,
			price_usd = EXCLUDED.price_usd`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err = stmt.ExecContext(ctx, p.Date, p.Coin, p.PriceUSD); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}

// AverageInRange returns the mean close over [from, to) for the coin.
// ok is false when no rows match, so a week with no price data is
// distinguishable from a week priced at zero.
func (r *pricesRepo) AverageInRange(ctx context.Context, from, to time.Time, coin domain.Coin) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT AVG(price_usd)
		FROM price_points
		WHERE coin = $1 AND date >= $2 AND date < $3`

	var avg sql.NullFloat64
	if err := r.db.QueryRowxContext(ctx, query, coin, from, to).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("failed to average prices: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}

	return avg.Float64, true, nil
}
