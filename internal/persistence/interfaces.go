// Package persistence defines the store contracts the insight engine and
// ingestion pipeline are written against. Implementations live in
// subpackages; the engine never sees a concrete database type.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/CryptoSharon/hive-stats/internal/domain"
)

// ErrInsufficientData marks an insight query that cannot be answered from
// the rows currently stored: fewer than two weeks when the last complete
// week is requested, or no weeks at all for a summary-style computation.
// Distinct from an empty ingestion range, which is a valid empty result.
var ErrInsufficientData = errors.New("insufficient data for insight computation")

// YearRange optionally bounds a stats scan to [From, To] inclusive by year.
// A zero From or To leaves that side unbounded, so {From: 2023} means
// "2023 and later". The zero value is fully unbounded.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether year falls inside the range.
func (yr YearRange) Contains(year int) bool {
	if yr.From != 0 && year < yr.From {
		return false
	}
	if yr.To != 0 && year > yr.To {
		return false
	}
	return true
}

// StatsRepo persists weekly aggregate rows keyed by (year, week).
type StatsRepo interface {
	// UpsertBatch writes all rows atomically, replacing on key conflict.
	// Either every row of the batch becomes visible or none does.
	UpsertBatch(ctx context.Context, rows []domain.WeeklyStats) error

	// Scan returns stored rows ordered by (year, week) ascending,
	// optionally bounded by yr.
	Scan(ctx context.Context, yr YearRange) ([]domain.WeeklyStats, error)

	// Last returns the n most recent rows after skipping the offset
	// newest ones, ordered ascending. Last(1, 1) is the second-most-recent
	// week, which stands in for the most recent (assumed incomplete) one.
	Last(ctx context.Context, n, offset int) ([]domain.WeeklyStats, error)
}

// PriceRepo persists daily close prices keyed by date.
type PriceRepo interface {
	// UpsertBatch writes all points atomically, replacing on date conflict.
	UpsertBatch(ctx context.Context, points []domain.PricePoint) error

	// AverageInRange returns the mean close over [from, to) for the coin.
	// ok is false when no matching rows exist, which callers must treat as
	// "no data", never as a zero price.
	AverageInRange(ctx context.Context, from, to time.Time, coin domain.Coin) (avg float64, ok bool, err error)
}

// Repository bundles the two stores for wiring convenience.
type Repository struct {
	Stats  StatsRepo
	Prices PriceRepo
}
