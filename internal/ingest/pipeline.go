// Package ingest drives the yearly backfill: fetch a year of raw actions,
// aggregate them into weekly rows, and upsert both stores. Years are
// processed one at a time because the ledger query dominates latency; the
// aggregation itself is in-memory and fast. Re-running any year overwrites
// the same keys with the same values.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CryptoSharon/hive-stats/internal/aggregate"
	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/metrics"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

// ActionSource is the ledger-facing contract.
type ActionSource interface {
	FetchActions(ctx context.Context, from, to time.Time) ([]domain.Action, error)
}

// PriceSource is the price-feed-facing contract.
type PriceSource interface {
	FetchDailyPrices(ctx context.Context, coin domain.Coin, through time.Time, limit int) ([]domain.PricePoint, error)
}

// Pipeline wires the two sources to the two stores.
type Pipeline struct {
	actions ActionSource
	prices  PriceSource
	repos   persistence.Repository
	metrics *metrics.Registry
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(actions ActionSource, prices PriceSource, repos persistence.Repository, m *metrics.Registry) *Pipeline {
	return &Pipeline{actions: actions, prices: prices, repos: repos, metrics: m}
}

// RunYear ingests one calendar year: actions into weekly stats, daily
// closes for the year's policy coin into the price store. A year with no
// activity is a valid empty result, not a failure.
func (p *Pipeline) RunYear(ctx context.Context, year int) error {
	start := time.Now()
	logger := log.With().Int("year", year).Logger()

	from, to := domain.YearRange(year)
	actions, err := p.actions.FetchActions(ctx, from, to)
	if err != nil {
		p.countRun("error")
		return fmt.Errorf("action source unavailable for %d: %w", year, err)
	}
	if p.metrics != nil {
		p.metrics.ActionsFetched.Add(float64(len(actions)))
	}

	rows := aggregate.AggregateYear(actions, year)
	if err := p.repos.Stats.UpsertBatch(ctx, rows); err != nil {
		p.countRun("error")
		return fmt.Errorf("failed to upsert weekly stats for %d: %w", year, err)
	}
	if p.metrics != nil {
		p.metrics.WeeksUpserted.Add(float64(len(rows)))
	}

	points, err := p.fetchYearPrices(ctx, year)
	if err != nil {
		p.countRun("error")
		return err
	}
	if err := p.repos.Prices.UpsertBatch(ctx, points); err != nil {
		p.countRun("error")
		return fmt.Errorf("failed to upsert prices for %d: %w", year, err)
	}
	if p.metrics != nil {
		p.metrics.PricesUpserted.Add(float64(len(points)))
	}

	p.countRun("ok")
	logger.Info().
		Int("actions", len(actions)).
		Int("weeks", len(rows)).
		Int("prices", len(points)).
		Dur("elapsed", time.Since(start)).
		Msg("year ingested")

	return nil
}

// RunRange ingests years [fromYear, toYear] sequentially, stopping at the
// first failure so a broken source cannot half-fill later years.
func (p *Pipeline) RunRange(ctx context.Context, fromYear, toYear int) error {
	if fromYear > toYear {
		return fmt.Errorf("invalid year range %d..%d", fromYear, toYear)
	}

	log.Info().Int("from", fromYear).Int("to", toYear).Msg("starting backfill")
	for year := fromYear; year <= toYear; year++ {
		if err := p.RunYear(ctx, year); err != nil {
			return err
		}
	}
	return nil
}

// fetchYearPrices pulls the year's daily closes for its policy coin and
// keeps only the points dated within the year.
func (p *Pipeline) fetchYearPrices(ctx context.Context, year int) ([]domain.PricePoint, error) {
	coin := domain.CoinForYear(year)
	from, to := domain.YearRange(year)
	through := to.AddDate(0, 0, -1)

	points, err := p.prices.FetchDailyPrices(ctx, coin, through, 366)
	if err != nil {
		return nil, fmt.Errorf("price source unavailable for %d: %w", year, err)
	}

	inYear := points[:0]
	for _, pt := range points {
		if !pt.Date.Before(from) && pt.Date.Before(to) {
			inYear = append(inYear, pt)
		}
	}
	return inYear, nil
}

func (p *Pipeline) countRun(result string) {
	if p.metrics != nil {
		p.metrics.IngestRuns.WithLabelValues(result).Inc()
	}
}
