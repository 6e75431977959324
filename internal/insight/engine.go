// Package insight derives summary statistics, year-over-year trends, activity
// distribution and price correlation from the weekly stats and price stores.
// The engine holds no state of its own: every result is a pure function of
// the current store contents, recomputed on demand.
package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/numeric"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

// Engine answers insight queries by joining the two stores.
type Engine struct {
	stats  persistence.StatsRepo
	prices persistence.PriceRepo
}

// NewEngine creates an insight engine over the given repositories.
func NewEngine(repos persistence.Repository) *Engine {
	return &Engine{stats: repos.Stats, prices: repos.Prices}
}

// Summary is the headline view over all stored weeks.
type Summary struct {
	TotalWeeks            int       `json:"total_weeks"`
	TotalUserWeeks        int       `json:"total_user_weeks"`
	TotalPosts            int       `json:"total_posts"`
	TotalComments         int       `json:"total_comments"`
	AvgWeeklyUsers        float64   `json:"avg_weekly_users"`
	PeakWeeklyUsers       int       `json:"peak_weekly_users"`
	PeakWeekStart         time.Time `json:"peak_week_start"`
	LastCompleteWeekUsers int       `json:"last_complete_week_users"`
	LastCompleteWeekStart time.Time `json:"last_complete_week_start"`
}

// YearRow is one year's aggregate in the year-over-year view. AvgPrice is
// nil when no price data exists for any of the year's weeks; ChangePercent
// is nil for the first year in the series and whenever the prior year's
// average is zero.
type YearRow struct {
	Year           int      `json:"year"`
	AvgWeeklyUsers float64  `json:"avg_weekly_users"`
	AvgPrice       *float64 `json:"avg_price,omitempty"`
	TotalPosts     int      `json:"total_posts"`
	TotalComments  int      `json:"total_comments"`
	ChangePercent  *float64 `json:"change_percent,omitempty"`
}

// Correlation is the Pearson relationship between weekly average price and
// weekly active users, over the weeks that have price data.
type Correlation struct {
	Coefficient float64 `json:"coefficient"`
	Description string  `json:"description"`
	SampleWeeks int     `json:"sample_weeks"`
}

// Distribution is the share of each activity tier across all stored weeks,
// as percentages of the grand tier total, rounded to one decimal.
type Distribution struct {
	UltraActive float64 `json:"ultra_active"`
	VeryActive  float64 `json:"very_active"`
	Active      float64 `json:"active"`
	Occasional  float64 `json:"occasional"`
	LowActivity float64 `json:"low_activity"`
}

// GetSummary computes the headline view. Fails with ErrInsufficientData
// when no weeks are stored, or when fewer than two weeks exist so no
// "last complete week" can be named.
func (e *Engine) GetSummary(ctx context.Context) (*Summary, error) {
	rows, err := e.stats.Scan(ctx, persistence.YearRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, persistence.ErrInsufficientData
	}

	s := &Summary{TotalWeeks: len(rows)}
	peak := rows[0]
	for _, row := range rows {
		s.TotalUserWeeks += row.TotalUsers
		s.TotalPosts += row.TotalPosts
		s.TotalComments += row.TotalComments
		// Strict greater-than keeps the earliest week on a tie.
		if row.TotalUsers > peak.TotalUsers {
			peak = row
		}
	}
	s.AvgWeeklyUsers = float64(s.TotalUserWeeks) / float64(len(rows))
	s.PeakWeeklyUsers = peak.TotalUsers
	s.PeakWeekStart = peak.WeekStart

	// The newest stored week is assumed truncated, so the second-most-recent
	// one stands in as the last complete week. This is a convention, not a
	// date check against the clock.
	last, err := e.stats.Last(ctx, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last complete week: %w", err)
	}
	if len(last) == 0 {
		return nil, persistence.ErrInsufficientData
	}
	s.LastCompleteWeekUsers = last[0].TotalUsers
	s.LastCompleteWeekStart = last[0].WeekStart

	return s, nil
}

// GetYearOverYear groups stored weeks by year and reports yearly averages
// with percent change against the prior year. The yearly average price is a
// mean of the per-week means, not a time-weighted average; that matches the
// historical behavior this engine reproduces and is kept deliberately.
func (e *Engine) GetYearOverYear(ctx context.Context) ([]YearRow, error) {
	rows, err := e.stats.Scan(ctx, persistence.YearRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, persistence.ErrInsufficientData
	}

	type yearAcc struct {
		users    []float64
		prices   []float64
		posts    int
		comments int
	}

	var years []int
	acc := make(map[int]*yearAcc)
	for _, row := range rows {
		a := acc[row.Year]
		if a == nil {
			a = &yearAcc{}
			acc[row.Year] = a
			years = append(years, row.Year)
		}
		a.users = append(a.users, float64(row.TotalUsers))
		a.posts += row.TotalPosts
		a.comments += row.TotalComments

		avg, ok, err := e.weekPrice(ctx, row)
		if err != nil {
			return nil, err
		}
		if ok {
			a.prices = append(a.prices, avg)
		}
	}

	out := make([]YearRow, 0, len(years))
	var prev *YearRow
	for _, year := range years {
		a := acc[year]
		row := YearRow{
			Year:           year,
			AvgWeeklyUsers: numeric.Mean(a.users),
			TotalPosts:     a.posts,
			TotalComments:  a.comments,
		}
		if len(a.prices) > 0 {
			price := numeric.Mean(a.prices)
			row.AvgPrice = &price
		}
		if prev != nil && prev.AvgWeeklyUsers != 0 {
			change := (row.AvgWeeklyUsers - prev.AvgWeeklyUsers) / prev.AvgWeeklyUsers * 100
			row.ChangePercent = &change
		}
		out = append(out, row)
		prev = &out[len(out)-1]
	}

	return out, nil
}

// GetCorrelation computes the Pearson coefficient between weekly average
// price and weekly active users. Weeks without price data are excluded from
// both vectors rather than imputed as zero.
func (e *Engine) GetCorrelation(ctx context.Context) (*Correlation, error) {
	rows, err := e.stats.Scan(ctx, persistence.YearRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, persistence.ErrInsufficientData
	}

	var prices, users []float64
	for _, row := range rows {
		avg, ok, err := e.weekPrice(ctx, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		prices = append(prices, avg)
		users = append(users, float64(row.TotalUsers))
	}

	r := numeric.Pearson(prices, users)
	return &Correlation{
		Coefficient: r,
		Description: describeCorrelation(r),
		SampleWeeks: len(prices),
	}, nil
}

// GetActivityDistribution reports each tier's share of the grand tier total
// across all weeks. Dividing by the tier total rather than per-week user
// counts avoids double-weighting weeks.
func (e *Engine) GetActivityDistribution(ctx context.Context) (*Distribution, error) {
	rows, err := e.stats.Scan(ctx, persistence.YearRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, persistence.ErrInsufficientData
	}

	d := DistributionOf(rows)
	return &d, nil
}

// ScanWeeklyStats exposes the raw weekly rows to serving layers, optionally
// bounded by year.
func (e *Engine) ScanWeeklyStats(ctx context.Context, yr persistence.YearRange) ([]domain.WeeklyStats, error) {
	rows, err := e.stats.Scan(ctx, yr)
	if err != nil {
		return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
	}
	return rows, nil
}

// DistributionOf computes the tier distribution of the given rows. Shares
// are apportioned by largest remainder so the five percentages sum to
// exactly 100.0; rounding each tier independently can overshoot by a few
// tenths. A zero grand total yields all-zero percentages, never NaN.
func DistributionOf(rows []domain.WeeklyStats) Distribution {
	var ultra, very, active, occasional, low int
	for _, row := range rows {
		ultra += row.UltraActive
		very += row.VeryActive
		active += row.Active
		occasional += row.Occasional
		low += row.LowActivity
	}

	total := ultra + very + active + occasional + low
	if total == 0 {
		return Distribution{}
	}

	tenths := numeric.ApportionTenths([]int{ultra, very, active, occasional, low}, total)
	return Distribution{
		UltraActive: float64(tenths[0]) / 10,
		VeryActive:  float64(tenths[1]) / 10,
		Active:      float64(tenths[2]) / 10,
		Occasional:  float64(tenths[3]) / 10,
		LowActivity: float64(tenths[4]) / 10,
	}
}

// weekPrice joins one weekly row against the price store over the 7-day
// window starting at the row's week start, using the coin the year's era
// prescribes.
func (e *Engine) weekPrice(ctx context.Context, row domain.WeeklyStats) (float64, bool, error) {
	from := row.WeekStart
	to := from.AddDate(0, 0, 7)
	avg, ok, err := e.prices.AverageInRange(ctx, from, to, domain.CoinForYear(row.Year))
	if err != nil {
		return 0, false, fmt.Errorf("failed to average prices for week %d/%d: %w", row.Year, row.Week, err)
	}
	return avg, ok, nil
}

// describeCorrelation maps a coefficient to its qualitative label.
func describeCorrelation(r float64) string {
	abs := r
	if abs < 0 {
		abs = -abs
	}

	var strength string
	switch {
	case abs > 0.7:
		strength = "strong"
	case abs >= 0.4:
		strength = "moderate"
	case abs >= 0.2:
		strength = "weak"
	default:
		return "no significant correlation"
	}

	sign := "positive"
	if r < 0 {
		sign = "inverse"
	}
	return fmt.Sprintf("%s %s correlation", strength, sign)
}
