package insight

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

// fakeStatsRepo is an in-memory StatsRepo backed by a sorted slice.
type fakeStatsRepo struct {
	rows []domain.WeeklyStats
}

func (f *fakeStatsRepo) UpsertBatch(_ context.Context, rows []domain.WeeklyStats) error {
	for _, row := range rows {
		replaced := false
		for i := range f.rows {
			if f.rows[i].Year == row.Year && f.rows[i].Week == row.Week {
				f.rows[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			f.rows = append(f.rows, row)
		}
	}
	sort.Slice(f.rows, func(i, j int) bool {
		if f.rows[i].Year != f.rows[j].Year {
			return f.rows[i].Year < f.rows[j].Year
		}
		return f.rows[i].Week < f.rows[j].Week
	})
	return nil
}

func (f *fakeStatsRepo) Scan(_ context.Context, yr persistence.YearRange) ([]domain.WeeklyStats, error) {
	var out []domain.WeeklyStats
	for _, row := range f.rows {
		if !yr.Contains(row.Year) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStatsRepo) Last(_ context.Context, n, offset int) ([]domain.WeeklyStats, error) {
	end := len(f.rows) - offset
	if end <= 0 {
		return nil, nil
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.WeeklyStats, end-start)
	copy(out, f.rows[start:end])
	return out, nil
}

// fakePriceRepo returns a fixed per-date average keyed by week start.
type fakePriceRepo struct {
	byWeekStart map[time.Time]float64
}

func (f *fakePriceRepo) UpsertBatch(_ context.Context, _ []domain.PricePoint) error {
	return nil
}

func (f *fakePriceRepo) AverageInRange(_ context.Context, from, _ time.Time, _ domain.Coin) (float64, bool, error) {
	avg, ok := f.byWeekStart[from]
	return avg, ok, nil
}

func week(year, wk, users int) domain.WeeklyStats {
	return domain.WeeklyStats{
		Year:          year,
		Week:          wk,
		WeekStart:     domain.WeekStartDate(year, wk),
		TotalUsers:    users,
		TotalPosts:    users * 3,
		TotalComments: users * 2,
		Occasional:    users,
	}
}

func newTestEngine(stats []domain.WeeklyStats, prices map[time.Time]float64) *Engine {
	return NewEngine(persistence.Repository{
		Stats:  &fakeStatsRepo{rows: stats},
		Prices: &fakePriceRepo{byWeekStart: prices},
	})
}

func TestGetSummary(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2023, 1, 100),
		week(2023, 2, 150),
		week(2023, 3, 120),
	}
	engine := newTestEngine(stats, nil)

	s, err := engine.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, s.TotalWeeks)
	assert.Equal(t, 370, s.TotalUserWeeks)
	assert.Equal(t, 370*3, s.TotalPosts)
	assert.Equal(t, 370*2, s.TotalComments)
	assert.InDelta(t, 370.0/3, s.AvgWeeklyUsers, 1e-9)
	assert.Equal(t, 150, s.PeakWeeklyUsers)
	assert.Equal(t, domain.WeekStartDate(2023, 2), s.PeakWeekStart)

	// The newest week is treated as incomplete: the second-to-last one is
	// the last complete week.
	assert.Equal(t, 150, s.LastCompleteWeekUsers)
	assert.Equal(t, domain.WeekStartDate(2023, 2), s.LastCompleteWeekStart)
}

func TestGetSummary_PeakTieBreaksEarliest(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2023, 1, 150),
		week(2023, 2, 150),
		week(2023, 3, 80),
	}
	engine := newTestEngine(stats, nil)

	s, err := engine.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.WeekStartDate(2023, 1), s.PeakWeekStart)
}

func TestGetSummary_InsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		stats []domain.WeeklyStats
	}{
		{name: "no_rows", stats: nil},
		{name: "single_row", stats: []domain.WeeklyStats{week(2023, 1, 10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.stats, nil)
			_, err := engine.GetSummary(context.Background())
			assert.True(t, errors.Is(err, persistence.ErrInsufficientData))
		})
	}
}

func TestGetYearOverYear(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2019, 1, 100),
		week(2019, 2, 200),
		week(2020, 1, 300),
		week(2020, 2, 300),
		week(2021, 1, 0),
		week(2022, 1, 50),
	}
	prices := map[time.Time]float64{
		domain.WeekStartDate(2019, 1): 0.20,
		domain.WeekStartDate(2019, 2): 0.40,
		domain.WeekStartDate(2020, 1): 0.10,
	}
	engine := newTestEngine(stats, prices)

	out, err := engine.GetYearOverYear(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 4)

	y2019 := out[0]
	assert.Equal(t, 2019, y2019.Year)
	assert.InDelta(t, 150, y2019.AvgWeeklyUsers, 1e-9)
	require.NotNil(t, y2019.AvgPrice)
	assert.InDelta(t, 0.30, *y2019.AvgPrice, 1e-9)
	assert.Nil(t, y2019.ChangePercent, "first year has no prior to compare against")

	y2020 := out[1]
	assert.InDelta(t, 300, y2020.AvgWeeklyUsers, 1e-9)
	require.NotNil(t, y2020.AvgPrice)
	assert.InDelta(t, 0.10, *y2020.AvgPrice, 1e-9)
	require.NotNil(t, y2020.ChangePercent)
	assert.InDelta(t, 100, *y2020.ChangePercent, 1e-9)

	y2021 := out[2]
	assert.Zero(t, y2021.AvgWeeklyUsers)
	assert.Nil(t, y2021.AvgPrice, "no price rows for 2021 weeks")
	require.NotNil(t, y2021.ChangePercent)
	assert.InDelta(t, -100, *y2021.ChangePercent, 1e-9)

	y2022 := out[3]
	assert.Nil(t, y2022.ChangePercent, "prior year averaged zero users")
}

func TestGetYearOverYear_NoRows(t *testing.T) {
	engine := newTestEngine(nil, nil)
	_, err := engine.GetYearOverYear(context.Background())
	assert.True(t, errors.Is(err, persistence.ErrInsufficientData))
}

func TestGetCorrelation_PerfectPositive(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2023, 1, 10),
		week(2023, 2, 20),
		week(2023, 3, 30),
		week(2023, 4, 40),
	}
	prices := map[time.Time]float64{
		domain.WeekStartDate(2023, 1): 1,
		domain.WeekStartDate(2023, 2): 2,
		domain.WeekStartDate(2023, 3): 3,
		domain.WeekStartDate(2023, 4): 4,
	}
	engine := newTestEngine(stats, prices)

	c, err := engine.GetCorrelation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Coefficient, 1e-9)
	assert.Equal(t, "strong positive correlation", c.Description)
	assert.Equal(t, 4, c.SampleWeeks)
}

func TestGetCorrelation_ExcludesPricelessWeeks(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2023, 1, 10),
		week(2023, 2, 999), // no price: excluded, must not skew r
		week(2023, 3, 30),
		week(2023, 4, 40),
	}
	prices := map[time.Time]float64{
		domain.WeekStartDate(2023, 1): 1,
		domain.WeekStartDate(2023, 3): 3,
		domain.WeekStartDate(2023, 4): 4,
	}
	engine := newTestEngine(stats, prices)

	c, err := engine.GetCorrelation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, c.SampleWeeks)
	assert.InDelta(t, 1.0, c.Coefficient, 1e-9)
}

func TestGetCorrelation_ConstantPriceIsZero(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2023, 1, 10),
		week(2023, 2, 20),
		week(2023, 3, 30),
		week(2023, 4, 40),
	}
	prices := map[time.Time]float64{
		domain.WeekStartDate(2023, 1): 5,
		domain.WeekStartDate(2023, 2): 5,
		domain.WeekStartDate(2023, 3): 5,
		domain.WeekStartDate(2023, 4): 5,
	}
	engine := newTestEngine(stats, prices)

	c, err := engine.GetCorrelation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Coefficient)
	assert.Equal(t, "no significant correlation", c.Description)
}

func TestDescribeCorrelation(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{r: 0.9, want: "strong positive correlation"},
		{r: -0.9, want: "strong inverse correlation"},
		{r: 0.5, want: "moderate positive correlation"},
		{r: -0.45, want: "moderate inverse correlation"},
		{r: 0.3, want: "weak positive correlation"},
		{r: -0.25, want: "weak inverse correlation"},
		{r: 0.1, want: "no significant correlation"},
		{r: 0, want: "no significant correlation"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, describeCorrelation(tt.r), "r=%v", tt.r)
	}
}

func TestGetActivityDistribution_SumsToHundred(t *testing.T) {
	stats := []domain.WeeklyStats{
		{Year: 2023, Week: 1, WeekStart: domain.WeekStartDate(2023, 1),
			TotalUsers: 11, UltraActive: 1, VeryActive: 2, Active: 3, Occasional: 4, LowActivity: 1},
		{Year: 2023, Week: 2, WeekStart: domain.WeekStartDate(2023, 2),
			TotalUsers: 7, VeryActive: 1, Active: 2, Occasional: 1, LowActivity: 3},
	}
	engine := newTestEngine(stats, nil)

	d, err := engine.GetActivityDistribution(context.Background())
	require.NoError(t, err)

	sum := d.UltraActive + d.VeryActive + d.Active + d.Occasional + d.LowActivity
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestGetActivityDistribution_AwkwardSplitStillSumsToHundred(t *testing.T) {
	// Four tiers of 3/16 each round to 18.8% independently, which together
	// with 25.0% would total 100.2. Apportionment must land on 100.0 exactly.
	stats := []domain.WeeklyStats{
		{Year: 2023, Week: 1, WeekStart: domain.WeekStartDate(2023, 1),
			TotalUsers: 16, UltraActive: 3, VeryActive: 3, Active: 3, Occasional: 3, LowActivity: 4},
	}
	engine := newTestEngine(stats, nil)

	d, err := engine.GetActivityDistribution(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 18.8, d.UltraActive)
	assert.Equal(t, 18.8, d.VeryActive)
	assert.Equal(t, 18.7, d.Active)
	assert.Equal(t, 18.7, d.Occasional)
	assert.Equal(t, 25.0, d.LowActivity)

	sum := d.UltraActive + d.VeryActive + d.Active + d.Occasional + d.LowActivity
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestDistributionOf_EmptyIsAllZeros(t *testing.T) {
	d := DistributionOf(nil)
	assert.Zero(t, d.UltraActive)
	assert.Zero(t, d.VeryActive)
	assert.Zero(t, d.Active)
	assert.Zero(t, d.Occasional)
	assert.Zero(t, d.LowActivity)
}

func TestScanWeeklyStats_YearFilter(t *testing.T) {
	stats := []domain.WeeklyStats{
		week(2022, 1, 10),
		week(2023, 1, 20),
	}
	engine := newTestEngine(stats, nil)

	rows, err := engine.ScanWeeklyStats(context.Background(), persistence.YearRange{From: 2023, To: 2023})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2023, rows[0].Year)
}
