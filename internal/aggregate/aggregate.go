// Package aggregate reduces raw per-account actions into weekly population
// statistics. The transform is pure: identical input always yields identical
// rows, which is what makes yearly reprocessing an idempotent overwrite.
package aggregate

import (
	"sort"

	"github.com/CryptoSharon/hive-stats/internal/domain"
)

// accountWeek keys the per-account-per-week tally.
type accountWeek struct {
	account string
	week    int
}

type tally struct {
	posts    int
	comments int
}

// AggregateYear buckets actions into weekly stats rows for one calendar
// year. The caller guarantees every action's timestamp falls within
// [Jan 1 year, Jan 1 year+1); the aggregator trusts the window and does not
// re-filter. A year with no actions yields an empty slice, not an error.
// Rows come back sorted by week ascending.
func AggregateYear(actions []domain.Action, year int) []domain.WeeklyStats {
	if len(actions) == 0 {
		return nil
	}

	tallies := make(map[accountWeek]*tally)
	for _, a := range actions {
		key := accountWeek{account: a.Account, week: domain.WeekOfYear(a.Timestamp)}
		t := tallies[key]
		if t == nil {
			t = &tally{}
			tallies[key] = t
		}
		if a.Kind == domain.KindComment {
			t.comments++
		} else {
			t.posts++
		}
	}

	byWeek := make(map[int]*domain.WeeklyStats)
	for key, t := range tallies {
		row := byWeek[key.week]
		if row == nil {
			row = &domain.WeeklyStats{
				Year:      year,
				Week:      key.week,
				WeekStart: domain.WeekStartDate(year, key.week),
			}
			byWeek[key.week] = row
		}

		row.TotalUsers++
		row.TotalPosts += t.posts
		row.TotalComments += t.comments

		switch domain.TierFor(t.posts + t.comments) {
		case domain.TierUltraActive:
			row.UltraActive++
		case domain.TierVeryActive:
			row.VeryActive++
		case domain.TierActive:
			row.Active++
		case domain.TierOccasional:
			row.Occasional++
		default:
			row.LowActivity++
		}
	}

	rows := make([]domain.WeeklyStats, 0, len(byWeek))
	for _, row := range byWeek {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Week < rows[j].Week })

	return rows
}
