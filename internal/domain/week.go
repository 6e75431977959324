package domain

import "time"

// Week numbering convention: week N of a year covers the 7 calendar days
// starting at January 1 + (N-1)*7, in UTC. Week 1 always begins on
// January 1 regardless of weekday, and the final week (53, or 52 in some
// years) may be short. The same rule drives both bucket membership and
// WeekStartDate, so the displayed week start is exact for its bucket.
// This deliberately replaces the SQL engine's week-of-year function the
// original pipeline leaned on, whose boundary rules were never pinned down.

// WeekOfYear returns the 1-based week index of t within its own calendar
// year under the January-1-anchored convention.
func WeekOfYear(t time.Time) int {
	return (t.UTC().YearDay()-1)/7 + 1
}

// WeekStartDate returns the first day (UTC midnight) of the given week.
func WeekStartDate(year, week int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.AddDate(0, 0, (week-1)*7)
}

// YearRange returns the half-open UTC instant range [Jan 1 year, Jan 1 year+1)
// used to window ledger fetches.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
