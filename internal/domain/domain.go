package domain

import (
	"time"
)

// ActionKind distinguishes top-level posts from comments. The distinction
// comes from the event source (a comment carries a parent reference there);
// the aggregator never infers it.
type ActionKind string

const (
	KindPost    ActionKind = "post"
	KindComment ActionKind = "comment"
)

// Action is a single content-creation event for one account, as returned
// by the action ledger.
type Action struct {
	Account   string     `json:"account" db:"account"`
	Timestamp time.Time  `json:"ts" db:"ts"`
	Kind      ActionKind `json:"kind" db:"kind"`
}

// WeeklyStats holds the per-week aggregate for one (year, week) bucket.
// The five tier counts partition TotalUsers: every account observed in the
// week lands in exactly one tier, and accounts with zero actions are not
// counted at all.
type WeeklyStats struct {
	Year          int       `json:"year" db:"year"`
	Week          int       `json:"week" db:"week"`
	WeekStart     time.Time `json:"week_start" db:"week_start"`
	TotalUsers    int       `json:"total_users" db:"total_users"`
	TotalPosts    int       `json:"total_posts" db:"total_posts"`
	TotalComments int       `json:"total_comments" db:"total_comments"`
	UltraActive   int       `json:"ultra_active" db:"ultra_active"`
	VeryActive    int       `json:"very_active" db:"very_active"`
	Active        int       `json:"active" db:"active"`
	Occasional    int       `json:"occasional" db:"occasional"`
	LowActivity   int       `json:"low_activity" db:"low_activity"`
}

// TotalActivity returns posts+comments for the week.
func (w WeeklyStats) TotalActivity() int {
	return w.TotalPosts + w.TotalComments
}

// TierSum returns the sum of the five tier counts. Equal to TotalUsers for
// any row produced by the aggregator.
func (w WeeklyStats) TierSum() int {
	return w.UltraActive + w.VeryActive + w.Active + w.Occasional + w.LowActivity
}

// Coin identifies the asset whose daily close is tracked.
type Coin string

const (
	CoinSteem Coin = "steem"
	CoinHive  Coin = "hive"
)

// PricePoint is one daily close for a coin, keyed by calendar date.
type PricePoint struct {
	Date     time.Time `json:"date" db:"date"`
	Coin     Coin      `json:"coin" db:"coin"`
	PriceUSD float64   `json:"price_usd" db:"price_usd"`
}

// Tier is an activity bracket for one account-week.
type Tier int

const (
	TierLowActivity Tier = iota
	TierOccasional
	TierActive
	TierVeryActive
	TierUltraActive
)

// Tier boundaries on total weekly actions. Brackets are half-open and
// non-overlapping; anything from 1 up to but excluding Occasional's floor
// is LowActivity.
const (
	UltraActiveMin = 50
	VeryActiveMin  = 20
	ActiveMin      = 10
	OccasionalMin  = 3
)

// TierFor classifies a total weekly action count (>= 1) into its bracket.
func TierFor(totalActivity int) Tier {
	switch {
	case totalActivity >= UltraActiveMin:
		return TierUltraActive
	case totalActivity >= VeryActiveMin:
		return TierVeryActive
	case totalActivity >= ActiveMin:
		return TierActive
	case totalActivity >= OccasionalMin:
		return TierOccasional
	default:
		return TierLowActivity
	}
}

func (t Tier) String() string {
	switch t {
	case TierUltraActive:
		return "ultra_active"
	case TierVeryActive:
		return "very_active"
	case TierActive:
		return "active"
	case TierOccasional:
		return "occasional"
	default:
		return "low_activity"
	}
}
