package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoSharon/hive-stats/internal/domain"
	"github.com/CryptoSharon/hive-stats/internal/persistence"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func sampleWeek(year, week, users int) domain.WeeklyStats {
	return domain.WeeklyStats{
		Year:       year,
		Week:       week,
		WeekStart:  domain.WeekStartDate(year, week),
		TotalUsers: users,
		TotalPosts: users * 2,
		Occasional: users,
	}
}

func statsRows(rows ...domain.WeeklyStats) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{
		"year", "week", "week_start", "total_users", "total_posts", "total_comments",
		"ultra_active", "very_active", "active", "occasional", "low_activity",
	})
	for _, r := range rows {
		out.AddRow(r.Year, r.Week, r.WeekStart, r.TotalUsers, r.TotalPosts, r.TotalComments,
			r.UltraActive, r.VeryActive, r.Active, r.Occasional, r.LowActivity)
	}
	return out
}

func TestStatsRepo_UpsertBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	rows := []domain.WeeklyStats{sampleWeek(2023, 1, 10), sampleWeek(2023, 2, 12)}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO weekly_stats`)
	for range rows {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.UpsertBatch(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_UpsertBatch_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_UpsertBatch_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	rows := []domain.WeeklyStats{sampleWeek(2023, 1, 10), sampleWeek(2023, 2, 12)}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO weekly_stats`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), rows)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Scan_Unbounded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	mock.ExpectQuery(`SELECT .+ FROM weekly_stats ORDER BY year ASC, week ASC`).
		WillReturnRows(statsRows(sampleWeek(2022, 52, 9), sampleWeek(2023, 1, 10)))

	rows, err := repo.Scan(context.Background(), persistence.YearRange{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2022, rows[0].Year)
	assert.Equal(t, 2023, rows[1].Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Scan_Bounded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	mock.ExpectQuery(`SELECT .+ FROM weekly_stats WHERE year >= \$1 AND year <= \$2`).
		WithArgs(2023, 2023).
		WillReturnRows(statsRows(sampleWeek(2023, 1, 10)))

	rows, err := repo.Scan(context.Background(), persistence.YearRange{From: 2023, To: 2023})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Scan_FromOnlyLeavesUpperOpen(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	// Only the lower bound may appear in the predicate; a "year <= 0"
	// clause would silently match nothing.
	mock.ExpectQuery(`SELECT .+ FROM weekly_stats WHERE year >= \$1 ORDER BY year ASC, week ASC`).
		WithArgs(2023).
		WillReturnRows(statsRows(sampleWeek(2023, 1, 10), sampleWeek(2024, 1, 12)))

	rows, err := repo.Scan(context.Background(), persistence.YearRange{From: 2023})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Scan_ToOnlyLeavesLowerOpen(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	mock.ExpectQuery(`SELECT .+ FROM weekly_stats WHERE year <= \$1 ORDER BY year ASC, week ASC`).
		WithArgs(2022).
		WillReturnRows(statsRows(sampleWeek(2022, 52, 9)))

	rows, err := repo.Scan(context.Background(), persistence.YearRange{To: 2022})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Last_SkipsOffset(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db, 5*time.Second)

	mock.ExpectQuery(`ORDER BY year DESC, week DESC`).
		WithArgs(1, 1).
		WillReturnRows(statsRows(sampleWeek(2023, 2, 150)))

	rows, err := repo.Last(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 150, rows[0].TotalUsers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
