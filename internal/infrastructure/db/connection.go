package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/CryptoSharon/hive-stats/internal/persistence"
	"github.com/CryptoSharon/hive-stats/internal/persistence/postgres"
)

// Config holds database connection configuration. The DSN can come from
// the PG_DSN environment variable instead of the config file so it stays
// out of committed YAML.
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns reasonable defaults for database connections.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// Manager owns the database connection and the repository instances built
// on it.
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  persistence.Repository
}

// NewManager opens the connection pool, verifies connectivity and wires
// the repositories.
func NewManager(config Config) (*Manager, error) {
	if config.DSN == "" {
		config.DSN = os.Getenv("PG_DSN")
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("database DSN is required (config or PG_DSN)")
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = DefaultConfig().QueryTimeout
	}

	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Manager{
		db:     db,
		config: config,
		repos: persistence.Repository{
			Stats:  postgres.NewStatsRepo(db, config.QueryTimeout),
			Prices: postgres.NewPricesRepo(db, config.QueryTimeout),
		},
	}, nil
}

// schema bootstraps the two stores this service owns. The action ledger
// table belongs to the chain indexer and is never created here.
const schema = `
CREATE TABLE IF NOT EXISTS weekly_stats (
	year           INT NOT NULL,
	week           INT NOT NULL,
	week_start     DATE NOT NULL,
	total_users    INT NOT NULL DEFAULT 0,
	total_posts    INT NOT NULL DEFAULT 0,
	total_comments INT NOT NULL DEFAULT 0,
	ultra_active   INT NOT NULL DEFAULT 0,
	very_active    INT NOT NULL DEFAULT 0,
	active         INT NOT NULL DEFAULT 0,
	occasional     INT NOT NULL DEFAULT 0,
	low_activity   INT NOT NULL DEFAULT 0,
	PRIMARY KEY (year, week)
);

CREATE TABLE IF NOT EXISTS price_points (
	date      DATE PRIMARY KEY,
	coin      VARCHAR(16) NOT NULL,
	price_usd DOUBLE PRECISION NOT NULL,
	CONSTRAINT price_points_nonneg CHECK (price_usd >= 0)
);
`

// EnsureSchema creates the owned tables when they do not exist yet.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.QueryTimeout)
	defer cancel()

	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Repository returns the wired repository collection.
func (m *Manager) Repository() persistence.Repository {
	return m.repos
}

// DB returns the underlying connection, for the ledger client which reads
// from the same database.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Ping tests connectivity, for health endpoints.
func (m *Manager) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.QueryTimeout)
	defer cancel()
	return m.db.PingContext(ctx)
}

// Close closes the connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
