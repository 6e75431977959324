package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CryptoSharon/hive-stats/internal/config"
	"github.com/CryptoSharon/hive-stats/internal/infrastructure/db"
)

const (
	appName = "hivestats"
	version = "v1.0.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Weekly activity and price insights for the Steem/Hive chains",
		Version: version,
		Long: `hivestats aggregates raw per-account posting activity into weekly
population statistics, joins them with daily coin prices, and serves
derived insights: activity tiers, year-over-year trend, and the
correlation between price and weekly active users.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setup loads configuration, connects to the database, and ensures the
// owned schema exists. Shared by every subcommand.
func setup(cmd *cobra.Command) (*config.Config, *db.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	manager, err := db.NewManager(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := manager.EnsureSchema(cmd.Context()); err != nil {
		manager.Close()
		return nil, nil, err
	}

	return cfg, manager, nil
}
