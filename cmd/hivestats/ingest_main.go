package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CryptoSharon/hive-stats/internal/ingest"
	"github.com/CryptoSharon/hive-stats/internal/metrics"
	"github.com/CryptoSharon/hive-stats/internal/sources/ledger"
	"github.com/CryptoSharon/hive-stats/internal/sources/pricefeed"
)

func newIngestCmd() *cobra.Command {
	var fromYear, toYear int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Backfill weekly stats and prices for a range of years",
		Long: `Fetches raw actions from the ledger one year at a time, aggregates
them into weekly stats, pulls the matching daily price series, and
upserts both stores. Re-running a year overwrites it with identical
values, so the command is safe to repeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manager, err := setup(cmd)
			if err != nil {
				return err
			}
			defer manager.Close()

			if fromYear == 0 {
				fromYear = cfg.Ingest.FromYear
			}
			if toYear == 0 {
				toYear = cfg.Ingest.ToYear
			}

			pipeline := ingest.NewPipeline(
				ledger.NewClient(manager.DB(), cfg.Database.QueryTimeout),
				pricefeed.NewClient(cfg.PriceFeed),
				manager.Repository(),
				metrics.NewRegistry(prometheus.NewRegistry()),
			)

			if err := pipeline.RunRange(cmd.Context(), fromYear, toYear); err != nil {
				return err
			}

			log.Info().Int("from", fromYear).Int("to", toYear).Msg("backfill complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&fromYear, "from-year", 0, "First year to ingest (default from config)")
	cmd.Flags().IntVar(&toYear, "to-year", 0, "Last year to ingest (default from config)")

	return cmd
}
