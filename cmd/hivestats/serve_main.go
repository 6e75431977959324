package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CryptoSharon/hive-stats/internal/insight"
	httpapi "github.com/CryptoSharon/hive-stats/internal/interfaces/http"
	"github.com/CryptoSharon/hive-stats/internal/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only insight API",
		Long:  "Starts the local HTTP server exposing summary, year-over-year, correlation, distribution and weekly endpoints, plus /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manager, err := setup(cmd)
			if err != nil {
				return err
			}
			defer manager.Close()

			registry := prometheus.NewRegistry()
			engine := insight.NewEngine(manager.Repository())

			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:         cfg.HTTP.Host,
				Port:         cfg.HTTP.Port,
				ReadTimeout:  cfg.HTTP.ReadTimeout,
				WriteTimeout: cfg.HTTP.WriteTimeout,
				IdleTimeout:  60 * time.Second,
			}, engine, manager, metrics.NewRegistry(registry), registry)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
}
