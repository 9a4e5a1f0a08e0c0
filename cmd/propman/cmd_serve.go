package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	server "github.com/Akharrat1991/AI-Property-Management/internal/adapters/http_server"
	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/shared"
)

var serveInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run analysis on a schedule and expose the results over HTTP",
	Long: `Runs the analysis pipeline at a fixed interval and serves the latest
summary and pricing decisions on the HTTP API. Metrics are exported
separately on METRICS_ADDR.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 24*time.Hour, "time between analysis runs")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	observability.Serve()

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Store: d.store})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// first run immediately, then on the interval
	runOnce(ctx, d)
	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		case <-ticker.C:
			runOnce(ctx, d)
		}
	}
}

func runOnce(ctx context.Context, d *deps) {
	if ctx.Err() != nil {
		return
	}
	if _, err := d.pipeline.Run(ctx, d.props); err != nil {
		log.Error().Err(err).Msg("scheduled analysis run failed")
	}
}
