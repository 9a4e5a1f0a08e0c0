package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/shared"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one full analysis pass over the portfolio",
	Long: `Fetches the latest guest reviews for every property, classifies them,
derives pricing recommendations and sends the team notifications.
Exits non-zero when the run is aborted by a guardrail.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := d.pipeline.Run(ctx, d.props)
	printSummary(sum)
	if err != nil {
		return fmt.Errorf("analysis run aborted: %w", err)
	}
	return nil
}
