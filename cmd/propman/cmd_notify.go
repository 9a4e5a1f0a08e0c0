package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/shared"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Verify the SMTP settings without running an analysis",
	RunE:  runNotifyTest,
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	if err := d.mailer.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("smtp check failed: %w", err)
	}
	fmt.Println("smtp connection ok")
	return nil
}
