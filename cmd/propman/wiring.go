package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/openai"
	redisad "github.com/Akharrat1991/AI-Property-Management/internal/adapters/redis"
	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/scrapeapi"
	smtpmail "github.com/Akharrat1991/AI-Property-Management/internal/adapters/smtp"
	"github.com/Akharrat1991/AI-Property-Management/internal/app"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
	"github.com/Akharrat1991/AI-Property-Management/internal/shared"
)

// deps is everything a run needs, built once from config.
type deps struct {
	pipeline *app.Pipeline
	store    *app.SummaryStore
	guard    *guardrail.Guardrail
	ledger   *app.FeedbackLedger
	mailer   *smtpmail.Mailer
	props    []domain.PropertyRecord
}

func buildDeps(cfg shared.Config) (*deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	props, err := shared.LoadPortfolio(cfg.PortfolioPath)
	if err != nil {
		return nil, err
	}

	guard := guardrail.New(cfg.RateLimitCalls, cfg.RateLimitWindow, cfg.MaxIterations, cfg.MaxAdjustment)

	source, err := scrapeapi.New(cfg.ScrapeBase, cfg.ScrapeToken, 2, cfg.MaxReviews)
	if err != nil {
		return nil, err
	}
	classifier, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, 2)
	if err != nil {
		return nil, err
	}
	mailer, err := smtpmail.New(smtpmail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Sender:   cfg.SenderEmail,
		Password: cfg.SMTPPassword,
		DemoMode: cfg.DemoMode,
	})
	if err != nil {
		return nil, err
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("review cache enabled")
	}

	notifierCfg := app.NotifierConfig{
		SenderEmail:       cfg.SenderEmail,
		CleaningTeamEmail: cfg.CleaningTeamEmail,
		ManagerEmail:      cfg.ManagerEmail,
	}

	ledger := app.NewFeedbackLedger(0, 0) // defaults
	store := app.NewSummaryStore()
	pipeline := app.NewPipeline(
		app.NewIngestionEngine(source, cache, guard, cfg.IngestWorkers, cfg.CacheTTL),
		app.NewClassificationEngine(classifier, guard, cfg.ClassifyWorkers),
		app.NewPricingEngine(guard, app.DefaultPricingConfig()),
		app.NewNotificationDispatcher(mailer, notifierCfg),
		guard, ledger, store, notifierCfg,
	)

	return &deps{
		pipeline: pipeline,
		store:    store,
		guard:    guard,
		ledger:   ledger,
		mailer:   mailer,
		props:    props,
	}, nil
}
