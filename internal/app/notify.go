package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

const (
	ChannelCleaning    = "cleaning"
	ChannelMaintenance = "maintenance"
	ChannelPricing     = "pricing"
	ChannelSummary     = "summary"
)

// Message is one outbound notification, already rendered.
type Message struct {
	Channel   string
	Subject   string
	Body      string
	Recipient string
}

type NotifierConfig struct {
	SenderEmail       string
	CleaningTeamEmail string
	ManagerEmail      string
}

// NotificationDispatcher fans messages out concurrently over a Transport.
// A failed or panicking channel never affects the others; every message
// produces exactly one outcome.
type NotificationDispatcher struct {
	transport domain.Transport
	cfg       NotifierConfig
}

func NewNotificationDispatcher(t domain.Transport, cfg NotifierConfig) *NotificationDispatcher {
	return &NotificationDispatcher{transport: t, cfg: cfg}
}

// Dispatch sends every message on its own goroutine and waits for all of
// them. Outcomes come back in input order regardless of completion order.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, msgs []Message) []domain.NotificationOutcome {
	outcomes := make([]domain.NotificationOutcome, len(msgs))

	var wg sync.WaitGroup
	for i, m := range msgs {
		wg.Add(1)
		go func(i int, m Message) {
			defer wg.Done()
			outcomes[i] = d.sendOne(ctx, m)
		}(i, m)
	}
	wg.Wait()

	return outcomes
}

func (d *NotificationDispatcher) sendOne(ctx context.Context, m Message) (out domain.NotificationOutcome) {
	out = domain.NotificationOutcome{Channel: m.Channel, Recipient: m.Recipient}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Err = fmt.Sprintf("panic: %v", r)
			observability.ObserveNotification(m.Channel, "error")
			log.Error().Str("channel", m.Channel).Interface("panic", r).Msg("notification send panicked")
		}
	}()

	if err := d.transport.Send(ctx, m.Subject, m.Body, m.Recipient); err != nil {
		out.Success = false
		out.Err = err.Error()
		observability.ObserveNotification(m.Channel, "error")
		log.Warn().Err(err).Str("channel", m.Channel).Str("recipient", m.Recipient).Msg("notification failed")
		return out
	}

	out.Success = true
	observability.ObserveNotification(m.Channel, "ok")
	log.Info().Str("channel", m.Channel).Str("recipient", m.Recipient).Msg("notification sent")
	return out
}
