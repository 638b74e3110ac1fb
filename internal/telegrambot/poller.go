package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/platform/config"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/platform/worker"
)

const maxPollBackoff = 30 * time.Second

// UpdateSource long-polls the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset, timeout int) ([]tgbotapi.Update, error)
}

type BatchDispatcher interface {
	Dispatch(ctx context.Context, updates []tgbotapi.Update)
}

// Poller fetches updates and hands them to the dispatcher, advancing the
// offset past every update it has seen.
type Poller struct {
	source     UpdateSource
	dispatcher BatchDispatcher
	cfg        config.PollingConfig
	readiness  *observability.Readiness
	periodic   []worker.Task
	logger     *zerolog.Logger
	offset     int
}

func NewPoller(source UpdateSource, dispatcher BatchDispatcher, cfg config.PollingConfig, readiness *observability.Readiness, logger *zerolog.Logger) *Poller {
	return &Poller{
		source:     source,
		dispatcher: dispatcher,
		cfg:        cfg,
		readiness:  readiness,
		logger:     logger,
	}
}

// AddPeriodicTask registers housekeeping that runs alongside polling.
func (p *Poller) AddPeriodicTask(task worker.Task) {
	p.periodic = append(p.periodic, task)
}

// Run polls until ctx is canceled. Failed polls back off up to
// maxPollBackoff before the next attempt.
func (p *Poller) Run(ctx context.Context) error {
	if p.readiness != nil {
		p.readiness.SetReady(true)
		defer p.readiness.SetReady(false)
	}

	p.logger.Info().Int("offset", p.offset).Msg("polling for updates")

	loop := &worker.Loop{
		Name:       "telegram-poller",
		Interval:   p.cfg.Interval,
		MaxBackoff: maxPollBackoff,
		Step:       p.poll,
		Tasks:      p.periodic,
		OnError: func(err error, failures int) {
			if ctx.Err() != nil {
				return
			}

			observability.PollErrors.Inc()
			p.logger.Warn().Err(err).Int("failures", failures).Msg("poll failed")
		},
		Logger: p.logger,
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (p *Poller) poll(ctx context.Context) error {
	updates, err := p.source.GetUpdates(ctx, p.offset, p.cfg.Timeout)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return fmt.Errorf("polling updates at offset %d: %w", p.offset, err)
	}

	if len(updates) == 0 {
		return nil
	}

	for _, update := range updates {
		if update.UpdateID >= p.offset {
			p.offset = update.UpdateID + 1
		}
	}

	p.dispatcher.Dispatch(ctx, updates)

	return nil
}

// Offset is the next update ID the poller will ask for.
func (p *Poller) Offset() int {
	return p.offset
}
