package telegrambot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/platform/worker"
)

// UpdateHandler processes a single update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Dispatcher runs a batch of updates on a bounded pool. Updates of one chat
// are handled in arrival order; different chats proceed concurrently.
type Dispatcher struct {
	pool    *ants.Pool
	handler UpdateHandler
	logger  *zerolog.Logger
}

func NewDispatcher(workers int, handler UpdateHandler, logger *zerolog.Logger) (*Dispatcher, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch pool: %w", err)
	}

	return &Dispatcher{
		pool:    pool,
		handler: handler,
		logger:  logger,
	}, nil
}

// Dispatch blocks until every update in the batch has been handled.
func (d *Dispatcher) Dispatch(ctx context.Context, updates []tgbotapi.Update) {
	var wg sync.WaitGroup

	for _, chatUpdates := range groupByChat(updates) {
		chatUpdates := chatUpdates

		wg.Add(1)

		err := d.pool.Submit(func() {
			defer wg.Done()

			d.handleChat(ctx, chatUpdates)
		})
		if err != nil {
			wg.Done()
			d.logger.Error().Err(err).Msg("failed to submit updates, handling inline")
			d.handleChat(ctx, chatUpdates)
		}
	}

	wg.Wait()
}

func (d *Dispatcher) handleChat(ctx context.Context, updates []tgbotapi.Update) {
	for _, update := range updates {
		d.handleOne(ctx, update)
	}
}

func (d *Dispatcher) handleOne(ctx context.Context, update tgbotapi.Update) {
	defer worker.RecoverPanic(d.logger, "handle update")

	d.handler.HandleUpdate(ctx, update)
}

// Close releases the pool.
func (d *Dispatcher) Close() {
	d.pool.Release()
}

// groupByChat keeps the first-seen chat order and the per-chat update order.
func groupByChat(updates []tgbotapi.Update) [][]tgbotapi.Update {
	index := make(map[int64]int)
	groups := make([][]tgbotapi.Update, 0, len(updates))

	for _, update := range updates {
		chatID := ChatID(update)

		i, ok := index[chatID]
		if !ok {
			i = len(groups)
			index[chatID] = i
			groups = append(groups, nil)
		}

		groups[i] = append(groups[i], update)
	}

	return groups
}
