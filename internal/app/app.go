// Package app wires the relay bot together and runs it.
//
// The App builds the shared web fetcher, the Pinterest orchestrator and the
// optional YouTube workflow, then polls Telegram until the context ends.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/download"
	"github.com/lueurxax/media-relay-bot/internal/core/links"
	"github.com/lueurxax/media-relay-bot/internal/core/scrape"
	"github.com/lueurxax/media-relay-bot/internal/core/session"
	"github.com/lueurxax/media-relay-bot/internal/pinterest"
	"github.com/lueurxax/media-relay-bot/internal/platform/config"
	"github.com/lueurxax/media-relay-bot/internal/platform/locale"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/platform/worker"
	"github.com/lueurxax/media-relay-bot/internal/telegrambot"
	"github.com/lueurxax/media-relay-bot/internal/youtube"
)

const (
	staleAssetSweepInterval = 15 * time.Minute
	staleAssetMaxAge        = time.Hour
)

// App holds the configuration shared by the run modes.
type App struct {
	cfg       *config.Config
	readiness *observability.Readiness
	logger    *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{
		cfg:       cfg,
		readiness: &observability.Readiness{},
		logger:    logger,
	}
}

// StartHealthServer serves /healthz, /readyz and /metrics until ctx ends.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.readiness, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunBot polls Telegram and relays media until ctx is canceled.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Str("language", a.cfg.BotLanguage).Bool("youtube", a.cfg.YouTubeEnabled).Msg("Starting relay bot")

	bot, err := telegrambot.New(a.cfg.BotToken, a.cfg.TelegramTimeout, a.logger)
	if err != nil {
		return fmt.Errorf("bot initialization failed: %w", err)
	}

	a.logger.Info().Str("username", bot.Username()).Msg("Authorized on Telegram")

	fetcher := links.NewWebFetcher(a.cfg.Fetch())
	downloader := download.NewDownloader(fetcher, a.cfg.Download(), a.logger)
	sessions := session.NewTracker()
	texts := locale.New(a.cfg.BotLanguage)

	pin := pinterest.New(pinterest.Deps{
		Sender:   bot,
		Resolver: links.NewResolver(fetcher, a.logger),
		Pages:    fetcher,
		Scraper:  scrape.NewPatternScraper(a.cfg.PinterestImageCDN, a.cfg.PinterestVideoCDN),
		Assets:   downloader,
		Sessions: sessions,
	}, texts, a.logger)

	var yt telegrambot.YouTubeHandler

	if a.cfg.YouTubeEnabled {
		yt = youtube.NewWorkflow(youtube.Deps{
			Sender:          bot,
			Source:          youtube.NewClientSource(fetcher.Client()),
			Assets:          downloader,
			Sessions:        sessions,
			ListTimeout:     a.cfg.WebFetchTimeout,
			DownloadTimeout: a.cfg.DownloadTimeout,
		}, texts, a.logger)
	}

	router := telegrambot.NewRouter(bot, pin, yt, sessions, texts, a.logger)

	dispatcher, err := telegrambot.NewDispatcher(a.cfg.DispatchWorkers, router, a.logger)
	if err != nil {
		return fmt.Errorf("dispatcher initialization failed: %w", err)
	}
	defer dispatcher.Close()

	poller := telegrambot.NewPoller(bot, dispatcher, a.cfg.Polling(), a.readiness, a.logger)
	poller.AddPeriodicTask(worker.Task{
		Name:     "sweep stale assets",
		Interval: staleAssetSweepInterval,
		Run: func(_ context.Context) {
			downloader.SweepStale(staleAssetMaxAge)
		},
	})

	if err := poller.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}
