package telegrambot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/pinterest"
	"github.com/lueurxax/media-relay-bot/internal/platform/locale"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/youtube"
)

// Root menu callback data.
const (
	CallbackYouTube    = youtube.CallbackMenu
	CallbackTwitter    = "twitter"
	CallbackInstagram  = "instagram"
	CallbackPinterest  = pinterest.CallbackMenu
	CallbackSpotify    = "spotify"
	CallbackTidal      = "tidal"
	CallbackSoundCloud = "soundcloud"
	CallbackAppleMusic = "apple_music"
)

const cmdStart = "start"

// Update type labels.
const (
	updateMessage  = "message"
	updateCallback = "callback"
	updateOther    = "other"
)

// Messenger is the part of the chat transport the router talks to directly.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

type PinterestHandler interface {
	HandleCallback(ctx context.Context, chatID int64, data string)
	HandleMessage(ctx context.Context, chatID int64, text string)
}

type YouTubeHandler interface {
	Prompt(ctx context.Context, chatID int64)
	HandleMessage(ctx context.Context, chatID int64, text string)
	HandleCallback(ctx context.Context, chatID int64, data string)
}

type PendingReader interface {
	GetPending(chatID int64) (domain.PendingKind, bool)
}

// Router sends each update to the workflow that owns it.
type Router struct {
	messenger Messenger
	pinterest PinterestHandler
	youtube   YouTubeHandler
	sessions  PendingReader
	texts     *locale.Texts
	logger    *zerolog.Logger
}

// NewRouter builds a router. A nil youtube handler leaves that platform
// answered with "not supported yet".
func NewRouter(messenger Messenger, pin PinterestHandler, yt YouTubeHandler, sessions PendingReader, texts *locale.Texts, logger *zerolog.Logger) *Router {
	return &Router{
		messenger: messenger,
		pinterest: pin,
		youtube:   yt,
		sessions:  sessions,
		texts:     texts,
		logger:    logger,
	}
}

func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.Text != "":
		observability.UpdatesReceived.WithLabelValues(updateMessage).Inc()
		r.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		observability.UpdatesReceived.WithLabelValues(updateCallback).Inc()
		r.handleCallback(ctx, update.CallbackQuery)
	default:
		observability.UpdatesReceived.WithLabelValues(updateOther).Inc()
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := msg.Text

	pending, _ := r.sessions.GetPending(chatID)

	switch {
	case pending == domain.PendingPhotoLink || pending == domain.PendingVideoLink:
		r.pinterest.HandleMessage(ctx, chatID, text)
	case pending == domain.PendingYouTubeLink && r.youtube != nil:
		r.youtube.HandleMessage(ctx, chatID, text)
	case isStartCommand(msg):
		r.showRootMenu(ctx, chatID)
	default:
		r.reply(ctx, chatID, locale.InvalidCommand)
	}
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if err := r.messenger.AnswerCallback(ctx, query.ID); err != nil {
		r.logger.Warn().Err(err).Msg("failed to answer callback")
	}

	chatID := callbackChatID(query)
	data := query.Data

	r.logger.Debug().Int64(LogFieldChatID, chatID).Str("callback", data).Msg("handling callback")

	switch {
	case data == pinterest.CallbackMenu || strings.HasPrefix(data, pinterest.CallbackPrefix):
		r.pinterest.HandleCallback(ctx, chatID, data)
	case r.youtube != nil && data == youtube.CallbackMenu:
		r.youtube.Prompt(ctx, chatID)
	case r.youtube != nil && strings.HasPrefix(data, youtube.CallbackQualityPrefix):
		r.youtube.HandleCallback(ctx, chatID, data)
	default:
		r.reply(ctx, chatID, locale.NotSupported)
	}
}

func (r *Router) showRootMenu(ctx context.Context, chatID int64) {
	keyboard := domain.SingleColumn(
		domain.Button{Text: r.texts.Get(locale.ButtonYouTube), Data: CallbackYouTube},
		domain.Button{Text: r.texts.Get(locale.ButtonTwitter), Data: CallbackTwitter},
		domain.Button{Text: r.texts.Get(locale.ButtonInstagram), Data: CallbackInstagram},
		domain.Button{Text: r.texts.Get(locale.ButtonPinterest), Data: CallbackPinterest},
		domain.Button{Text: r.texts.Get(locale.ButtonSpotify), Data: CallbackSpotify},
		domain.Button{Text: r.texts.Get(locale.ButtonTidal), Data: CallbackTidal},
		domain.Button{Text: r.texts.Get(locale.ButtonSoundCloud), Data: CallbackSoundCloud},
		domain.Button{Text: r.texts.Get(locale.ButtonAppleMusic), Data: CallbackAppleMusic},
	)

	if err := r.messenger.SendMenu(ctx, chatID, r.texts.Get(locale.Welcome), keyboard); err != nil {
		r.logger.Error().Err(err).Int64(LogFieldChatID, chatID).Msg("failed to send root menu")
	}
}

func (r *Router) reply(ctx context.Context, chatID int64, key locale.Key) {
	if err := r.messenger.SendText(ctx, chatID, r.texts.Get(key)); err != nil {
		r.logger.Error().Err(err).Int64(LogFieldChatID, chatID).Msg("failed to send reply")
	}
}

func isStartCommand(msg *tgbotapi.Message) bool {
	if msg.IsCommand() {
		return msg.Command() == cmdStart
	}

	return strings.TrimSpace(msg.Text) == "/"+cmdStart
}

// callbackChatID falls back to the sender for callbacks on inline messages,
// which carry no message.
func callbackChatID(query *tgbotapi.CallbackQuery) int64 {
	if query.Message != nil && query.Message.Chat != nil {
		return query.Message.Chat.ID
	}

	if query.From != nil {
		return query.From.ID
	}

	return 0
}

// ChatID returns the chat an update belongs to, or 0 when it has none.
func ChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		return callbackChatID(update.CallbackQuery)
	default:
		return 0
	}
}
