// Package telegrambot adapts the Telegram Bot API to the relay workflows:
// it sends messages, polls updates and routes them per chat.
package telegrambot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

// MaxMessageSize is the Telegram limit for one text message.
const MaxMessageSize = 4096

const defaultHTTPTimeout = 5 * time.Minute

// Send method labels for metrics and logs.
const (
	methodText     = "text"
	methodMenu     = "menu"
	methodPhoto    = "photo"
	methodDocument = "document"
	methodVideo    = "video"
	methodCallback = "callback"
)

const (
	LogFieldChatID = "chat_id"
	LogFieldMethod = "method"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

// New talks to the public Bot API. timeout bounds every HTTP call, uploads
// and long polls included, so it must exceed the long-poll timeout.
func New(token string, timeout time.Duration, logger *zerolog.Logger) (*Bot, error) {
	return NewWithClient(token, tgbotapi.APIEndpoint, newHTTPClient(timeout), logger)
}

// NewWithClient talks to apiEndpoint (a format string with token and method
// placeholders) through client. Used against test servers and API proxies.
func NewWithClient(token, apiEndpoint string, client *http.Client, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return &Bot{api: api, logger: logger}, nil
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	return b.send(ctx, chatID, methodText, tgbotapi.NewMessage(chatID, truncateRunes(text, MaxMessageSize)))
}

func (b *Bot) SendMenu(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, truncateRunes(text, MaxMessageSize))
	msg.ReplyMarkup = inlineKeyboard(keyboard)

	return b.send(ctx, chatID, methodMenu, msg)
}

// SendPhoto uploads the file at path as a compressed photo.
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, path, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption

	return b.send(ctx, chatID, methodPhoto, photo)
}

// SendDocument uploads the file at path as-is.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	return b.send(ctx, chatID, methodDocument, doc)
}

func (b *Bot) SendVideo(ctx context.Context, chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true

	return b.send(ctx, chatID, methodVideo, video)
}

// AnswerCallback acknowledges a callback query so the client stops its spinner.
func (b *Bot) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := withContext(ctx, func() (*tgbotapi.APIResponse, error) {
		return b.api.Request(tgbotapi.NewCallback(callbackID, ""))
	})
	if err != nil {
		observability.DeliveryFailures.WithLabelValues(methodCallback).Inc()

		return fmt.Errorf("%w: answer callback: %w", relayerrors.ErrDeliveryFailed, err)
	}

	return nil
}

// GetUpdates long-polls for updates starting at offset.
func (b *Bot) GetUpdates(ctx context.Context, offset, timeout int) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = timeout

	updates, err := withContext(ctx, func() ([]tgbotapi.Update, error) {
		return b.api.GetUpdates(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	return updates, nil
}

func (b *Bot) send(ctx context.Context, chatID int64, method string, msg tgbotapi.Chattable) error {
	_, err := withContext(ctx, func() (tgbotapi.Message, error) {
		return b.api.Send(msg)
	})
	if err != nil {
		observability.DeliveryFailures.WithLabelValues(method).Inc()
		b.logger.Error().Err(err).Int64(LogFieldChatID, chatID).Str(LogFieldMethod, method).Msg("telegram send failed")

		return fmt.Errorf("%w: %s: %w", relayerrors.ErrDeliveryFailed, method, err)
	}

	return nil
}

// withContext runs call, returning early when ctx ends. The client is not
// context aware, so an abandoned call finishes in the background, bounded
// by the HTTP client timeout.
func withContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)

	go func() {
		value, err := call()
		done <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-done:
		return res.value, res.err
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &http.Client{Timeout: timeout}
}

func inlineKeyboard(keyboard domain.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))

	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes])
}
