// Package pinterest drives the per-chat Pinterest relay: menu, selection,
// link resolution, scraping, download and delivery.
package pinterest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/core/download"
	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/core/scrape"
	"github.com/lueurxax/media-relay-bot/internal/platform/locale"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

// Callback data understood by the orchestrator.
const (
	CallbackMenu   = "pinterest"
	CallbackPrefix = "pinterest_"
	CallbackPhoto  = "pinterest_photo"
	CallbackVideo  = "pinterest_video"
)

const (
	logFieldChatID = "chat_id"
	logFieldURL    = "url"
	logFieldKind   = "kind"
)

// Sender delivers messages to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, path, caption string) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

type LinkResolver interface {
	IsShortLink(text string) bool
	ResolveShortLink(ctx context.Context, shortURL string) (string, error)
	ExtractValidLink(text string) (string, bool)
}

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type Scraper interface {
	ExtractImageURL(html string) (string, bool)
	ExtractVideoURL(html string) (string, bool)
	ExtractPageMeta(html, pageURL string) scrape.PageMeta
}

type AssetStore interface {
	FetchAndStore(ctx context.Context, assetURL string, kind domain.MediaKind) (*download.Asset, error)
}

type PendingTracker interface {
	SetPending(chatID int64, kind domain.PendingKind)
	GetPending(chatID int64) (domain.PendingKind, bool)
	ClearPending(chatID int64)
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Sender   Sender
	Resolver LinkResolver
	Pages    PageFetcher
	Scraper  Scraper
	Assets   AssetStore
	Sessions PendingTracker
}

type Orchestrator struct {
	sender   Sender
	resolver LinkResolver
	pages    PageFetcher
	scraper  Scraper
	assets   AssetStore
	sessions PendingTracker
	texts    *locale.Texts
	logger   *zerolog.Logger
}

func New(deps Deps, texts *locale.Texts, logger *zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sender:   deps.Sender,
		resolver: deps.Resolver,
		pages:    deps.Pages,
		scraper:  deps.Scraper,
		assets:   deps.Assets,
		sessions: deps.Sessions,
		texts:    texts,
		logger:   logger,
	}
}

// ShowMenu sends the photo/video submenu.
func (o *Orchestrator) ShowMenu(ctx context.Context, chatID int64) {
	keyboard := domain.SingleColumn(
		domain.Button{Text: o.texts.Get(locale.ButtonPhoto), Data: CallbackPhoto},
		domain.Button{Text: o.texts.Get(locale.ButtonVideo), Data: CallbackVideo},
	)

	if err := o.sender.SendMenu(ctx, chatID, o.texts.Get(locale.ChooseOption), keyboard); err != nil {
		o.logger.Error().Err(err).Int64(logFieldChatID, chatID).Msg("failed to send pinterest menu")
	}
}

// HandleCallback handles the submenu entry and the photo/video selections.
func (o *Orchestrator) HandleCallback(ctx context.Context, chatID int64, data string) {
	switch data {
	case CallbackMenu:
		o.ShowMenu(ctx, chatID)
	case CallbackPhoto:
		o.selectKind(ctx, chatID, domain.PendingPhotoLink, locale.PromptPhotoLink)
	case CallbackVideo:
		o.selectKind(ctx, chatID, domain.PendingVideoLink, locale.PromptVideoLink)
	default:
		o.logger.Warn().Int64(logFieldChatID, chatID).Str("callback", data).Msg("unknown pinterest callback")
		o.reply(ctx, chatID, locale.InvalidOption)
	}
}

func (o *Orchestrator) selectKind(ctx context.Context, chatID int64, kind domain.PendingKind, prompt locale.Key) {
	o.reply(ctx, chatID, prompt)
	o.sessions.SetPending(chatID, kind)

	o.logger.Info().Int64(logFieldChatID, chatID).Stringer(logFieldKind, kind).Msg("pinterest selection recorded")
}

// HandleMessage processes a link sent by a chat. Chats without a pending
// Pinterest selection are told to pick one first and nothing else happens.
// Otherwise the pending selection is consumed whatever the outcome.
func (o *Orchestrator) HandleMessage(ctx context.Context, chatID int64, text string) {
	pending, ok := o.sessions.GetPending(chatID)

	kind, isPinterest := pending.MediaKind()
	if !ok || !isPinterest {
		o.logger.Info().Int64(logFieldChatID, chatID).Msg("no pinterest selection for chat")
		o.count(domain.MediaKind(""), observability.StatusNoSelection)
		o.reply(ctx, chatID, locale.SelectOptionFirst)

		return
	}

	defer o.sessions.ClearPending(chatID)

	link := text

	if o.resolver.IsShortLink(text) {
		resolved, err := o.resolver.ResolveShortLink(ctx, text)
		if err != nil {
			o.logger.Warn().Err(err).Int64(logFieldChatID, chatID).Str(logFieldURL, text).Msg("short link resolution failed")
			o.count(kind, observability.StatusResolveFailed)
			o.reply(ctx, chatID, locale.ShortLinkFailed)

			return
		}

		link = resolved
	}

	postURL, ok := o.resolver.ExtractValidLink(link)
	if !ok {
		o.logger.Info().Int64(logFieldChatID, chatID).Str(logFieldURL, link).Msg("no valid pinterest link in message")
		o.count(kind, observability.StatusInvalidLink)
		o.reply(ctx, chatID, locale.InvalidLink)

		return
	}

	var err error

	switch kind {
	case domain.MediaPhoto:
		err = o.relayPhoto(ctx, chatID, postURL)
	case domain.MediaVideo:
		err = o.relayVideo(ctx, chatID, postURL)
	}

	if err != nil {
		o.logger.Error().Err(err).
			Int64(logFieldChatID, chatID).
			Str(logFieldURL, postURL).
			Str(logFieldKind, string(kind)).
			Msg("pinterest relay failed")
		o.count(kind, observability.StatusPipelineFailed)
		o.reply(ctx, chatID, failureText(kind, err))

		return
	}

	o.count(kind, observability.StatusSuccess)
}

func (o *Orchestrator) relayPhoto(ctx context.Context, chatID int64, postURL string) error {
	page, err := o.pages.Fetch(ctx, postURL)
	if err != nil {
		return fmt.Errorf("fetch post page: %w", err)
	}

	html := string(page)

	imageURL, ok := o.scraper.ExtractImageURL(html)
	if !ok {
		return fmt.Errorf("image: %w", relayerrors.ErrAssetNotFound)
	}

	asset, err := o.assets.FetchAndStore(ctx, imageURL, domain.MediaPhoto)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer o.removeAsset(asset)

	meta := o.scraper.ExtractPageMeta(html, postURL)

	if err := o.sender.SendPhoto(ctx, chatID, asset.Path, meta.Caption(o.texts.Get(locale.PhotoCaption))); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	if err := o.sender.SendDocument(ctx, chatID, asset.Path, o.texts.Get(locale.PhotoDocCaption)); err != nil {
		return fmt.Errorf("send photo document: %w", err)
	}

	return nil
}

func (o *Orchestrator) relayVideo(ctx context.Context, chatID int64, postURL string) error {
	page, err := o.pages.Fetch(ctx, postURL)
	if err != nil {
		return fmt.Errorf("fetch post page: %w", err)
	}

	html := string(page)

	videoURL, ok := o.scraper.ExtractVideoURL(html)
	if !ok {
		return fmt.Errorf("video: %w", relayerrors.ErrAssetNotFound)
	}

	asset, err := o.assets.FetchAndStore(ctx, videoURL, domain.MediaVideo)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	defer o.removeAsset(asset)

	meta := o.scraper.ExtractPageMeta(html, postURL)

	if err := o.sender.SendDocument(ctx, chatID, asset.Path, meta.Caption(o.texts.Get(locale.VideoCaption))); err != nil {
		return fmt.Errorf("send video document: %w", err)
	}

	return nil
}

func (o *Orchestrator) removeAsset(asset *download.Asset) {
	if err := asset.Remove(); err != nil {
		o.logger.Warn().Err(err).Str("path", asset.Path).Msg("failed to remove temporary asset")
	}
}

func (o *Orchestrator) reply(ctx context.Context, chatID int64, key locale.Key) {
	if err := o.sender.SendText(ctx, chatID, o.texts.Get(key)); err != nil {
		o.logger.Error().Err(err).Int64(logFieldChatID, chatID).Str("text_key", string(key)).Msg("failed to send reply")
	}
}

func (o *Orchestrator) count(kind domain.MediaKind, status string) {
	observability.RelayRequests.WithLabelValues(domain.PlatformPinterest, string(kind), status).Inc()
}

func failureText(kind domain.MediaKind, err error) locale.Key {
	if kind == domain.MediaVideo {
		if relayerrors.Is(err, relayerrors.ErrAssetNotFound) {
			return locale.VideoNotFound
		}

		return locale.VideoFailed
	}

	return locale.PhotoFailed
}
