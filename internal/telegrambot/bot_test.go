package telegrambot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
)

const (
	testToken   = "123:test"
	okMessage   = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`
	okGetMe     = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Relay","username":"relay_bot"}}`
	okTrue      = `{"ok":true,"result":true}`
	errNotFound = `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
)

type apiCall struct {
	method string
	fields map[string]string
	files  []string
}

// fakeTelegram is a minimal Bot API server recording each call.
type fakeTelegram struct {
	mu      sync.Mutex
	calls   []apiCall
	updates string
	failOn  string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	call := apiCall{method: method, fields: make(map[string]string)}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for name := range r.MultipartForm.File {
				call.files = append(call.files, name)
			}
		}
	} else {
		_ = r.ParseForm()
	}

	for key := range r.Form {
		call.fields[key] = r.Form.Get(key)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case method == f.failOn:
		_, _ = w.Write([]byte(errNotFound))
	case method == "getMe":
		_, _ = w.Write([]byte(okGetMe))
	case method == "answerCallbackQuery":
		_, _ = w.Write([]byte(okTrue))
	case method == "getUpdates":
		_, _ = w.Write([]byte(f.updates))
	default:
		_, _ = w.Write([]byte(okMessage))
	}
}

func (f *fakeTelegram) last() apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[len(f.calls)-1]
}

func newTestBot(t *testing.T, api *fakeTelegram) *Bot {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()

	bot, err := NewWithClient(testToken, server.URL+"/bot%s/%s", server.Client(), &logger)
	require.NoError(t, err)

	return bot
}

func TestBotUsername(t *testing.T) {
	bot := newTestBot(t, &fakeTelegram{})

	assert.Equal(t, "relay_bot", bot.Username())
}

func TestBotSendText(t *testing.T) {
	api := &fakeTelegram{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.SendText(context.Background(), 42, "hello"))

	call := api.last()
	assert.Equal(t, "sendMessage", call.method)
	assert.Equal(t, "42", call.fields["chat_id"])
	assert.Equal(t, "hello", call.fields["text"])
}

func TestBotSendTextTruncates(t *testing.T) {
	api := &fakeTelegram{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.SendText(context.Background(), 42, strings.Repeat("ж", MaxMessageSize+10)))

	assert.Equal(t, MaxMessageSize, len([]rune(api.last().fields["text"])))
}

func TestBotSendMenu(t *testing.T) {
	api := &fakeTelegram{}
	bot := newTestBot(t, api)

	keyboard := domain.SingleColumn(
		domain.Button{Text: "Photo", Data: "pinterest_photo"},
		domain.Button{Text: "Video", Data: "pinterest_video"},
	)

	require.NoError(t, bot.SendMenu(context.Background(), 42, "choose", keyboard))

	markup := api.last().fields["reply_markup"]
	assert.Contains(t, markup, `"callback_data":"pinterest_photo"`)
	assert.Contains(t, markup, `"callback_data":"pinterest_video"`)
}

func TestBotUploads(t *testing.T) {
	file := filepath.Join(t.TempDir(), "photo_test.jpg")
	require.NoError(t, os.WriteFile(file, []byte("jpeg"), 0o600))

	tests := []struct {
		name      string
		send      func(b *Bot) error
		method    string
		fileField string
	}{
		{
			name:      "photo",
			send:      func(b *Bot) error { return b.SendPhoto(context.Background(), 42, file, "cap") },
			method:    "sendPhoto",
			fileField: "photo",
		},
		{
			name:      "document",
			send:      func(b *Bot) error { return b.SendDocument(context.Background(), 42, file, "cap") },
			method:    "sendDocument",
			fileField: "document",
		},
		{
			name:      "video",
			send:      func(b *Bot) error { return b.SendVideo(context.Background(), 42, file, "cap") },
			method:    "sendVideo",
			fileField: "video",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeTelegram{}
			bot := newTestBot(t, api)

			require.NoError(t, tt.send(bot))

			call := api.last()
			assert.Equal(t, tt.method, call.method)
			assert.Equal(t, "cap", call.fields["caption"])
			assert.Contains(t, call.files, tt.fileField)
		})
	}
}

func TestBotSendFailureIsDeliveryError(t *testing.T) {
	api := &fakeTelegram{failOn: "sendMessage"}
	bot := newTestBot(t, api)

	err := bot.SendText(context.Background(), 42, "hello")
	require.ErrorIs(t, err, relayerrors.ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestBotAnswerCallback(t *testing.T) {
	api := &fakeTelegram{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.AnswerCallback(context.Background(), "cb-1"))

	call := api.last()
	assert.Equal(t, "answerCallbackQuery", call.method)
	assert.Equal(t, "cb-1", call.fields["callback_query_id"])
}

func TestBotGetUpdates(t *testing.T) {
	api := &fakeTelegram{updates: fmt.Sprintf(
		`{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":%d,"type":"private"},"text":"hi"}}]}`,
		testChatID,
	)}
	bot := newTestBot(t, api)

	updates, err := bot.GetUpdates(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 7, updates[0].UpdateID)
	assert.Equal(t, "hi", updates[0].Message.Text)
	assert.Equal(t, testChatID, ChatID(updates[0]))

	call := api.last()
	assert.Equal(t, "5", call.fields["offset"])
	assert.Equal(t, "1", call.fields["timeout"])
}

func TestBotGetUpdatesHonorsCancel(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == "getMe" {
			_, _ = w.Write([]byte(okGetMe))

			return
		}

		<-block
	}))
	defer server.Close()
	defer close(block)

	logger := zerolog.Nop()
	bot, err := NewWithClient(testToken, server.URL+"/bot%s/%s", server.Client(), &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = bot.GetUpdates(ctx, 0, 30)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPClientTimeout(t *testing.T) {
	assert.Equal(t, 90*time.Second, newHTTPClient(90*time.Second).Timeout)
	assert.Equal(t, defaultHTTPTimeout, newHTTPClient(0).Timeout)
}

func TestBotSendHonorsCanceledContext(t *testing.T) {
	api := &fakeTelegram{}
	bot := newTestBot(t, api)

	api.mu.Lock()
	callsBefore := len(api.calls)
	api.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bot.SendText(ctx, 42, "hello")
	require.ErrorIs(t, err, relayerrors.ErrDeliveryFailed)
	require.ErrorIs(t, err, context.Canceled)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.calls, callsBefore)
}

func TestBotStalledUploadIsBounded(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == "getMe" {
			_, _ = w.Write([]byte(okGetMe))

			return
		}

		<-block
	}))
	defer server.Close()
	defer close(block)

	file := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(file, []byte("mp4"), 0o600))

	logger := zerolog.Nop()
	bot, err := NewWithClient(testToken, server.URL+"/bot%s/%s", newHTTPClient(50*time.Millisecond), &logger)
	require.NoError(t, err)

	start := time.Now()
	err = bot.SendVideo(context.Background(), 42, file, "cap")

	require.ErrorIs(t, err, relayerrors.ErrDeliveryFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}
