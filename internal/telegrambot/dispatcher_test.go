package telegrambot

import (
	"context"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	perChat map[int64][]int
	panicOn int
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	if update.UpdateID == h.panicOn {
		panic("boom")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	chatID := ChatID(update)
	h.perChat[chatID] = append(h.perChat[chatID], update.UpdateID)
}

func chatUpdate(id int, chatID int64) tgbotapi.Update {
	update := textUpdate(chatID, "msg")
	update.UpdateID = id

	return update
}

func TestGroupByChat(t *testing.T) {
	updates := []tgbotapi.Update{chatUpdate(1, 10), chatUpdate(2, 20), chatUpdate(3, 10), chatUpdate(4, 30), chatUpdate(5, 20)}

	groups := groupByChat(updates)

	require.Len(t, groups, 3)

	ids := func(group []tgbotapi.Update) []int {
		out := make([]int, 0, len(group))
		for _, u := range group {
			out = append(out, u.UpdateID)
		}

		return out
	}

	assert.Equal(t, []int{1, 3}, ids(groups[0]))
	assert.Equal(t, []int{2, 5}, ids(groups[1]))
	assert.Equal(t, []int{4}, ids(groups[2]))
}

func TestDispatcherPreservesPerChatOrder(t *testing.T) {
	logger := zerolog.Nop()
	handler := &recordingHandler{perChat: make(map[int64][]int)}

	dispatcher, err := NewDispatcher(2, handler, &logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	var updates []tgbotapi.Update
	for i := 1; i <= 30; i++ {
		updates = append(updates, chatUpdate(i, int64(i%3)))
	}

	dispatcher.Dispatch(context.Background(), updates)

	require.Len(t, handler.perChat, 3)

	for chatID, got := range handler.perChat {
		require.Len(t, got, 10, "chat %d", chatID)

		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1], got[i], "chat %d out of order", chatID)
		}
	}
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	logger := zerolog.Nop()
	handler := &recordingHandler{perChat: make(map[int64][]int), panicOn: 2}

	dispatcher, err := NewDispatcher(1, handler, &logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Dispatch(context.Background(), []tgbotapi.Update{
		chatUpdate(1, 10), chatUpdate(2, 10), chatUpdate(3, 10),
	})

	assert.Equal(t, []int{1, 3}, handler.perChat[10])
}
