package session

import (
	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

// Tracker maps a chat to the link kind it is expected to send next.
// A new selection always supersedes the previous one.
type Tracker struct {
	store *Store[int64, domain.PendingKind]
}

func NewTracker() *Tracker {
	return &Tracker{store: NewStore[int64, domain.PendingKind]()}
}

func (t *Tracker) SetPending(chatID int64, kind domain.PendingKind) {
	t.store.Set(chatID, kind)
	observability.PendingSessions.Set(float64(t.store.Len()))
}

// GetPending has no side effects.
func (t *Tracker) GetPending(chatID int64) (domain.PendingKind, bool) {
	return t.store.Get(chatID)
}

func (t *Tracker) ClearPending(chatID int64) {
	t.store.Delete(chatID)
	observability.PendingSessions.Set(float64(t.store.Len()))
}

func (t *Tracker) Len() int {
	return t.store.Len()
}
