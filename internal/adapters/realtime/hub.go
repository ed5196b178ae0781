package realtime

import (
	"context"
	"log/slog"
	"sync"
)

type subscriber struct {
	ch chan ChangeEvent
}

// Hub is the in-process Notifier used when no Redis address is configured.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// Compile-time check that Hub implements Notifier.
var _ Notifier = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers ev to every current subscriber of userID.
// PRE: userID is non-empty
// POST: each subscriber received ev or it was dropped because its buffer was full
func (h *Hub) Publish(_ context.Context, userID string, ev ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("realtime_event_dropped", "user_id", userID, "kind", ev.Kind)
		}
	}
	return nil
}

// Subscribe registers a subscriber for userID.
// PRE: userID is non-empty
// POST: events published for userID arrive on the channel until unsubscribe or ctx is done
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan ChangeEvent, func(), error) {
	sub := &subscriber{ch: make(chan ChangeEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			// Publish holds the read lock while sending, so closing under the write lock is safe.
			close(sub.ch)
			h.mu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)

	return sub.ch, func() {
		stop()
		unsubscribe()
	}, nil
}

// SubscriberCount returns the number of live subscriptions for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
