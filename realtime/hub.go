package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"wellkit/core"
)

// Hub is a simple pub/sub for broadcasting reward events (level ups, claims)
// to connected channels. Subscriptions can be scoped to a single user so a
// client only receives changes to its own standing.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	ch   chan core.Event
	user core.UserID // empty means all users
}

func NewHub() *Hub { return &Hub{subs: map[int]subscription{}} }

// Subscribe registers for events of all users.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Event) {
	return h.SubscribeUser("", buffer)
}

// SubscribeUser registers for events belonging to one user. An empty user
// receives everything.
func (h *Hub) SubscribeUser(user core.UserID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := subscription{ch: make(chan core.Event, buffer), user: user}
	h.subs[id] = sub
	return id, sub.ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Broadcast delivers ev to every matching subscription. Sends happen under
// the read lock so Unsubscribe cannot close a channel mid-send; they are
// non-blocking, so the lock is never held on a full channel.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.user != "" && sub.user != ev.UserID {
			continue
		}
		select {
		case sub.ch <- ev:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
