// Package hub implements the broadcast channel and subscriber registry. Any
// goroutine may publish; delivery never blocks the producer, and a failing
// subscriber is removed without affecting delivery to the others.
package hub

import (
	"log/slog"
	"sync"

	"github.com/playbridge/playbridge/internal/event"
)

// Subscriber is one outbound connection. Send must not block indefinitely:
// implementations hand the event to a write pump and report failure when the
// connection is dead or its buffer is full.
type Subscriber interface {
	Send(ev event.Event) error
	Close() error
}

// Hub is a concurrency-safe subscriber set with snapshot broadcast.
type Hub struct {
	mu     sync.Mutex
	subs   map[Subscriber]struct{}
	logger *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[Subscriber]struct{}),
		logger: logger,
	}
}

// Add registers a subscriber. Safe while broadcasts are in flight.
func (h *Hub) Add(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("subscriber connected", "total", n)
}

// Remove unregisters a subscriber and closes it. A no-op for subscribers
// already gone.
func (h *Hub) Remove(s Subscriber) {
	h.mu.Lock()
	_, present := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	if present {
		s.Close()
		h.logger.Info("subscriber removed", "total", n)
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers ev to every current subscriber. Send failures remove the
// failing subscriber only. With no subscribers connected the event is logged
// locally and discarded; there is no backlog for late joiners.
func (h *Hub) Publish(ev event.Event) {
	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		h.logger.Info("event (no subscribers)", "type", ev.Type, "content", ev.Content)
		return
	}
	snapshot := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	for _, s := range snapshot {
		if err := s.Send(ev); err != nil {
			h.logger.Warn("dropping subscriber after send failure", "error", err)
			h.Remove(s)
		}
	}
}
