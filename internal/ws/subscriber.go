// Package ws carries the subscriber protocol over WebSocket: one read loop
// feeding the dispatcher and one write pump draining a buffered event channel
// per connection.
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playbridge/playbridge/internal/event"
)

const (
	// writeWait bounds a single frame write to a slow subscriber.
	writeWait = 10 * time.Second

	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// sendBuffer is the per-subscriber event backlog. A subscriber that
	// falls this far behind is dropped rather than blocking the producer.
	sendBuffer = 64
)

var errSubscriberGone = errors.New("ws: subscriber closed or too slow")

// Subscriber adapts one WebSocket connection to the hub's Subscriber
// interface. Send never blocks the caller; frames are written by the pump
// goroutine.
type Subscriber struct {
	conn *websocket.Conn
	out  chan event.Event

	closeOnce sync.Once
	done      chan struct{}
}

func newSubscriber(conn *websocket.Conn) *Subscriber {
	return &Subscriber{
		conn: conn,
		out:  make(chan event.Event, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues the event for delivery. A full buffer or a closed subscriber
// yields an error so the hub removes exactly this subscriber.
func (s *Subscriber) Send(ev event.Event) error {
	select {
	case <-s.done:
		return errSubscriberGone
	default:
	}

	select {
	case s.out <- ev:
		return nil
	default:
		return errSubscriberGone
	}
}

// Close tears the connection down. Idempotent; safe from any goroutine.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
	return nil
}

// writePump drains the outbound buffer onto the wire and keeps the connection
// alive with pings. Runs on its own goroutine; exits when the subscriber
// closes.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
