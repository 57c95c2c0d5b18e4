// Package monitor implements the polling loop that samples playback position
// at a fixed interval, independent of the engine's own event cadence.
package monitor

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/hub"
)

// statusEvery throttles idle status events so an idle player does not flood
// subscribers with identical noise.
const statusEvery = 5 * time.Second

type Monitor struct {
	engine   engine.Engine
	hub      *hub.Hub
	interval time.Duration
	logger   *slog.Logger

	// mu guards the lifecycle fields below. Start and Stop may be called
	// from different goroutines (the signal path and the engine-shutdown
	// path both stop the monitor).
	mu      sync.Mutex
	running bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}

	lastStatus time.Time
}

func New(eng engine.Engine, h *hub.Hub, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		engine:   eng,
		hub:      h,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the loop. Starting while already running is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopped = false
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	m.logger.Info("time monitoring started", "interval_ms", m.interval.Milliseconds())

	go m.run(stop, done)
}

// Stop signals the loop and waits, bounded by timeout, for it to observe the
// flag and exit. Stopping a stopped monitor is a no-op; concurrent Stop calls
// are safe.
func (m *Monitor) Stop(timeout time.Duration) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	if !m.stopped {
		m.stopped = true
		close(m.stop)
	}
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("monitor did not stop within timeout")
	}
}

// IsRunning reports whether the loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(stop, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		close(done)
		m.logger.Info("time monitoring stopped")
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if fatal := m.tick(); fatal {
				return
			}
		}
	}
}

// tick samples the engine once. It returns true when the loop must terminate:
// a wedged engine gets one error event and a fail-stop, never a hot retry
// loop.
func (m *Monitor) tick() (fatal bool) {
	if m.engine.IsPaused() {
		return false
	}

	pos, err := m.engine.Position()
	if err == nil {
		m.emitTimeUpdate(pos)
		return false
	}
	if errors.Is(err, engine.ErrUnavailable) {
		m.emitIdleStatus()
		return false
	}

	m.hub.Publish(event.New(event.TypeError, "Monitor error: "+err.Error()))
	m.logger.Error("engine query failed, stopping monitor", "error", err)
	return true
}

func (m *Monitor) emitTimeUpdate(pos float64) {
	dur, err := m.engine.Duration()
	if err != nil {
		m.hub.Publish(event.TimeUpdate(pos, nil))
		return
	}
	m.hub.Publish(event.TimeUpdate(pos, &dur))
}

func (m *Monitor) emitIdleStatus() {
	if time.Since(m.lastStatus) < statusEvery {
		return
	}
	m.lastStatus = time.Now()

	content := "No time position available"
	if idle, err := m.engine.Idle(); err == nil && idle {
		content = "Player idle (no media loaded)"
	}
	m.hub.Publish(event.New(event.TypeStatus, content))
}
