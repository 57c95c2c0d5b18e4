// Package bridge glues the engine to the subscriber hub: it normalizes engine
// notifications into broadcast events, dispatches subscriber commands, and
// holds the hotkey registry.
package bridge

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playbridge/playbridge/internal/clip"
	"github.com/playbridge/playbridge/internal/cliplog"
	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/hub"
	"github.com/playbridge/playbridge/internal/monitor"
	"github.com/playbridge/playbridge/internal/session"
)

const (
	shutdownStopTimeout = 2 * time.Second

	// requestHotkeysContent asks a subscriber for its hotkey configuration.
	requestHotkeysContent = "Send hotkey configuration"
)

var availableCommands = []string{
	"take_screenshot",
	"start_audio_clip",
	"end_audio_clip",
	"create_or_update_snippet",
	"register_hotkeys",
	"send_srt_file",
	"get_status",
}

// History records screenshots and answers extraction counts for status
// snapshots.
type History interface {
	RecordScreenshot(ctx context.Context, shot *cliplog.Screenshot) error
	CountExtractions(ctx context.Context) (int, error)
}

type Bridge struct {
	session        *session.State
	engine         engine.Engine
	hub            *hub.Hub
	monitor        *monitor.Monitor
	pipeline       *clip.Pipeline
	history        History
	screenshotsDir string
	logger         *slog.Logger

	// hotkeyRequestDelay is how long after connect the bridge re-requests
	// hotkeys from subscribers that have not supplied any.
	hotkeyRequestDelay time.Duration
	// debounceWindow suppresses duplicate hotkey trigger deliveries.
	debounceWindow time.Duration

	mu       sync.Mutex
	lastFire map[string]time.Time

	shutdownOnce sync.Once
}

func New(st *session.State, eng engine.Engine, h *hub.Hub, mon *monitor.Monitor, pipe *clip.Pipeline, hist History, screenshotsDir string, logger *slog.Logger) *Bridge {
	return &Bridge{
		session:            st,
		engine:             eng,
		hub:                h,
		monitor:            mon,
		pipeline:           pipe,
		history:            hist,
		screenshotsDir:     screenshotsDir,
		logger:             logger,
		hotkeyRequestDelay: 10 * time.Second,
		debounceWindow:     300 * time.Millisecond,
		lastFire:           make(map[string]time.Time),
	}
}

// OnConnect sends the welcome snapshot and hotkey request directly to the new
// subscriber, then schedules a broadcast re-request in case no subscriber
// supplies bindings.
func (b *Bridge) OnConnect(sub hub.Subscriber) {
	if err := sub.Send(b.welcome()); err != nil {
		return
	}
	_ = sub.Send(event.New(event.TypeRequestHotkeys, requestHotkeysContent))

	time.AfterFunc(b.hotkeyRequestDelay, func() {
		if !b.session.HasHotkeys() {
			b.hub.Publish(event.New(event.TypeRequestHotkeys, requestHotkeysContent))
		}
	})
}

// welcome synthesizes the current-state snapshot a new subscriber receives.
// It is not a replay of past events.
func (b *Bridge) welcome() event.Event {
	ev := event.New(event.TypeWelcome, "Connected to playbridge")

	active := b.session.Active()
	ev.PlayerActive = &active
	if active {
		ev.Filename = b.engine.Filename()
	}
	_, abs := b.session.File()
	ev.CurrentFilePath = abs
	ev.AvailableCommands = availableCommands
	return ev
}

// newID generates a random record identifier.
func newID() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return fmt.Sprintf("%x-%x-%x-%x-%x", buf[0:4], buf[4:6], buf[6:8], buf[8:10], buf[10:])
}
