package bridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/session"
)

// hotkeyMessagePrefix namespaces engine trigger messages so unrelated
// script-messages are ignored.
const hotkeyMessagePrefix = "playbridge-"

// handleRegisterHotkeys installs engine key bindings for the supplied logical
// actions. The full binding set is replaced atomically: last writer wins, no
// merging across subscribers.
func (b *Bridge) handleRegisterHotkeys(bindings map[string]string) {
	if len(bindings) == 0 {
		b.hub.Publish(event.CommandFailed("register_hotkeys", "No hotkeys supplied"))
		return
	}

	for action, key := range bindings {
		if action != session.ActionScreenshot && action != session.ActionClipToggle {
			b.hub.Publish(event.CommandFailed("register_hotkeys", "Unknown hotkey action: "+action))
			return
		}
		if key == "" {
			b.hub.Publish(event.CommandFailed("register_hotkeys", "Empty key for action: "+action))
			return
		}
	}

	for action, key := range bindings {
		if err := b.engine.BindKey(key, hotkeyMessagePrefix+action); err != nil {
			b.hub.Publish(event.CommandFailed("register_hotkeys", fmt.Sprintf("Failed to bind %q: %v", key, err)))
			return
		}
		b.logger.Info("hotkey bound", "action", action, "key", key)
	}

	b.session.SetHotkeys(bindings)
	b.hub.Publish(event.CommandOK("register_hotkeys", fmt.Sprintf("Registered %d hotkeys", len(bindings)), ""))
}

// handleTrigger reacts to an engine-level hotkey press delivered as a client
// message. Engines can deliver a physical key press more than once; triggers
// are debounced per action so one press performs one action.
func (b *Bridge) handleTrigger(args []string) {
	if len(args) == 0 {
		return
	}
	msg := args[0]
	if !strings.HasPrefix(msg, hotkeyMessagePrefix) {
		return
	}
	action := strings.TrimPrefix(msg, hotkeyMessagePrefix)
	if !b.debounce(action) {
		b.logger.Debug("hotkey trigger debounced", "action", action)
		return
	}

	switch action {
	case session.ActionScreenshot:
		b.handleScreenshot()
	case session.ActionClipToggle:
		// Alternate start and end marks on successive presses.
		if b.pipeline.HasStartMark() {
			b.handleClipEnd()
		} else {
			b.handleClipStart()
		}
	default:
		b.logger.Warn("unknown hotkey trigger", "message", msg)
	}
}

func (b *Bridge) debounce(action string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if last, ok := b.lastFire[action]; ok && now.Sub(last) < b.debounceWindow {
		return false
	}
	b.lastFire[action] = now
	return true
}
