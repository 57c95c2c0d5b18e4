package bridge

import (
	"testing"
	"time"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/session"
)

func TestRegisterHotkeys_InstallsBindings(t *testing.T) {
	rig := newTestRig(t)

	rig.bridge.Dispatch([]byte(`{"command": "register_hotkeys", "hotkeys": {"screenshot": "s", "audioClip": "a"}}`), rig.sub)

	responses := rig.sub.byType(event.TypeCommandResponse)
	if len(responses) != 1 || responses[0].Success == nil || !*responses[0].Success {
		t.Fatalf("responses = %+v, want one success", responses)
	}

	if got := rig.engine.binding("s"); got != "playbridge-screenshot" {
		t.Errorf("binding for s = %q", got)
	}
	if got := rig.engine.binding("a"); got != "playbridge-audioClip" {
		t.Errorf("binding for a = %q", got)
	}
	if !rig.session.HasHotkeys() {
		t.Error("session should record bindings")
	}
}

func TestRegisterHotkeys_LastWriterWins(t *testing.T) {
	rig := newTestRig(t)

	rig.bridge.Dispatch([]byte(`{"command": "register_hotkeys", "hotkeys": {"screenshot": "s", "audioClip": "a"}}`), rig.sub)
	rig.bridge.Dispatch([]byte(`{"command": "register_hotkeys", "hotkeys": {"screenshot": "F5"}}`), rig.sub)

	keys := rig.session.Hotkeys()
	if len(keys) != 1 {
		t.Fatalf("bindings = %v, want only the re-registered set", keys)
	}
	if keys[session.ActionScreenshot] != "F5" {
		t.Errorf("screenshot key = %q, want F5", keys[session.ActionScreenshot])
	}
}

func TestRegisterHotkeys_UnknownAction(t *testing.T) {
	rig := newTestRig(t)

	rig.bridge.Dispatch([]byte(`{"command": "register_hotkeys", "hotkeys": {"selfDestruct": "d"}}`), rig.sub)

	responses := rig.sub.byType(event.TypeCommandResponse)
	if len(responses) != 1 || responses[0].Success == nil || *responses[0].Success {
		t.Fatalf("responses = %+v, want one failure", responses)
	}
	if rig.session.HasHotkeys() {
		t.Error("failed registration must not install bindings")
	}
}

func TestTrigger_Screenshot(t *testing.T) {
	rig := newTestRig(t)
	rig.session.SetFile("movie.mp4", "/videos/movie.mp4")

	rig.bridge.handleNotification(engine.Notification{
		Kind: engine.NoteClientMessage,
		Args: []string{"playbridge-screenshot"},
	})

	responses := rig.sub.byType(event.TypeCommandResponse)
	if len(responses) != 1 || responses[0].Success == nil || !*responses[0].Success {
		t.Fatalf("responses = %+v, want one screenshot success", responses)
	}
}

func TestTrigger_DebouncesDuplicateDeliveries(t *testing.T) {
	rig := newTestRig(t)
	rig.session.SetFile("movie.mp4", "/videos/movie.mp4")
	rig.bridge.debounceWindow = 50 * time.Millisecond

	// The engine can deliver one physical key press more than once.
	trigger := engine.Notification{Kind: engine.NoteClientMessage, Args: []string{"playbridge-screenshot"}}
	rig.bridge.handleNotification(trigger)
	rig.bridge.handleNotification(trigger)
	rig.bridge.handleNotification(trigger)

	if n := len(rig.sub.byType(event.TypeCommandResponse)); n != 1 {
		t.Fatalf("responses = %d, want 1 (duplicates debounced)", n)
	}

	time.Sleep(60 * time.Millisecond)
	rig.bridge.handleNotification(trigger)

	if n := len(rig.sub.byType(event.TypeCommandResponse)); n != 2 {
		t.Errorf("responses = %d, want 2 after the window elapsed", n)
	}
}

func TestTrigger_ClipToggleAlternates(t *testing.T) {
	rig := newTestRig(t)
	rig.session.SetFile("movie.mp4", "/videos/movie.mp4")
	rig.engine.set(func(f *fakeEngine) { f.pos = 10 })
	rig.bridge.debounceWindow = time.Millisecond

	toggle := engine.Notification{Kind: engine.NoteClientMessage, Args: []string{"playbridge-audioClip"}}

	rig.bridge.handleNotification(toggle)
	if rig.session.ClipStart() == nil {
		t.Fatal("first toggle should mark the clip start")
	}

	time.Sleep(5 * time.Millisecond)
	rig.engine.set(func(f *fakeEngine) { f.pos = 16 })
	rig.bridge.handleNotification(toggle)

	waitFor(t, time.Second, func() bool { return rig.trans.callCount() == 1 })
	if rig.session.ClipStart() != nil {
		t.Error("second toggle should clear the start mark")
	}
}

func TestTrigger_IgnoresForeignMessages(t *testing.T) {
	rig := newTestRig(t)

	rig.bridge.handleNotification(engine.Notification{
		Kind: engine.NoteClientMessage,
		Args: []string{"osc-visibility"},
	})

	if n := len(rig.sub.all()); n != 0 {
		t.Errorf("events = %d, want 0 for foreign client messages", n)
	}
}
