package session

import "testing"

func TestUpdatePause_ReportsTransitionsOnly(t *testing.T) {
	s := New()

	if !s.UpdatePause(true) {
		t.Error("first observation should report a change")
	}
	if s.UpdatePause(true) {
		t.Error("repeated observation should not report a change")
	}
	if !s.UpdatePause(false) {
		t.Error("transition back should report a change")
	}
	if got := s.PauseState(); got == nil || *got != false {
		t.Errorf("PauseState() = %v, want false", got)
	}
}

func TestShutdownIsTerminal(t *testing.T) {
	s := New()
	if !s.Active() {
		t.Fatal("new session should be active")
	}
	s.Shutdown()
	if s.Active() {
		t.Error("session should stay inactive after shutdown")
	}
}

func TestSetFile_EmptyValuesDoNotClobber(t *testing.T) {
	s := New()
	s.SetFile("movie.mp4", "/videos/movie.mp4")
	s.SetFile("", "")

	filePath, abs := s.File()
	if filePath != "movie.mp4" || abs != "/videos/movie.mp4" {
		t.Errorf("File() = %q, %q", filePath, abs)
	}
}

func TestClipMarks(t *testing.T) {
	s := New()
	if s.ClipStart() != nil || s.ClipEnd() != nil {
		t.Fatal("new session should carry no marks")
	}

	s.SetClipStart(10)
	s.SetClipEnd(16)
	if got := s.ClipStart(); got == nil || *got != 10 {
		t.Errorf("ClipStart() = %v", got)
	}

	s.ClearClipStart()
	if s.ClipStart() != nil {
		t.Error("ClearClipStart should drop the mark")
	}
	// The end mark is retained for later reference.
	if got := s.ClipEnd(); got == nil || *got != 16 {
		t.Errorf("ClipEnd() = %v", got)
	}
}

func TestHotkeys_LastWriterWins(t *testing.T) {
	s := New()
	if s.HasHotkeys() {
		t.Fatal("new session should have no hotkeys")
	}

	s.SetHotkeys(map[string]string{ActionScreenshot: "s", ActionClipToggle: "a"})
	s.SetHotkeys(map[string]string{ActionScreenshot: "F5"})

	keys := s.Hotkeys()
	if len(keys) != 1 || keys[ActionScreenshot] != "F5" {
		t.Errorf("Hotkeys() = %v", keys)
	}

	// The returned map is a copy.
	keys[ActionScreenshot] = "mutated"
	if s.Hotkeys()[ActionScreenshot] != "F5" {
		t.Error("Hotkeys() must return a copy")
	}
}
