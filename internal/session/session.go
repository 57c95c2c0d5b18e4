// Package session holds the single mutable record of playback state owned by
// the bridge. All mutation happens through methods holding the state lock;
// no field is exported.
package session

import (
	"sync"

	"github.com/playbridge/playbridge/internal/subtitle"
)

// Hotkey actions a subscriber can bind.
const (
	ActionScreenshot = "screenshot"
	ActionClipToggle = "audioClip"
)

// State is the process-lifetime session record. The zero value is not usable;
// construct with New.
type State struct {
	mu sync.Mutex

	active             bool
	currentFilePath    string
	resolvedAbsPath    string
	pauseState         *bool
	clipStart          *float64
	clipEnd            *float64
	subtitleDescriptor *subtitle.Descriptor
	hotkeyBindings     map[string]string
}

func New() *State {
	return &State{
		active:         true,
		hotkeyBindings: make(map[string]string),
	}
}

// Active reports whether the engine is still alive. Once false it never
// becomes true again.
func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Shutdown marks the session inactive. Terminal.
func (s *State) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// SetFile records the paths observed at file load. Either may be empty when
// resolution failed; an empty value never overwrites a previous one.
func (s *State) SetFile(filePath, absolutePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filePath != "" {
		s.currentFilePath = filePath
	}
	if absolutePath != "" {
		s.resolvedAbsPath = absolutePath
	}
}

// File returns the last observed file path and its resolved absolute path.
// Both are retained after playback ends so clip and screenshot operations can
// still reference the last-loaded file.
func (s *State) File() (filePath, absolutePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFilePath, s.resolvedAbsPath
}

// UpdatePause records a pause-state observation and reports whether the value
// changed. The stored value is always updated; the changed flag drives event
// suppression for repeated observer firings.
func (s *State) UpdatePause(paused bool) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseState != nil && *s.pauseState == paused {
		return false
	}
	v := paused
	s.pauseState = &v
	return true
}

// PauseState returns the last observed pause value, or nil if none was seen.
func (s *State) PauseState() *bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseState == nil {
		return nil
	}
	v := *s.pauseState
	return &v
}

// SetClipStart records the start marker.
func (s *State) SetClipStart(pos float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pos
	s.clipStart = &v
}

// ClearClipStart drops the start marker once an extraction has launched.
func (s *State) ClearClipStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipStart = nil
}

func (s *State) ClipStart() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clipStart == nil {
		return nil
	}
	v := *s.clipStart
	return &v
}

// SetClipEnd records the end marker. It is retained after extraction so later
// derived-snippet requests can reference it.
func (s *State) SetClipEnd(pos float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pos
	s.clipEnd = &v
}

func (s *State) ClipEnd() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clipEnd == nil {
		return nil
	}
	v := *s.clipEnd
	return &v
}

// SetSubtitle caches the subtitle discovery result for the current file.
func (s *State) SetSubtitle(desc *subtitle.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtitleDescriptor = desc
}

func (s *State) Subtitle() *subtitle.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtitleDescriptor
}

// SetHotkeys replaces the current bindings. Last writer wins; no merging
// across subscribers.
func (s *State) SetHotkeys(bindings map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotkeyBindings = make(map[string]string, len(bindings))
	for action, key := range bindings {
		s.hotkeyBindings[action] = key
	}
}

// Hotkeys returns a copy of the current bindings.
func (s *State) Hotkeys() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.hotkeyBindings))
	for action, key := range s.hotkeyBindings {
		out[action] = key
	}
	return out
}

// HasHotkeys reports whether any subscriber has supplied bindings yet.
func (s *State) HasHotkeys() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hotkeyBindings) > 0
}
