// Package engine defines the playback-engine collaborator interface consumed
// by the bridge. The engine delivers state changes out-of-band on its own
// goroutine; queries must degrade to safe defaults once the engine is gone
// rather than fault.
package engine

import (
	"errors"

	"github.com/playbridge/playbridge/internal/subtitle"
)

// ErrUnavailable is returned by queries when the engine has no value to
// report (no file loaded, engine not ready, engine shut down). Callers treat
// it as an expected condition, not a fault.
var ErrUnavailable = errors.New("engine: value unavailable")

// NotificationKind discriminates engine callbacks.
type NotificationKind int

const (
	NoteStartFile NotificationKind = iota
	NoteFileLoaded
	NoteEndFile
	NoteSeek
	NotePause
	NoteShutdown
	NoteClientMessage
)

// Notification is one engine callback, normalized off the engine's wire
// format but not yet translated into a broadcast event.
type Notification struct {
	Kind   NotificationKind
	Reason string   // end-file reason
	Paused bool     // NotePause payload
	Args   []string // client-message payload (hotkey triggers)
}

// Engine is the capability set the bridge consumes. Implementations must be
// safe for concurrent use; queries may be issued from the monitor loop and
// command handlers simultaneously.
type Engine interface {
	// Position returns the current playback position in seconds.
	Position() (float64, error)

	// Duration returns the duration of the loaded file in seconds.
	Duration() (float64, error)

	// Filename returns the display name of the loaded file, or "" when
	// unknown.
	Filename() string

	// Path returns the file path as reported by the engine; it may be
	// relative to WorkingDir.
	Path() (string, error)

	// WorkingDir returns the engine's working directory, used to resolve
	// relative paths.
	WorkingDir() (string, error)

	// IsPaused reports pause state; unknown state reads as paused so the
	// monitor loop stays quiet rather than emitting garbage.
	IsPaused() bool

	// Idle reports whether the engine is idle with no media loaded.
	Idle() (bool, error)

	// CaptureFrame writes the current frame to path. The file may appear
	// slightly after the call returns.
	CaptureFrame(path string) error

	// BindKey maps an input key to a trigger message delivered back via a
	// NoteClientMessage notification.
	BindKey(key, message string) error

	// SubtitleTracks enumerates subtitle tracks of the loaded file.
	SubtitleTracks() ([]subtitle.Track, error)

	// Notifications is the engine's callback stream. Closed when the
	// engine shuts down.
	Notifications() <-chan Notification

	Close() error
}
