// Package event defines the canonical event record broadcast to subscribers.
// Events are immutable once constructed; producers build them through the
// constructors here and hand them to the hub for delivery.
package event

import (
	"fmt"
	"time"
)

// Event types on the wire.
const (
	TypeWelcome         = "welcome"
	TypeRequestHotkeys  = "request_hotkeys"
	TypeEvent           = "event"
	TypeTimeUpdate      = "time_update"
	TypeStatus          = "status"
	TypeInfo            = "info"
	TypeError           = "error"
	TypeCommandResponse = "command_response"
	TypeFileLoaded      = "file_loaded"
	TypeSrtFound        = "srt_found"
)

// Event is the single wire record sent to subscribers. Type discriminates
// which of the optional fields are populated.
type Event struct {
	Type      string  `json:"type"`
	Content   string  `json:"content,omitempty"`
	Timestamp float64 `json:"timestamp"`

	// time_update
	TimePos           *float64 `json:"time_pos,omitempty"`
	Duration          *float64 `json:"duration,omitempty"`
	Progress          *float64 `json:"progress,omitempty"`
	FormattedTime     string   `json:"formatted_time,omitempty"`
	FormattedDuration string   `json:"formatted_duration,omitempty"`

	// command_response
	Command  string `json:"command,omitempty"`
	Success  *bool  `json:"success,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`

	// file_loaded / srt_found
	AbsolutePath string  `json:"absolute_path,omitempty"`
	SrtPath      *string `json:"srt_path,omitempty"`

	// welcome / status
	PlayerActive      *bool    `json:"player_active,omitempty"`
	Filename          string   `json:"filename,omitempty"`
	CurrentFilePath   string   `json:"current_file_path,omitempty"`
	Paused            *bool    `json:"paused,omitempty"`
	AvailableCommands []string `json:"available_commands,omitempty"`
	ClipStart         *float64 `json:"clip_start,omitempty"`
	ClipEnd           *float64 `json:"clip_end,omitempty"`
	Extractions       *int     `json:"extractions,omitempty"`
}

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }

// New builds a bare event of the given type with human-readable content.
func New(eventType, content string) Event {
	return Event{Type: eventType, Content: content, Timestamp: now()}
}

// Lifecycle builds a lifecycle notification ("event" on the wire).
func Lifecycle(content string) Event {
	return New(TypeEvent, content)
}

// TimeUpdate builds a position report. Progress and duration fields are
// included only when the duration is known and positive; the engine can
// transiently report a zero duration, and dividing by it would produce a
// value JSON cannot encode. Progress is deliberately not clamped so a
// transient position > duration is visible to clients.
func TimeUpdate(pos float64, dur *float64) Event {
	ev := Event{
		Type:          TypeTimeUpdate,
		Timestamp:     now(),
		TimePos:       f64Ptr(pos),
		FormattedTime: FormatTime(pos),
	}
	if dur != nil && *dur > 0 {
		progress := pos / *dur * 100
		ev.Duration = f64Ptr(*dur)
		ev.Progress = f64Ptr(progress)
		ev.FormattedDuration = FormatTime(*dur)
		ev.Content = fmt.Sprintf("%s / %s (%.1f%%)", ev.FormattedTime, ev.FormattedDuration, progress)
	} else {
		ev.Content = ev.FormattedTime
	}
	return ev
}

// CommandOK builds a successful command acknowledgement.
func CommandOK(command, content, filePath string) Event {
	return Event{
		Type:      TypeCommandResponse,
		Content:   content,
		Timestamp: now(),
		Command:   command,
		Success:   boolPtr(true),
		FilePath:  filePath,
	}
}

// CommandFailed builds a failed command acknowledgement with a diagnostic.
func CommandFailed(command, reason string) Event {
	return Event{
		Type:      TypeCommandResponse,
		Content:   reason,
		Timestamp: now(),
		Command:   command,
		Success:   boolPtr(false),
		Error:     reason,
	}
}

// FileLoaded reports that full track metadata is available for a file.
func FileLoaded(filePath, absolutePath string) Event {
	ev := New(TypeFileLoaded, fmt.Sprintf("Loaded: %s", filePath))
	ev.FilePath = filePath
	ev.AbsolutePath = absolutePath
	return ev
}

// SrtFound reports the outcome of subtitle discovery. A nil path means no
// subtitle was found; the event is still emitted so clients can clear state.
func SrtFound(srtPath *string) Event {
	content := "No subtitle file found"
	if srtPath != nil {
		content = fmt.Sprintf("Subtitle found: %s", *srtPath)
	}
	ev := New(TypeSrtFound, content)
	ev.SrtPath = srtPath
	return ev
}
