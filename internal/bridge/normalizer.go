package bridge

import (
	"path/filepath"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/subtitle"
)

// Run consumes the engine notification stream until it closes. Call on its
// own goroutine; the loop ends when the engine shuts down.
func (b *Bridge) Run() {
	for n := range b.engine.Notifications() {
		b.handleNotification(n)
	}
	// Stream closed without a shutdown notification means the engine
	// connection was lost. Same terminal handling either way.
	b.shutdown("Player connection lost")
}

func (b *Bridge) handleNotification(n engine.Notification) {
	switch n.Kind {
	case engine.NoteStartFile:
		name := b.engine.Filename()
		b.resolveFile()
		b.hub.Publish(event.Lifecycle("Started playing: " + name))

	case engine.NoteFileLoaded:
		filePath, abs := b.resolveFile()
		tracks, err := b.engine.SubtitleTracks()
		if err != nil {
			b.logger.Warn("subtitle track query failed", "error", err)
		}
		desc := subtitle.Discover(abs, tracks)
		b.session.SetSubtitle(desc)

		b.hub.Publish(event.FileLoaded(filePath, abs))
		b.hub.Publish(event.SrtFound(subtitlePath(desc)))

	case engine.NoteEndFile:
		reason := n.Reason
		if reason == "" {
			reason = "unknown"
		}
		b.hub.Publish(event.Lifecycle("Playback ended: " + reason))

	case engine.NoteSeek:
		pos, err := b.engine.Position()
		if err != nil {
			return
		}
		b.hub.Publish(event.Lifecycle("Seeked to " + event.FormatTime(pos)))
		if dur, derr := b.engine.Duration(); derr == nil {
			b.hub.Publish(event.TimeUpdate(pos, &dur))
		} else {
			b.hub.Publish(event.TimeUpdate(pos, nil))
		}

	case engine.NotePause:
		if !b.session.UpdatePause(n.Paused) {
			return
		}
		if n.Paused {
			b.hub.Publish(event.Lifecycle("Paused"))
		} else {
			b.hub.Publish(event.Lifecycle("Resuming"))
		}

	case engine.NoteShutdown:
		b.shutdown("Player window closed")

	case engine.NoteClientMessage:
		b.handleTrigger(n.Args)
	}
}

// resolveFile reads the engine's file path, resolves it against the engine
// working directory when relative, and records both in the session. Resolution
// failure is non-fatal; the previously recorded paths are kept.
func (b *Bridge) resolveFile() (filePath, absolutePath string) {
	path, err := b.engine.Path()
	if err != nil || path == "" {
		return b.session.File()
	}

	abs := path
	if !filepath.IsAbs(path) {
		if wd, werr := b.engine.WorkingDir(); werr == nil && wd != "" {
			abs = filepath.Join(wd, path)
		}
	}
	b.session.SetFile(path, abs)
	return path, abs
}

// shutdown marks the session inactive, stops the monitor, and broadcasts the
// terminal lifecycle event. Idempotent.
func (b *Bridge) shutdown(content string) {
	b.shutdownOnce.Do(func() {
		b.session.Shutdown()
		b.monitor.Stop(shutdownStopTimeout)
		b.hub.Publish(event.Lifecycle(content))
		b.logger.Info("engine shut down")
	})
}

func subtitlePath(desc *subtitle.Descriptor) *string {
	if desc == nil {
		return nil
	}
	return &desc.Path
}
