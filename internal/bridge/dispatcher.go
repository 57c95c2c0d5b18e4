package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playbridge/playbridge/internal/cliplog"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/hub"
)

const (
	screenshotWait      = 2 * time.Second
	screenshotPollEvery = 50 * time.Millisecond
)

// command is the inbound subscriber message.
type command struct {
	Command    string            `json:"command"`
	Definition *snippetRequest   `json:"definition"`
	Hotkeys    map[string]string `json:"hotkeys"`
}

// snippetRequest carries offsets relative to the latest clip's own start.
type snippetRequest struct {
	SourceFile string  `json:"sourceFile"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Dispatch handles one raw subscriber message. Protocol failures are reported
// to the originating subscriber only; command outcomes are broadcast through
// the hub. A malformed message never terminates the connection.
func (b *Bridge) Dispatch(raw []byte, from hub.Subscriber) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		b.logger.Warn("discarding malformed message", "error", err)
		if from != nil {
			_ = from.Send(event.New(event.TypeError, "Invalid JSON format"))
		}
		return
	}
	if cmd.Command == "" {
		if from != nil {
			_ = from.Send(event.New(event.TypeError, "Missing command field"))
		}
		return
	}

	b.logger.Info("dispatching command", "command", cmd.Command)

	switch cmd.Command {
	case "take_screenshot":
		b.handleScreenshot()
	case "start_audio_clip":
		b.handleClipStart()
	case "end_audio_clip":
		b.handleClipEnd()
	case "create_or_update_snippet":
		b.handleSnippet(cmd.Definition)
	case "register_hotkeys":
		b.handleRegisterHotkeys(cmd.Hotkeys)
	case "send_srt_file":
		b.handleSendSrt()
	case "get_status":
		b.handleStatus()
	default:
		b.hub.Publish(event.CommandFailed(cmd.Command, "Unknown command: "+cmd.Command))
	}
}

// handleScreenshot captures the current frame. Capture is fast but the engine
// flushes the file asynchronously, so existence is polled with a bound before
// success is reported.
func (b *Bridge) handleScreenshot() {
	if err := os.MkdirAll(b.screenshotsDir, 0755); err != nil {
		b.hub.Publish(event.CommandFailed("take_screenshot", "Cannot create screenshots directory: "+err.Error()))
		return
	}

	dest := filepath.Join(b.screenshotsDir, fmt.Sprintf("shot-%s.png", time.Now().Format("20060102-150405")))
	if err := b.engine.CaptureFrame(dest); err != nil {
		b.hub.Publish(event.CommandFailed("take_screenshot", "Screenshot failed: "+err.Error()))
		return
	}
	if !waitForFile(dest, screenshotWait) {
		b.hub.Publish(event.CommandFailed("take_screenshot", "Screenshot file did not appear: "+filepath.Base(dest)))
		return
	}

	pos, _ := b.engine.Position()
	_, abs := b.session.File()
	shot := &cliplog.Screenshot{
		ID:         newID(),
		SourcePath: abs,
		PositionS:  pos,
		DestPath:   dest,
		CreatedAt:  time.Now(),
	}
	if err := b.history.RecordScreenshot(context.Background(), shot); err != nil {
		b.logger.Warn("failed to record screenshot", "error", err)
	}

	b.hub.Publish(event.CommandOK("take_screenshot", "Screenshot saved: "+filepath.Base(dest), dest))
}

func (b *Bridge) handleClipStart() {
	pos, err := b.pipeline.MarkStart()
	if err != nil {
		b.hub.Publish(event.CommandFailed("start_audio_clip", err.Error()))
		return
	}
	b.hub.Publish(event.CommandOK("start_audio_clip", "Clip started at "+event.FormatTime(pos), ""))
}

func (b *Bridge) handleClipEnd() {
	job, err := b.pipeline.MarkEnd()
	if err != nil {
		b.hub.Publish(event.CommandFailed("end_audio_clip", err.Error()))
		return
	}
	// Completion is reported asynchronously by the pipeline.
	b.hub.Publish(event.New(event.TypeInfo, fmt.Sprintf("Extracting clip (%.1fs)", job.Duration)))
}

func (b *Bridge) handleSnippet(def *snippetRequest) {
	if def == nil {
		b.hub.Publish(event.CommandFailed("create_or_update_snippet", "Missing snippet definition"))
		return
	}
	if def.SourceFile != "" && def.SourceFile != "latest" {
		b.hub.Publish(event.CommandFailed("create_or_update_snippet", "Only the latest clip can be a snippet source"))
		return
	}

	job, err := b.pipeline.Snippet(def.Start, def.End)
	if err != nil {
		b.hub.Publish(event.CommandFailed("create_or_update_snippet", err.Error()))
		return
	}
	b.hub.Publish(event.New(event.TypeInfo, fmt.Sprintf("Extracting snippet (%.1fs)", job.Duration)))
}

func (b *Bridge) handleSendSrt() {
	b.hub.Publish(event.SrtFound(subtitlePath(b.session.Subtitle())))
}

// handleStatus emits a full snapshot of session state. Must work after engine
// shutdown: every engine-derived field comes from the session, not a live
// query.
func (b *Bridge) handleStatus() {
	ev := event.New(event.TypeStatus, "Status snapshot")

	active := b.session.Active()
	ev.PlayerActive = &active

	filePath, abs := b.session.File()
	if filePath != "" {
		ev.Filename = filepath.Base(filePath)
	}
	ev.CurrentFilePath = abs
	ev.Paused = b.session.PauseState()
	ev.ClipStart = b.session.ClipStart()
	ev.ClipEnd = b.session.ClipEnd()

	if count, err := b.history.CountExtractions(context.Background()); err == nil {
		ev.Extractions = &count
	}

	b.hub.Publish(ev)
}

func waitForFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return true
		}
		time.Sleep(screenshotPollEvery)
	}
	return false
}
