package clip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/hub"
	"github.com/playbridge/playbridge/internal/session"
	"github.com/playbridge/playbridge/internal/subtitle"
)

type extractCall struct {
	source   string
	start    float64
	duration float64
	dest     string
}

type fakeTranscoder struct {
	mu    sync.Mutex
	calls []extractCall
	err   error
}

func (f *fakeTranscoder) Extract(ctx context.Context, source string, start, duration float64, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, extractCall{source: source, start: start, duration: duration, dest: dest})
	return f.err
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranscoder) call(i int) extractCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type posEngine struct {
	pos    float64
	posErr error
}

func (e *posEngine) Position() (float64, error)                { return e.pos, e.posErr }
func (e *posEngine) Duration() (float64, error)                { return 0, engine.ErrUnavailable }
func (e *posEngine) Filename() string                          { return "movie.mp4" }
func (e *posEngine) Path() (string, error)                     { return "movie.mp4", nil }
func (e *posEngine) WorkingDir() (string, error)               { return "/videos", nil }
func (e *posEngine) IsPaused() bool                            { return false }
func (e *posEngine) Idle() (bool, error)                       { return false, nil }
func (e *posEngine) CaptureFrame(path string) error            { return nil }
func (e *posEngine) BindKey(key, message string) error         { return nil }
func (e *posEngine) SubtitleTracks() ([]subtitle.Track, error) { return nil, nil }
func (e *posEngine) Notifications() <-chan engine.Notification { return nil }
func (e *posEngine) Close() error                              { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordLaunch(ctx context.Context, job Job) error { return nil }
func (nopRecorder) RecordOutcome(ctx context.Context, jobID string, success bool, errMsg string) error {
	return nil
}

type collectingSubscriber struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collectingSubscriber) Send(ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collectingSubscriber) Close() error { return nil }

func (c *collectingSubscriber) responses() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, ev := range c.events {
		if ev.Type == event.TypeCommandResponse {
			out = append(out, ev)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, eng engine.Engine, trans Transcoder) (*Pipeline, *session.State, *collectingSubscriber) {
	t.Helper()
	st := session.New()
	h := hub.New(testLogger())
	sub := &collectingSubscriber{}
	h.Add(sub)
	p := NewPipeline(st, eng, trans, h, nopRecorder{}, t.TempDir(), time.Second, 2, testLogger())
	return p, st, sub
}

func TestMarkStart_NoFileLoaded(t *testing.T) {
	trans := &fakeTranscoder{}
	p, st, _ := newTestPipeline(t, &posEngine{pos: 5}, trans)

	if _, err := p.MarkStart(); !errors.Is(err, ErrNoFile) {
		t.Fatalf("MarkStart() error = %v, want ErrNoFile", err)
	}
	if st.ClipStart() != nil {
		t.Error("rejected MarkStart must not mutate state")
	}
}

func TestMarkStart_RecordsPosition(t *testing.T) {
	trans := &fakeTranscoder{}
	p, st, _ := newTestPipeline(t, &posEngine{pos: 10}, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")

	pos, err := p.MarkStart()
	if err != nil {
		t.Fatalf("MarkStart() error = %v", err)
	}
	if pos != 10 {
		t.Errorf("pos = %v, want 10", pos)
	}
	if got := st.ClipStart(); got == nil || *got != 10 {
		t.Errorf("ClipStart = %v, want 10", got)
	}
}

func TestMarkEnd_NoStartMark(t *testing.T) {
	trans := &fakeTranscoder{}
	p, st, _ := newTestPipeline(t, &posEngine{pos: 16}, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")

	if _, err := p.MarkEnd(); !errors.Is(err, ErrNoStartMark) {
		t.Fatalf("MarkEnd() error = %v, want ErrNoStartMark", err)
	}
	if trans.callCount() != 0 {
		t.Error("no transcoder invocation expected")
	}
}

func TestMarkEnd_InvalidRangeNeverLaunches(t *testing.T) {
	eng := &posEngine{pos: 8}
	trans := &fakeTranscoder{}
	p, st, _ := newTestPipeline(t, eng, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")
	st.SetClipStart(10)

	_, err := p.MarkEnd()
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("MarkEnd() error = %v, want ErrInvalidRange", err)
	}

	p.Wait()
	if trans.callCount() != 0 {
		t.Error("invalid range must never launch an extraction")
	}
	// A failed end mark preserves the start mark for an immediate retry.
	if got := st.ClipStart(); got == nil || *got != 10 {
		t.Errorf("ClipStart after failed end mark = %v, want 10", got)
	}
}

func TestMarkEnd_LaunchesExtraction(t *testing.T) {
	eng := &posEngine{pos: 16}
	trans := &fakeTranscoder{}
	p, st, sub := newTestPipeline(t, eng, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")
	st.SetClipStart(10)

	job, err := p.MarkEnd()
	if err != nil {
		t.Fatalf("MarkEnd() error = %v", err)
	}
	p.Wait()

	if job.Start != 10.0 || job.Duration != 6.0 {
		t.Errorf("job start/duration = %v/%v, want 10/6", job.Start, job.Duration)
	}
	if trans.callCount() != 1 {
		t.Fatalf("transcoder calls = %d, want 1", trans.callCount())
	}
	call := trans.call(0)
	if call.source != "/videos/movie.mp4" || call.start != 10.0 || call.duration != 6.0 {
		t.Errorf("extract call = %+v", call)
	}

	if st.ClipStart() != nil {
		t.Error("start mark must be cleared after a successful launch")
	}
	if got := st.ClipEnd(); got == nil || *got != 16 {
		t.Errorf("ClipEnd = %v, want 16 (retained)", got)
	}

	responses := sub.responses()
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if responses[0].Success == nil || !*responses[0].Success {
		t.Errorf("response = %+v, want success", responses[0])
	}
	if responses[0].FilePath != call.dest {
		t.Errorf("response file_path = %q, want %q", responses[0].FilePath, call.dest)
	}

	last := p.Latest()
	if last == nil || last.Start != 10 || last.End != 16 {
		t.Errorf("Latest() = %+v", last)
	}
}

func TestMarkEnd_TranscoderFailureReported(t *testing.T) {
	eng := &posEngine{pos: 16}
	trans := &fakeTranscoder{err: errors.New("ffmpeg exited 1: no audio stream")}
	p, st, sub := newTestPipeline(t, eng, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")
	st.SetClipStart(10)

	if _, err := p.MarkEnd(); err != nil {
		t.Fatalf("MarkEnd() error = %v", err)
	}
	p.Wait()

	responses := sub.responses()
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if responses[0].Success == nil || *responses[0].Success {
		t.Error("response should report failure")
	}
	if !strings.Contains(responses[0].Error, "no audio stream") {
		t.Errorf("diagnostic = %q, want transcoder stderr attached", responses[0].Error)
	}
	if p.Latest() != nil {
		t.Error("failed extraction must not become the latest clip")
	}
}

func TestMarkEnd_TimeoutDiagnostic(t *testing.T) {
	eng := &posEngine{pos: 16}
	trans := &fakeTranscoder{err: context.DeadlineExceeded}
	p, st, sub := newTestPipeline(t, eng, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")
	st.SetClipStart(10)

	if _, err := p.MarkEnd(); err != nil {
		t.Fatalf("MarkEnd() error = %v", err)
	}
	p.Wait()

	responses := sub.responses()
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if !strings.Contains(responses[0].Error, "timed out") {
		t.Errorf("diagnostic = %q, want timeout-specific text", responses[0].Error)
	}
}

func TestSnippet_NoClipYet(t *testing.T) {
	trans := &fakeTranscoder{}
	p, _, _ := newTestPipeline(t, &posEngine{}, trans)

	if _, err := p.Snippet(3, 6); !errors.Is(err, ErrNoClipYet) {
		t.Fatalf("Snippet() error = %v, want ErrNoClipYet", err)
	}
}

func TestSnippet_MapsRelativeOffsetsToSource(t *testing.T) {
	eng := &posEngine{pos: 16}
	trans := &fakeTranscoder{}
	p, st, _ := newTestPipeline(t, eng, trans)
	st.SetFile("movie.mp4", "/videos/movie.mp4")
	st.SetClipStart(10)

	if _, err := p.MarkEnd(); err != nil {
		t.Fatalf("MarkEnd() error = %v", err)
	}
	p.Wait()

	job, err := p.Snippet(3, 6)
	if err != nil {
		t.Fatalf("Snippet() error = %v", err)
	}
	p.Wait()

	if job.Start != 13.0 {
		t.Errorf("absolute start = %v, want 13 (clip start 10 + relative 3)", job.Start)
	}
	if job.Duration != 3.0 {
		t.Errorf("duration = %v, want 3", job.Duration)
	}
	if job.Source != "/videos/movie.mp4" {
		t.Errorf("source = %q, want original file", job.Source)
	}
	if trans.callCount() != 2 {
		t.Fatalf("transcoder calls = %d, want 2", trans.callCount())
	}

	// The snippet must not displace the clip as "latest".
	last := p.Latest()
	if last == nil || last.Start != 10 {
		t.Errorf("Latest() = %+v, want the original clip", last)
	}
}

func TestSnippet_InvalidRange(t *testing.T) {
	trans := &fakeTranscoder{}
	p, _, _ := newTestPipeline(t, &posEngine{}, trans)

	for _, c := range [][2]float64{{6, 3}, {3, 3}, {-1, 2}} {
		if _, err := p.Snippet(c[0], c[1]); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Snippet(%v, %v) error = %v, want ErrInvalidRange", c[0], c[1], err)
		}
	}
	if trans.callCount() != 0 {
		t.Error("invalid snippet ranges must not launch extractions")
	}
}
