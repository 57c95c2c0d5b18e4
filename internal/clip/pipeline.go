// Package clip implements the two-phase clip extraction workflow: mark start,
// mark end, hand the bounded range to the external transcoder, and report the
// outcome asynchronously over the broadcast channel.
package clip

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/event"
	"github.com/playbridge/playbridge/internal/hub"
	"github.com/playbridge/playbridge/internal/session"
)

// Job kinds recorded in the clip history.
const (
	KindClip    = "clip"
	KindSnippet = "snippet"
)

var (
	ErrNoFile       = errors.New("no file loaded")
	ErrNoStartMark  = errors.New("no clip start mark set")
	ErrNoPosition   = errors.New("no playback position available")
	ErrInvalidRange = errors.New("clip end must be after clip start")
	ErrNoClipYet    = errors.New("no clip has been produced yet")
)

// Job is one extraction attempt. Ephemeral: discarded after its completion
// event is broadcast; only the history record survives.
type Job struct {
	ID       string
	Command  string
	Kind     string
	Source   string
	Start    float64
	Duration float64
	Dest     string
}

// Produced identifies the most recently produced clip, the implicit source
// for derived-snippet requests.
type Produced struct {
	SourcePath string
	Start      float64
	End        float64
	DestPath   string
}

// Recorder persists launch and outcome of extraction jobs.
type Recorder interface {
	RecordLaunch(ctx context.Context, job Job) error
	RecordOutcome(ctx context.Context, jobID string, success bool, errMsg string) error
}

// Pipeline owns the clip state machine. Jobs run concurrently and
// independently; the semaphore only bounds how many ffmpeg processes run at
// once.
type Pipeline struct {
	session  *session.State
	engine   engine.Engine
	trans    Transcoder
	hub      *hub.Hub
	recorder Recorder
	clipsDir string
	timeout  time.Duration
	sem      *semaphore.Weighted
	logger   *slog.Logger

	mu   sync.Mutex
	last *Produced

	wg sync.WaitGroup
}

func NewPipeline(st *session.State, eng engine.Engine, trans Transcoder, h *hub.Hub, rec Recorder, clipsDir string, timeout time.Duration, maxConcurrent int64, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		session:  st,
		engine:   eng,
		trans:    trans,
		hub:      h,
		recorder: rec,
		clipsDir: clipsDir,
		timeout:  timeout,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger,
	}
}

// MarkStart records the clip start at the current playback position. Rejected
// with no state change when no file is loaded or no position is available.
func (p *Pipeline) MarkStart() (float64, error) {
	if _, abs := p.session.File(); abs == "" {
		return 0, ErrNoFile
	}

	pos, err := p.engine.Position()
	if err != nil {
		return 0, ErrNoPosition
	}

	p.session.SetClipStart(pos)
	p.logger.Info("clip start marked", "position", pos)
	return pos, nil
}

// HasStartMark reports whether a start mark is pending.
func (p *Pipeline) HasStartMark() bool {
	return p.session.ClipStart() != nil
}

// MarkEnd records the clip end, validates the range, and launches the
// extraction without blocking the caller. A validation failure preserves the
// start mark so the user can retry the end mark; a successful launch clears
// it and retains the end mark.
func (p *Pipeline) MarkEnd() (*Job, error) {
	start := p.session.ClipStart()
	if start == nil {
		return nil, ErrNoStartMark
	}

	pos, err := p.engine.Position()
	if err != nil {
		return nil, ErrNoPosition
	}
	if pos <= *start {
		return nil, fmt.Errorf("%w (start %.2f, end %.2f)", ErrInvalidRange, *start, pos)
	}

	_, source := p.session.File()
	if source == "" {
		return nil, ErrNoFile
	}

	p.session.SetClipEnd(pos)
	p.session.ClearClipStart()

	job := Job{
		ID:       newID(),
		Command:  "end_audio_clip",
		Kind:     KindClip,
		Source:   source,
		Start:    *start,
		Duration: pos - *start,
		Dest:     filepath.Join(p.clipsDir, clipFilename(KindClip, time.Now(), *start, pos)),
	}
	p.launch(job, pos)
	return &job, nil
}

// Snippet derives a bounded sub-range of the most recently produced clip. The
// offsets are relative to that clip's own start; extraction runs against the
// original source file at the mapped absolute offsets.
func (p *Pipeline) Snippet(relStart, relEnd float64) (*Job, error) {
	if relStart < 0 || relEnd <= relStart {
		return nil, fmt.Errorf("%w (start %.2f, end %.2f)", ErrInvalidRange, relStart, relEnd)
	}

	last := p.Latest()
	if last == nil {
		return nil, ErrNoClipYet
	}

	absStart := last.Start + relStart
	job := Job{
		ID:       newID(),
		Command:  "create_or_update_snippet",
		Kind:     KindSnippet,
		Source:   last.SourcePath,
		Start:    absStart,
		Duration: relEnd - relStart,
		Dest:     filepath.Join(p.clipsDir, clipFilename(KindSnippet, time.Now(), absStart, absStart+relEnd-relStart)),
	}
	p.launch(job, absStart+relEnd-relStart)
	return &job, nil
}

// Latest returns the most recently produced clip, or nil if none succeeded
// yet.
func (p *Pipeline) Latest() *Produced {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Wait blocks until all in-flight jobs have completed. Used by shutdown and
// tests; subscriber disconnects never cancel jobs.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// launch runs the job on its own goroutine and broadcasts the outcome to
// whatever subscriber set exists at completion time.
func (p *Pipeline) launch(job Job, end float64) {
	if err := p.recorder.RecordLaunch(context.Background(), job); err != nil {
		p.logger.Warn("failed to record job launch", "job_id", job.ID, "error", err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		logger := p.logger.With("job_id", job.ID, "kind", job.Kind)

		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.finish(job, end, fmt.Errorf("acquire extraction slot: %w", err), logger)
			return
		}
		defer p.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		err := p.trans.Extract(ctx, job.Source, job.Start, job.Duration, job.Dest)
		p.finish(job, end, err, logger)
	}()
}

func (p *Pipeline) finish(job Job, end float64, err error, logger *slog.Logger) {
	if err == nil {
		if job.Kind == KindClip {
			p.mu.Lock()
			p.last = &Produced{SourcePath: job.Source, Start: job.Start, End: end, DestPath: job.Dest}
			p.mu.Unlock()
		}

		if recErr := p.recorder.RecordOutcome(context.Background(), job.ID, true, ""); recErr != nil {
			logger.Warn("failed to record job outcome", "error", recErr)
		}
		logger.Info("extraction complete", "dest", job.Dest)
		p.hub.Publish(event.CommandOK(job.Command, fmt.Sprintf("Saved: %s", filepath.Base(job.Dest)), job.Dest))
		return
	}

	diagnostic := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		diagnostic = fmt.Sprintf("extraction timed out after %s", p.timeout)
	}

	if recErr := p.recorder.RecordOutcome(context.Background(), job.ID, false, diagnostic); recErr != nil {
		logger.Warn("failed to record job outcome", "error", recErr)
	}
	logger.Warn("extraction failed", "error", diagnostic)
	p.hub.Publish(event.CommandFailed(job.Command, diagnostic))
}

// newID generates a random job identifier.
func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
