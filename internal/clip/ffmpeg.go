package clip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Transcoder extracts a bounded range of a media file into a new file. It is
// invoked out of process and bounded by the caller's context deadline.
type Transcoder interface {
	Extract(ctx context.Context, sourcePath string, startSeconds, durationSeconds float64, destPath string) error
}

// FFmpeg is the production Transcoder backed by the ffmpeg binary.
type FFmpeg struct {
	binary string
	logger *slog.Logger
}

func NewFFmpeg(binary string, logger *slog.Logger) (*FFmpeg, error) {
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg binary %q: %w", binary, err)
	}
	return &FFmpeg{binary: resolved, logger: logger}, nil
}

// Extract re-encodes [start, start+duration) of sourcePath into destPath as
// mp3 audio. -ss before -i gets fast input seeking; -t bounds the output.
func (f *FFmpeg) Extract(ctx context.Context, sourcePath string, startSeconds, durationSeconds float64, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("cannot create output dir: %w", err)
	}

	args := []string{
		"-ss", formatSeconds(startSeconds),
		"-i", sourcePath,
		"-t", formatSeconds(durationSeconds),
		"-vn", "-acodec", "mp3",
		destPath, "-y",
	}
	cmd := exec.CommandContext(ctx, f.binary, args...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard

	start := time.Now()
	f.logger.Info("executing ffmpeg", "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg did not finish in time: %w", context.DeadlineExceeded)
		}
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		f.logger.Warn("ffmpeg failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrBuf.String(), 512),
		)
		return fmt.Errorf("ffmpeg exited %d: %s", exitCode, stderrBuf.String())
	}

	f.logger.Info("ffmpeg succeeded",
		"duration_ms", elapsed.Milliseconds(),
		"output", destPath,
	)
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
