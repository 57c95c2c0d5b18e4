// Package cliplog persists extraction and screenshot history so artifacts can
// be listed and accounted for after restarts.
package cliplog

import "time"

// Extraction statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type Extraction struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Kind       string    `json:"kind"`
	SourcePath string    `json:"source_path"`
	StartS     float64   `json:"start_s"`
	DurationS  float64   `json:"duration_s"`
	DestPath   string    `json:"dest_path"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Screenshot struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	PositionS  float64   `json:"position_s"`
	DestPath   string    `json:"dest_path"`
	CreatedAt  time.Time `json:"created_at"`
}
