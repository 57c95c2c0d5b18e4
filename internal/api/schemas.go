package api

import (
	"time"

	"github.com/playbridge/playbridge/internal/cliplog"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	PlayerActive    bool     `json:"player_active"`
	CurrentFilePath string   `json:"current_file_path,omitempty"`
	Paused          *bool    `json:"paused,omitempty"`
	ClipStart       *float64 `json:"clip_start,omitempty"`
	ClipEnd         *float64 `json:"clip_end,omitempty"`
	Subscribers     int      `json:"subscribers"`
	Extractions     int      `json:"extractions"`
}

type ExtractionResponse struct {
	ID         string  `json:"id"`
	Command    string  `json:"command"`
	Kind       string  `json:"kind"`
	SourcePath string  `json:"source_path"`
	StartS     float64 `json:"start_s"`
	DurationS  float64 `json:"duration_s"`
	DestPath   string  `json:"dest_path"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type ExtractionsResponse struct {
	Extractions []ExtractionResponse `json:"extractions"`
}

type ScreenshotResponse struct {
	ID         string  `json:"id"`
	SourcePath string  `json:"source_path"`
	PositionS  float64 `json:"position_s"`
	DestPath   string  `json:"dest_path"`
	CreatedAt  string  `json:"created_at"`
}

type ScreenshotsResponse struct {
	Screenshots []ScreenshotResponse `json:"screenshots"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ExtractionToResponse(e *cliplog.Extraction) ExtractionResponse {
	return ExtractionResponse{
		ID:         e.ID,
		Command:    e.Command,
		Kind:       e.Kind,
		SourcePath: e.SourcePath,
		StartS:     e.StartS,
		DurationS:  e.DurationS,
		DestPath:   e.DestPath,
		Status:     e.Status,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

func ScreenshotToResponse(s *cliplog.Screenshot) ScreenshotResponse {
	return ScreenshotResponse{
		ID:         s.ID,
		SourcePath: s.SourcePath,
		PositionS:  s.PositionS,
		DestPath:   s.DestPath,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}
