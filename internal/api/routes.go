package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playbridge/playbridge/internal/cliplog"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))
	r.Get("/clips", listClipsHandler(cfg))
	r.Get("/clips/{id}", getClipHandler(cfg))
	r.Get("/clips/{id}/file", clipFileHandler(cfg))
	r.Get("/screenshots", listScreenshotsHandler(cfg))

	if cfg.WSHandler != nil {
		r.Handle("/ws", cfg.WSHandler)
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: "0.1.0",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, abs := cfg.Session.File()
		resp := StatusResponse{
			PlayerActive:    cfg.Session.Active(),
			CurrentFilePath: abs,
			Paused:          cfg.Session.PauseState(),
			ClipStart:       cfg.Session.ClipStart(),
			ClipEnd:         cfg.Session.ClipEnd(),
			Subscribers:     cfg.Hub.Count(),
		}
		if count, err := cfg.History.CountExtractions(r.Context()); err == nil {
			resp.Extractions = count
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		extractions, err := cfg.History.ListExtractions(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}

		resp := ExtractionsResponse{Extractions: make([]ExtractionResponse, len(extractions))}
		for i, e := range extractions {
			resp.Extractions[i] = ExtractionToResponse(e)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		extraction, err := cfg.History.GetExtraction(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if extraction == nil {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ExtractionToResponse(extraction))
	}
}

// clipFileHandler serves the produced artifact. Range requests and
// content-type negotiation come from http.ServeFile.
func clipFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		extraction, err := cfg.History.GetExtraction(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if extraction == nil {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		if extraction.Status != cliplog.StatusDone {
			WriteError(w, http.StatusNotFound, "clip not produced: "+extraction.Status, "NOT_READY")
			return
		}
		http.ServeFile(w, r, extraction.DestPath)
	}
}

func listScreenshotsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shots, err := cfg.History.ListScreenshots(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list screenshots", "INTERNAL_ERROR")
			return
		}

		resp := ScreenshotsResponse{Screenshots: make([]ScreenshotResponse, len(shots))}
		for i, s := range shots {
			resp.Screenshots[i] = ScreenshotToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
