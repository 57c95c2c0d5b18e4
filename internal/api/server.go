// Package api hosts the HTTP surface: health and status endpoints, the clip
// history listing, artifact downloads, and the WebSocket upgrade.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playbridge/playbridge/internal/cliplog"
	"github.com/playbridge/playbridge/internal/hub"
	"github.com/playbridge/playbridge/internal/session"
)

// History is the slice of the clip log the HTTP surface reads.
type History interface {
	ListExtractions(ctx context.Context, limit int) ([]*cliplog.Extraction, error)
	GetExtraction(ctx context.Context, id string) (*cliplog.Extraction, error)
	ListScreenshots(ctx context.Context, limit int) ([]*cliplog.Screenshot, error)
	CountExtractions(ctx context.Context) (int, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int
	Hub       *hub.Hub
	Session   *session.State
	History   History
	WSHandler http.Handler
	StartTime time.Time
	Logger    *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
