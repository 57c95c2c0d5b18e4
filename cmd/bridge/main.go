package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playbridge/playbridge/internal/api"
	"github.com/playbridge/playbridge/internal/bridge"
	"github.com/playbridge/playbridge/internal/clip"
	"github.com/playbridge/playbridge/internal/cliplog"
	"github.com/playbridge/playbridge/internal/config"
	"github.com/playbridge/playbridge/internal/db"
	"github.com/playbridge/playbridge/internal/engine/mpv"
	"github.com/playbridge/playbridge/internal/hub"
	"github.com/playbridge/playbridge/internal/logging"
	"github.com/playbridge/playbridge/internal/monitor"
	"github.com/playbridge/playbridge/internal/session"
	"github.com/playbridge/playbridge/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.ClipsDir(), cfg.ScreenshotsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting playbridge",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
		"mpv_socket", cfg.MPVSocket(),
	)

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	history := cliplog.NewRepository(database.Conn())

	engine, err := mpv.Connect(cfg.MPVSocket(), logging.WithComponent(logger, "mpv"))
	if err != nil {
		return fmt.Errorf("failed to connect to mpv at %s: %w", cfg.MPVSocket(), err)
	}
	defer engine.Close()

	st := session.New()
	h := hub.New(logging.WithComponent(logger, "hub"))

	transcoder, err := clip.NewFFmpeg(cfg.FFmpegPath(), logging.WithComponent(logger, "ffmpeg"))
	if err != nil {
		return fmt.Errorf("failed to locate transcoder: %w", err)
	}

	pipeline := clip.NewPipeline(st, engine, transcoder, h, history,
		cfg.ClipsDir(), cfg.ExtractTimeout(), cfg.MaxExtractions(),
		logging.WithComponent(logger, "clip"))

	mon := monitor.New(engine, h, cfg.PollInterval(), logging.WithComponent(logger, "monitor"))

	br := bridge.New(st, engine, h, mon, pipeline, history,
		cfg.ScreenshotsDir(), logging.WithComponent(logger, "bridge"))

	go br.Run()
	mon.Start()

	wsHandler := ws.NewHandler(h, br, logging.WithComponent(logger, "ws"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Hub:       h,
		Session:   st,
		History:   history,
		WSHandler: wsHandler,
		StartTime: startTime,
		Logger:    logging.WithComponent(logger, "api"),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	logger.Info("subscriber endpoint ready", "url", fmt.Sprintf("ws://%s/ws", apiServer.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		logger.Info("HTTP server closed")
	}

	logger.Info("initiating graceful shutdown")

	mon.Stop(2 * time.Second)

	// Let in-flight extractions finish; their completion events still
	// broadcast to whoever is connected.
	pipeline.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
