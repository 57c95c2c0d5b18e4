// Package config provides configuration management for the Playbridge daemon.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort           = 8765
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".playbridge"
	DefaultMPVSocket      = "/tmp/mpv-socket"
	DefaultFFmpeg         = "ffmpeg"
	DefaultPollIntervalMS = 208

	// Environment variable names
	EnvPort           = "BRIDGE_PORT"
	EnvLogLevel       = "BRIDGE_LOG_LEVEL"
	EnvDataDir        = "BRIDGE_DATA_DIR"
	EnvMPVSocket      = "BRIDGE_MPV_SOCKET"
	EnvFFmpeg         = "BRIDGE_FFMPEG"
	EnvPollIntervalMS = "BRIDGE_POLL_INTERVAL_MS"

	// Database filename
	DBFilename = "playbridge.db"

	// Extraction defaults
	DefaultExtractTimeout = 30 * time.Second
	DefaultMaxExtractions = 3
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ClipsDir() string
	ScreenshotsDir() string
	MPVSocket() string
	FFmpegPath() string
	PollInterval() time.Duration
	ExtractTimeout() time.Duration
	MaxExtractions() int64
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	mpvSocket    string
	ffmpegPath   string
	pollInterval time.Duration
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		mpvSocket:    DefaultMPVSocket,
		ffmpegPath:   DefaultFFmpeg,
		pollInterval: DefaultPollIntervalMS * time.Millisecond,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if sock := os.Getenv(EnvMPVSocket); sock != "" {
		cfg.mpvSocket = sock
	}

	if ff := os.Getenv(EnvFFmpeg); ff != "" {
		cfg.ffmpegPath = ff
	}

	// Poll interval bounds: below 50ms burns CPU, above 1s playback feels dead.
	if pi := os.Getenv(EnvPollIntervalMS); pi != "" {
		ms, err := strconv.Atoi(pi)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollIntervalMS, err)
		}
		if ms < 50 || ms > 1000 {
			return nil, fmt.Errorf("invalid %s: must be between 50 and 1000", EnvPollIntervalMS)
		}
		cfg.pollInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ClipsDir returns the directory extracted audio clips are written to
func (c *EnvConfig) ClipsDir() string {
	return filepath.Join(c.dataDir, "clips")
}

// ScreenshotsDir returns the directory captured frames are written to
func (c *EnvConfig) ScreenshotsDir() string {
	return filepath.Join(c.dataDir, "screenshots")
}

// MPVSocket returns the path of mpv's JSON IPC socket
func (c *EnvConfig) MPVSocket() string {
	return c.mpvSocket
}

// FFmpegPath returns the ffmpeg binary name or path
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// PollInterval returns the playback position sampling interval
func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

func (c *EnvConfig) ExtractTimeout() time.Duration {
	return DefaultExtractTimeout
}

func (c *EnvConfig) MaxExtractions() int64 {
	return DefaultMaxExtractions
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
