// Package mpv implements the engine interface over mpv's JSON IPC socket.
// The protocol is newline-delimited JSON: requests carry a request_id echoed
// in the matching response, and asynchronous events arrive interleaved on the
// same connection.
package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playbridge/playbridge/internal/engine"
	"github.com/playbridge/playbridge/internal/subtitle"
)

const (
	queryTimeout  = 2 * time.Second
	scannerBuffer = 1024 * 1024 // 1MB line buffer; track-list can get large
)

// Client talks to a running mpv instance started with --input-ipc-server.
type Client struct {
	conn    net.Conn
	logger  *slog.Logger
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan response

	nextID atomic.Int64
	closed atomic.Bool

	notifications chan engine.Notification
}

type request struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

type response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
}

// inbound covers both responses and events; Event is empty for responses.
type inbound struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	Args      []string        `json:"args"`
	Error     string          `json:"error"`
	RequestID int64           `json:"request_id"`
}

// Connect dials the mpv IPC socket and starts the reader goroutine. The pause
// property is observed immediately so pause flips arrive as notifications.
func Connect(socketPath string, logger *slog.Logger) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv socket: %w", err)
	}

	c := &Client{
		conn:          conn,
		logger:        logger,
		pending:       make(map[int64]chan response),
		notifications: make(chan engine.Notification, 16),
	}
	go c.readLoop()

	if _, err := c.command("observe_property", 1, "pause"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("observe pause property: %w", err)
	}

	return c, nil
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, scannerBuffer), scannerBuffer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg inbound
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Warn("unparseable mpv message", "error", err)
			continue
		}

		if msg.Event == "" {
			c.deliver(response{Error: msg.Error, Data: msg.Data, RequestID: msg.RequestID})
			continue
		}
		c.handleEvent(msg)
	}

	// Socket gone: mpv quit or the window was closed. Treat as shutdown
	// unless Close initiated the teardown.
	if !c.closed.Swap(true) {
		c.notifications <- engine.Notification{Kind: engine.NoteShutdown}
	}
	close(c.notifications)
	c.failPending()
}

func (c *Client) handleEvent(msg inbound) {
	var note engine.Notification
	switch msg.Event {
	case "start-file":
		note = engine.Notification{Kind: engine.NoteStartFile}
	case "file-loaded":
		note = engine.Notification{Kind: engine.NoteFileLoaded}
	case "end-file":
		note = engine.Notification{Kind: engine.NoteEndFile, Reason: msg.Reason}
	case "seek":
		note = engine.Notification{Kind: engine.NoteSeek}
	case "shutdown":
		note = engine.Notification{Kind: engine.NoteShutdown}
	case "client-message":
		note = engine.Notification{Kind: engine.NoteClientMessage, Args: msg.Args}
	case "property-change":
		if msg.Name != "pause" {
			return
		}
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return
		}
		note = engine.Notification{Kind: engine.NotePause, Paused: paused}
	default:
		return
	}

	if c.closed.Load() {
		return
	}
	c.notifications <- note
}

func (c *Client) deliver(resp response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.mu.Unlock()

	if ok {
		ch <- resp
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
}

// command issues one IPC request and waits for its response.
func (c *Client) command(args ...interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, engine.ErrUnavailable
	}

	id := c.nextID.Add(1)
	ch := make(chan response, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal mpv request: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	_, err = c.conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("write mpv request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, engine.ErrUnavailable
		}
		if resp.Error != "success" {
			if resp.Error == "property unavailable" {
				return nil, engine.ErrUnavailable
			}
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	case <-time.After(queryTimeout):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("mpv request timed out")
	}
}

func (c *Client) getFloat(property string) (float64, error) {
	data, err := c.command("get_property", property)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, engine.ErrUnavailable
	}
	return v, nil
}

func (c *Client) getString(property string) (string, error) {
	data, err := c.command("get_property", property)
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return "", engine.ErrUnavailable
	}
	return v, nil
}

func (c *Client) getBool(property string) (bool, error) {
	data, err := c.command("get_property", property)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, engine.ErrUnavailable
	}
	return v, nil
}

// Position implements engine.Engine.
func (c *Client) Position() (float64, error) {
	return c.getFloat("time-pos")
}

// Duration implements engine.Engine.
func (c *Client) Duration() (float64, error) {
	return c.getFloat("duration")
}

// Filename implements engine.Engine. Failure reads as "" per the safe-default
// policy.
func (c *Client) Filename() string {
	name, err := c.getString("filename")
	if err != nil {
		return ""
	}
	return name
}

// Path implements engine.Engine.
func (c *Client) Path() (string, error) {
	return c.getString("path")
}

// WorkingDir implements engine.Engine.
func (c *Client) WorkingDir() (string, error) {
	return c.getString("working-directory")
}

// IsPaused implements engine.Engine. Unknown state reads as paused.
func (c *Client) IsPaused() bool {
	paused, err := c.getBool("pause")
	if err != nil {
		return true
	}
	return paused
}

// Idle implements engine.Engine.
func (c *Client) Idle() (bool, error) {
	return c.getBool("idle-active")
}

// CaptureFrame implements engine.Engine.
func (c *Client) CaptureFrame(path string) error {
	_, err := c.command("screenshot-to-file", path, "video")
	return err
}

// BindKey implements engine.Engine. The trigger arrives back as a
// client-message event carrying the message as its first argument.
func (c *Client) BindKey(key, message string) error {
	_, err := c.command("keybind", key, "script-message "+message)
	return err
}

// SubtitleTracks implements engine.Engine.
func (c *Client) SubtitleTracks() ([]subtitle.Track, error) {
	data, err := c.command("get_property", "track-list")
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Type             string `json:"type"`
		ID               int    `json:"id"`
		Lang             string `json:"lang"`
		Title            string `json:"title"`
		External         bool   `json:"external"`
		ExternalFilename string `json:"external-filename"`
		Selected         bool   `json:"selected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse track-list: %w", err)
	}

	var tracks []subtitle.Track
	for _, t := range raw {
		if t.Type != "sub" {
			continue
		}
		tracks = append(tracks, subtitle.Track{
			ID:       t.ID,
			Language: t.Lang,
			Title:    t.Title,
			External: t.External,
			Filename: t.ExternalFilename,
			Selected: t.Selected,
		})
	}
	return tracks, nil
}

// Notifications implements engine.Engine.
func (c *Client) Notifications() <-chan engine.Notification {
	return c.notifications
}

// Close implements engine.Engine. Safe to call more than once.
func (c *Client) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}
