// Package tracker provides the WebSocket endpoint eye trackers stream into.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

// ErrNotConnected is returned when no tracker is attached to a session.
var ErrNotConnected = errors.New("tracker not connected")

// Connection represents a connected tracker
type Connection struct {
	Session   string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send sends a message to the tracker
func (c *Connection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.LastSeen = time.Now()
	c.mu.Unlock()
}

// Hub manages WebSocket connections from trackers. One tracker is attached
// per session; a new connection for the same session replaces the old one.
type Hub struct {
	mu       sync.RWMutex
	trackers map[string]*Connection
	logger   *slog.Logger

	// Accept decides whether a session ID may stream. Nil accepts all.
	accept func(session string) bool

	// Callbacks
	onConnect  func(session string)
	onGaze     func(session string, sample gaze.Sample)
	onEyes     func(session string, eyes *protocol.EyesData)
	onBlink    func(session string, ts uint64)
	onSettings func(session string, patch gaze.SettingsPatch)
	onViewport func(session string, v gaze.Viewport)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	samplesReceived  atomic.Uint64
	parseErrors      atomic.Uint64
}

// NewHub creates a new tracker hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		trackers: make(map[string]*Connection),
		logger:   logger,
	}
}

// Accept sets the session admission check
func (h *Hub) Accept(fn func(session string) bool) {
	h.mu.Lock()
	h.accept = fn
	h.mu.Unlock()
}

// OnConnect sets the callback for a newly attached tracker
func (h *Hub) OnConnect(callback func(session string)) {
	h.mu.Lock()
	h.onConnect = callback
	h.mu.Unlock()
}

// OnGaze sets the callback for incoming gaze samples
func (h *Hub) OnGaze(callback func(session string, sample gaze.Sample)) {
	h.mu.Lock()
	h.onGaze = callback
	h.mu.Unlock()
}

// OnEyes sets the callback for incoming eye frames
func (h *Hub) OnEyes(callback func(session string, eyes *protocol.EyesData)) {
	h.mu.Lock()
	h.onEyes = callback
	h.mu.Unlock()
}

// OnBlink sets the callback for blinks the tracker detected itself
func (h *Hub) OnBlink(callback func(session string, ts uint64)) {
	h.mu.Lock()
	h.onBlink = callback
	h.mu.Unlock()
}

// OnSettings sets the callback for settings changes sent by the tracker
func (h *Hub) OnSettings(callback func(session string, patch gaze.SettingsPatch)) {
	h.mu.Lock()
	h.onSettings = callback
	h.mu.Unlock()
}

// OnViewport sets the callback for viewport updates
func (h *Hub) OnViewport(callback func(session string, v gaze.Viewport)) {
	h.mu.Lock()
	h.onViewport = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the tracker WebSocket route on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/tracker", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tracker/:id", websocket.New(h.handleTracker))
}

// handleTracker handles a tracker WebSocket connection
func (h *Hub) handleTracker(c *websocket.Conn) {
	session := c.Params("id")

	h.mu.RLock()
	accept := h.accept
	h.mu.RUnlock()

	if accept != nil && !accept(session) {
		h.logger.Warn("tracker rejected", "session", session)
		if msg, err := protocol.NewErrorMessage(fmt.Sprintf("unknown session %q", session)); err == nil {
			if data, err := msg.Bytes(); err == nil {
				c.WriteMessage(websocket.TextMessage, data)
			}
		}
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session"))
		return
	}

	conn := &Connection{
		Session:   session,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	// Register tracker, replacing any previous one for the session
	h.mu.Lock()
	previous := h.trackers[session]
	h.trackers[session] = conn
	count := len(h.trackers)
	connectCb := h.onConnect
	h.mu.Unlock()

	if previous != nil {
		h.logger.Info("tracker replaced", "session", session)
		previous.Conn.Close()
	}
	h.logger.Info("tracker connected", "session", session, "total", count)

	if connectCb != nil {
		connectCb(session)
	}

	defer func() {
		h.mu.Lock()
		if h.trackers[session] == conn {
			delete(h.trackers, session)
		}
		count := len(h.trackers)
		h.mu.Unlock()

		h.logger.Info("tracker disconnected", "session", session, "total", count)
	}()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("tracker read error", "session", session, "error", err)
			return
		}

		conn.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(conn, data)
	}
}

// handleMessage processes an incoming message from a tracker
func (h *Hub) handleMessage(conn *Connection, data []byte) {
	session := conn.Session

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.parseErrors.Add(1)
		h.logger.Debug("parse error", "session", session, "error", err)
		h.replyError(conn, err)
		return
	}

	h.mu.RLock()
	gazeCb := h.onGaze
	eyesCb := h.onEyes
	blinkCb := h.onBlink
	settingsCb := h.onSettings
	viewportCb := h.onViewport
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeGaze:
		h.samplesReceived.Add(1)
		if gazeCb != nil {
			d, err := msg.GetGazeData()
			if err != nil {
				h.replyError(conn, err)
				return
			}
			gazeCb(session, d.Sample())
		}

	case protocol.TypeEyes:
		h.samplesReceived.Add(1)
		if eyesCb != nil {
			d, err := msg.GetEyesData()
			if err != nil {
				h.replyError(conn, err)
				return
			}
			eyesCb(session, d)
		}

	case protocol.TypeBlink:
		if blinkCb != nil {
			d, err := msg.GetBlinkData()
			if err != nil {
				h.replyError(conn, err)
				return
			}
			blinkCb(session, protocol.Millis(d.TS))
		}

	case protocol.TypeSettings:
		if settingsCb != nil {
			var patch gaze.SettingsPatch
			if err := msg.ParseData(&patch); err != nil {
				h.replyError(conn, err)
				return
			}
			settingsCb(session, patch)
		}

	case protocol.TypeViewport:
		if viewportCb != nil {
			d, err := msg.GetViewportData()
			if err != nil {
				h.replyError(conn, err)
				return
			}
			viewportCb(session, d.Viewport())
		}

	case protocol.TypePing:
		// Respond with pong
		if pong, err := protocol.NewPongMessage(msg.Timestamp); err == nil {
			h.send(conn, pong)
		}

	default:
		h.logger.Debug("ignoring message", "session", session, "type", msg.Type)
	}
}

func (h *Hub) replyError(conn *Connection, cause error) {
	msg, err := protocol.NewErrorMessage(cause.Error())
	if err != nil {
		return
	}
	h.send(conn, msg)
}

func (h *Hub) send(conn *Connection, msg *protocol.Message) error {
	h.messagesSent.Add(1)
	return conn.Send(msg)
}

// Send sends a message to the tracker attached to a session
func (h *Hub) Send(session string, msg *protocol.Message) error {
	h.mu.RLock()
	conn, ok := h.trackers[session]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, session)
	}
	return h.send(conn, msg)
}

// SendTracking tells a session's tracker to pause or resume
func (h *Hub) SendTracking(session string, active bool) error {
	msg, err := protocol.NewTrackingMessage(active)
	if err != nil {
		return err
	}
	return h.Send(session, msg)
}

// Disconnect closes the tracker attached to a session, if any
func (h *Hub) Disconnect(session string) {
	h.mu.RLock()
	conn, ok := h.trackers[session]
	h.mu.RUnlock()

	if ok {
		conn.Conn.Close()
	}
}

// Connected reports whether a tracker is attached to a session
func (h *Hub) Connected(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.trackers[session]
	return ok
}

// TrackerCount returns the number of connected trackers
func (h *Hub) TrackerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.trackers)
}

// Stats contains hub statistics
type Stats struct {
	TrackerCount     int    `json:"tracker_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	SamplesReceived  uint64 `json:"samples_received"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		TrackerCount:     h.TrackerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		SamplesReceived:  h.samplesReceived.Load(),
		ParseErrors:      h.parseErrors.Load(),
	}
}

// Info contains info about a connected tracker
type Info struct {
	Session   string    `json:"session"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetInfos returns info about all connected trackers
func (h *Hub) GetInfos() []Info {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]Info, 0, len(h.trackers))
	for _, t := range h.trackers {
		t.mu.Lock()
		infos = append(infos, Info{
			Session:   t.Session,
			Connected: t.Connected,
			LastSeen:  t.LastSeen,
		})
		t.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for tracker inspection
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	trackers := api.Group("/trackers")

	// List connected trackers
	trackers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"trackers": h.GetInfos(),
			"count":    h.TrackerCount(),
		})
	})

	// Get hub stats
	trackers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
