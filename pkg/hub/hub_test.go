package hub

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func startHub(t *testing.T, port string) *Hub {
	t.Helper()

	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", UpgradeOnly)
	app.Get("/ws/events", h.Handler())
	app.Get("/ws/events/:id", h.Handler())

	go app.Listen(":" + port)
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		app.Shutdown()
	})
	return h
}

func TestNew(t *testing.T) {
	h := New("test", nil)

	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestMessageMatches(t *testing.T) {
	tests := []struct {
		msg     string
		client  string
		matches bool
	}{
		{"a", "a", true},
		{"a", "b", false},
		{"", "b", true},
		{"a", "", true},
	}

	for _, tt := range tests {
		m := NewJSONMessage(tt.msg, nil)
		if got := m.matches(tt.client); got != tt.matches {
			t.Errorf("message %q to client %q: matches = %v, want %v", tt.msg, tt.client, got, tt.matches)
		}
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New("test", nil)

	// Nothing drains the channel without Run
	for i := 0; i < cap(h.broadcast)+3; i++ {
		h.Broadcast(NewJSONMessage("", []byte("{}")))
	}

	if h.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", h.Dropped())
	}
}

func TestSessionFiltering(t *testing.T) {
	h := startHub(t, "18091")

	wsA, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws/events/session-a", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer wsA.Close()

	wsB, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws/events/session-b", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer wsB.Close()

	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if h.SessionClientCount("session-a") != 1 {
		t.Errorf("SessionClientCount(session-a) = %d, want 1", h.SessionClientCount("session-a"))
	}

	msg, _ := protocol.NewScrollMessage(gaze.ScrollTick{Direction: gaze.DirectionDown, Amount: 2})
	if err := h.Publish("session-a", msg); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	wsA.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := wsA.ReadMessage()
	if err != nil {
		t.Fatalf("session-a read error: %v", err)
	}
	got, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.Type != protocol.TypeScroll {
		t.Errorf("Type = %s, want scroll", got.Type)
	}

	wsB.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := wsB.ReadMessage(); err == nil {
		t.Error("session-b should not receive session-a events")
	}
}

func TestUnscopedClientReceivesAll(t *testing.T) {
	h := startHub(t, "18092")

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18092/ws/events", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	waitFor(t, func() bool { return h.ClientCount() == 1 })

	msg, _ := protocol.NewActionMessage(gaze.ActionClick, gaze.Sample{X: 10, Y: 20})
	h.Publish("any-session", msg)

	ws.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatalf("read error: %v", err)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h := startHub(t, "18093")

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18093/ws/events/s", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	ws.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestPlainHTTPRejected(t *testing.T) {
	h := New("test", nil)
	app := fiber.New()
	app.Use("/ws", UpgradeOnly)
	app.Get("/ws/events", h.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/events", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}

