// Package protocol defines the WebSocket message types exchanged between
// eye trackers, the eyectl server and the host that applies actions.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Tracker → Server messages
	TypeGaze     MessageType = "gaze"     // Gaze position sample
	TypeEyes     MessageType = "eyes"     // Per-frame eye landmarks or openness
	TypeBlink    MessageType = "blink"    // Blink detected by the tracker itself
	TypeSettings MessageType = "settings" // Partial settings update
	TypeViewport MessageType = "viewport" // Host viewport size

	// Server → Tracker messages
	TypeTracking MessageType = "tracking" // Pause or resume tracking

	// Server → Host messages
	TypeAction MessageType = "action" // Click or navigate back
	TypeScroll MessageType = "scroll" // One scroll step
	TypeStats  MessageType = "stats"  // Updated session statistics

	// Bidirectional
	TypePing  MessageType = "ping"  // Health check
	TypePong  MessageType = "pong"  // Health check response
	TypeError MessageType = "error" // Rejected input
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	return NewMessageAt(msgType, time.Now().UnixMilli(), data)
}

// NewMessageAt creates a new message with an explicit timestamp.
func NewMessageAt(msgType MessageType, ts int64, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: ts,
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Tracker → Server Message Types
// =============================================================================

// GazeData is a gaze position in viewport pixels.
type GazeData struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	TS int64   `json:"ts,omitempty"` // Sample time, defaults to the envelope ts
}

// EyesData carries one frame of eye features. Landmarks are [x, y] pairs in
// tracker order; trackers that compute openness themselves send Openness.
type EyesData struct {
	Left     [][]float64 `json:"left,omitempty"`
	Right    [][]float64 `json:"right,omitempty"`
	Openness *float64    `json:"openness,omitempty"`
	TS       int64       `json:"ts,omitempty"`
}

// BlinkData is a blink the tracker detected on its own.
type BlinkData struct {
	TS int64 `json:"ts,omitempty"`
}

// ViewportData is the host's visible area in pixels.
type ViewportData struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// =============================================================================
// Server → Tracker / Host Message Types
// =============================================================================

// TrackingData tells the tracker whether any feature needs its output.
type TrackingData struct {
	Active bool `json:"active"`
}

// ActionData is a classified blink action. X/Y is the last gaze position,
// which the host uses as the click target when nothing is focused.
type ActionData struct {
	Action string  `json:"action"` // "click", "navigate_back"
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ScrollData is one scroll step.
type ScrollData struct {
	Direction string  `json:"direction"` // "up", "down"
	Amount    float64 `json:"amount"`
	DeltaY    float64 `json:"delta_y"`
}

// StatsData is a snapshot of session statistics.
type StatsData struct {
	BlinkCount      uint64 `json:"blink_count"`
	ScrollCount     uint64 `json:"scroll_count"`
	ClickCount      uint64 `json:"click_count"`
	NavigationCount uint64 `json:"navigation_count"`
	SessionStart    int64  `json:"session_start"` // Unix milliseconds
}

// PongData answers a ping.
type PongData struct {
	PingTS int64 `json:"ping_ts"`
	PongTS int64 `json:"pong_ts"`
}

// ErrorData reports rejected input back to the sender.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Message Parsing Helpers
// =============================================================================

// GetGazeData parses gaze data from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if data.TS == 0 {
		data.TS = m.Timestamp
	}
	return &data, nil
}

// GetEyesData parses eye feature data from a message
func (m *Message) GetEyesData() (*EyesData, error) {
	var data EyesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if data.TS == 0 {
		data.TS = m.Timestamp
	}
	return &data, nil
}

// GetBlinkData parses blink data from a message
func (m *Message) GetBlinkData() (*BlinkData, error) {
	var data BlinkData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if data.TS == 0 {
		data.TS = m.Timestamp
	}
	return &data, nil
}

// GetViewportData parses viewport data from a message
func (m *Message) GetViewportData() (*ViewportData, error) {
	var data ViewportData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTrackingData parses tracking control data from a message
func (m *Message) GetTrackingData() (*TrackingData, error) {
	var data TrackingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetActionData parses action data from a message
func (m *Message) GetActionData() (*ActionData, error) {
	var data ActionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetScrollData parses scroll data from a message
func (m *Message) GetScrollData() (*ScrollData, error) {
	var data ScrollData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatsData parses stats data from a message
func (m *Message) GetStatsData() (*StatsData, error) {
	var data StatsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
