package protocol

import (
	"time"

	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewGazeMessage creates a gaze sample message
func NewGazeMessage(x, y float64, ts int64) (*Message, error) {
	return NewMessageAt(TypeGaze, ts, GazeData{X: x, Y: y, TS: ts})
}

// NewEyesMessage creates an eye landmark message
func NewEyesMessage(eyes gaze.EyeFeatureSet, ts int64) (*Message, error) {
	return NewMessageAt(TypeEyes, ts, EyesData{
		Left:  FromLandmarks(eyes.Left),
		Right: FromLandmarks(eyes.Right),
		TS:    ts,
	})
}

// NewBlinkMessage creates a tracker blink message
func NewBlinkMessage(ts int64) (*Message, error) {
	return NewMessageAt(TypeBlink, ts, BlinkData{TS: ts})
}

// NewSettingsMessage creates a partial settings update message
func NewSettingsMessage(patch gaze.SettingsPatch) (*Message, error) {
	return NewMessage(TypeSettings, patch)
}

// NewViewportMessage creates a viewport size message
func NewViewportMessage(width, height float64) (*Message, error) {
	return NewMessage(TypeViewport, ViewportData{Width: width, Height: height})
}

// NewTrackingMessage creates a tracking pause/resume message
func NewTrackingMessage(active bool) (*Message, error) {
	return NewMessage(TypeTracking, TrackingData{Active: active})
}

// NewActionMessage creates an action message targeting the last gaze point
func NewActionMessage(action gaze.Action, at gaze.Sample) (*Message, error) {
	return NewMessage(TypeAction, ActionData{
		Action: action.String(),
		X:      at.X,
		Y:      at.Y,
	})
}

// NewScrollMessage creates a scroll step message
func NewScrollMessage(tick gaze.ScrollTick) (*Message, error) {
	return NewMessage(TypeScroll, ScrollData{
		Direction: tick.Direction.String(),
		Amount:    tick.Amount,
		DeltaY:    tick.DeltaY(),
	})
}

// NewStatsMessage creates a stats snapshot message
func NewStatsMessage(stats StatsData) (*Message, error) {
	return NewMessage(TypeStats, stats)
}

// NewPongMessage creates a pong response message
func NewPongMessage(pingTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		PingTS: pingTS,
		PongTS: time.Now().UnixMilli(),
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(msg string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: msg})
}

// =============================================================================
// Conversions to core types
// =============================================================================

// ToLandmarks converts wire [x, y] pairs to a landmark set. Any entry with
// fewer than two numbers makes the whole side degenerate (nil), which the
// core maps to its default openness.
func ToLandmarks(pairs [][]float64) gaze.LandmarkSet {
	if len(pairs) == 0 {
		return nil
	}
	ls := make(gaze.LandmarkSet, len(pairs))
	for i, p := range pairs {
		if len(p) < 2 {
			return nil
		}
		ls[i] = gaze.Point{X: p[0], Y: p[1]}
	}
	return ls
}

// FromLandmarks converts a landmark set to wire [x, y] pairs.
func FromLandmarks(ls gaze.LandmarkSet) [][]float64 {
	if ls == nil {
		return nil
	}
	out := make([][]float64, len(ls))
	for i, p := range ls {
		out[i] = []float64{p.X, p.Y}
	}
	return out
}

// EyeFeatures returns the landmark sets carried by the message.
func (d *EyesData) EyeFeatures() gaze.EyeFeatureSet {
	return gaze.EyeFeatureSet{
		Left:  ToLandmarks(d.Left),
		Right: ToLandmarks(d.Right),
	}
}

// Sample returns the gaze data as a core sample. Negative timestamps clamp to zero.
func (d *GazeData) Sample() gaze.Sample {
	return gaze.Sample{X: d.X, Y: d.Y, TimestampMs: Millis(d.TS)}
}

// Viewport returns the viewport data as a core viewport.
func (d *ViewportData) Viewport() gaze.Viewport {
	return gaze.Viewport{Width: d.Width, Height: d.Height}
}

// Millis converts a wire timestamp to the core's unsigned milliseconds.
func Millis(ts int64) uint64 {
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}
