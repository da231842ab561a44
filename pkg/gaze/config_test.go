package gaze

import (
	"math"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("Expected TickInterval=50ms, got %v", cfg.TickInterval)
	}
	if cfg.DoubleBlinkWindow != 500*time.Millisecond {
		t.Errorf("Expected DoubleBlinkWindow=500ms, got %v", cfg.DoubleBlinkWindow)
	}
	if cfg.MinBlinkInterval != 200*time.Millisecond {
		t.Errorf("Expected MinBlinkInterval=200ms, got %v", cfg.MinBlinkInterval)
	}
	if cfg.ConsecutiveFrames != 2 {
		t.Errorf("Expected ConsecutiveFrames=2, got %v", cfg.ConsecutiveFrames)
	}
	if cfg.historyWindowMs() != 1000 {
		t.Errorf("Expected history window 1000ms, got %v", cfg.historyWindowMs())
	}
}

func TestOpenThreshold(t *testing.T) {
	tests := []struct {
		sensitivity int
		want        float64
	}{
		{1, 0.28},
		{5, 0.2},
		{9, 0.12},
		{10, 0.1},
		{0, 0.28},  // clamped up to 1
		{42, 0.1},  // clamped down to 10
		{-3, 0.28}, // clamped up to 1
	}

	for _, tc := range tests {
		got := Threshold(tc.sensitivity)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Threshold(%d) = %v, want %v", tc.sensitivity, got, tc.want)
		}
	}
}

func TestOpenThreshold_Floor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdStep = 0.05

	if got := cfg.OpenThreshold(10); got != cfg.MinOpenThreshold {
		t.Errorf("Expected threshold floored at %v, got %v", cfg.MinOpenThreshold, got)
	}
}

func TestEdgeThresholdAndScrollAmount(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.EdgeThreshold(5); got != 100 {
		t.Errorf("EdgeThreshold(5) = %v, want 100", got)
	}
	if got := cfg.EdgeThreshold(10); got != 200 {
		t.Errorf("EdgeThreshold(10) = %v, want 200", got)
	}
	if got := cfg.ScrollAmount(5); got != 5 {
		t.Errorf("ScrollAmount(5) = %v, want 5", got)
	}
	if got := cfg.ScrollAmount(1); got != 1 {
		t.Errorf("ScrollAmount(1) = %v, want 1", got)
	}
}

func TestSettingsPatch_Apply(t *testing.T) {
	on := true
	sens := 14

	s := SettingsPatch{AutoScrollEnabled: &on, GazeSensitivity: &sens}.Apply(DefaultSettings())

	if !s.AutoScrollEnabled {
		t.Error("Expected AutoScrollEnabled=true after patch")
	}
	if s.SingleBlinkEnabled || s.DoubleBlinkEnabled {
		t.Error("Unpatched toggles should stay disabled")
	}
	if s.GazeSensitivity != MaxSensitivity {
		t.Errorf("Expected GazeSensitivity clamped to %d, got %d", MaxSensitivity, s.GazeSensitivity)
	}
	if s.BlinkSensitivity != DefaultSensitivity {
		t.Errorf("Expected BlinkSensitivity unchanged at %d, got %d", DefaultSensitivity, s.BlinkSensitivity)
	}
}

func TestSettings_AnyEnabled(t *testing.T) {
	s := DefaultSettings()
	if s.AnyEnabled() {
		t.Error("Default settings should have every feature disabled")
	}

	s.DoubleBlinkEnabled = true
	if !s.AnyEnabled() {
		t.Error("Expected AnyEnabled with double blink on")
	}
}
