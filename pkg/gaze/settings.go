package gaze

// Sensitivity bounds shared by gaze and blink sensitivity.
const (
	MinSensitivity     = 1
	MaxSensitivity     = 10
	DefaultSensitivity = 5
)

// Settings are the user-facing feature toggles. The engine only reads them;
// persistence belongs to the session collaborator.
type Settings struct {
	AutoScrollEnabled  bool `json:"auto_scroll"`
	SingleBlinkEnabled bool `json:"single_blink"`
	DoubleBlinkEnabled bool `json:"double_blink"`
	GazeSensitivity    int  `json:"gaze_sensitivity"`  // 1..10
	BlinkSensitivity   int  `json:"blink_sensitivity"` // 1..10
}

// DefaultSettings returns the settings of a fresh session: every feature off,
// both sensitivities at the midpoint.
func DefaultSettings() Settings {
	return Settings{
		GazeSensitivity:  DefaultSensitivity,
		BlinkSensitivity: DefaultSensitivity,
	}
}

// Normalize returns a copy with both sensitivities clamped to range.
func (s Settings) Normalize() Settings {
	s.GazeSensitivity = ClampSensitivity(s.GazeSensitivity)
	s.BlinkSensitivity = ClampSensitivity(s.BlinkSensitivity)
	return s
}

// AnyEnabled reports whether at least one feature needs tracker input.
func (s Settings) AnyEnabled() bool {
	return s.AutoScrollEnabled || s.SingleBlinkEnabled || s.DoubleBlinkEnabled
}

// SettingsPatch is a partial update. Nil fields keep their current value.
type SettingsPatch struct {
	AutoScrollEnabled  *bool `json:"auto_scroll,omitempty"`
	SingleBlinkEnabled *bool `json:"single_blink,omitempty"`
	DoubleBlinkEnabled *bool `json:"double_blink,omitempty"`
	GazeSensitivity    *int  `json:"gaze_sensitivity,omitempty"`
	BlinkSensitivity   *int  `json:"blink_sensitivity,omitempty"`
}

// Apply merges the patch into s and normalizes the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.AutoScrollEnabled != nil {
		s.AutoScrollEnabled = *p.AutoScrollEnabled
	}
	if p.SingleBlinkEnabled != nil {
		s.SingleBlinkEnabled = *p.SingleBlinkEnabled
	}
	if p.DoubleBlinkEnabled != nil {
		s.DoubleBlinkEnabled = *p.DoubleBlinkEnabled
	}
	if p.GazeSensitivity != nil {
		s.GazeSensitivity = *p.GazeSensitivity
	}
	if p.BlinkSensitivity != nil {
		s.BlinkSensitivity = *p.BlinkSensitivity
	}
	return s.Normalize()
}

// ClampSensitivity limits a sensitivity to [MinSensitivity, MaxSensitivity].
func ClampSensitivity(v int) int {
	if v < MinSensitivity {
		return MinSensitivity
	}
	if v > MaxSensitivity {
		return MaxSensitivity
	}
	return v
}
