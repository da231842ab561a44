package gaze

import "time"

// Config holds the tunable constants of the classifiers.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// Scroll
	BaseThreshold float64       // Edge distance in pixels at gaze sensitivity 5
	BaseSpeed     float64       // Scroll step in pixels at gaze sensitivity 2
	TickInterval  time.Duration // Cadence of scroll ticks while active

	// Blink
	DoubleBlinkWindow time.Duration // Max gap between two blinks of a double blink
	MinBlinkInterval  time.Duration // Debounce between confirmed blinks
	ConsecutiveFrames int           // Closed frames required to confirm a blink
	BaseOpenThreshold float64       // Openness threshold before sensitivity scaling
	ThresholdStep     float64       // Threshold reduction per sensitivity step
	MinOpenThreshold  float64       // Floor for the scaled threshold
}

// DefaultConfig returns the stock constants.
func DefaultConfig() Config {
	return Config{
		BaseThreshold: 100,
		BaseSpeed:     2,
		TickInterval:  50 * time.Millisecond,

		DoubleBlinkWindow: 500 * time.Millisecond,
		MinBlinkInterval:  200 * time.Millisecond,
		ConsecutiveFrames: 2,
		BaseOpenThreshold: 0.3,
		ThresholdStep:     0.02,
		MinOpenThreshold:  0.1,
	}
}

// OpenThreshold returns the openness ratio below which an eye counts as closed.
// Higher sensitivity lowers the threshold, making blinks easier to trigger.
func (c Config) OpenThreshold(blinkSensitivity int) float64 {
	s := float64(ClampSensitivity(blinkSensitivity))
	return max(c.MinOpenThreshold, c.BaseOpenThreshold-s*c.ThresholdStep)
}

// EdgeThreshold returns the distance from a viewport edge that triggers scrolling.
func (c Config) EdgeThreshold(gazeSensitivity int) float64 {
	return c.BaseThreshold * (float64(ClampSensitivity(gazeSensitivity)) / 5)
}

// ScrollAmount returns the pixels scrolled per tick.
func (c Config) ScrollAmount(gazeSensitivity int) float64 {
	return c.BaseSpeed * (float64(ClampSensitivity(gazeSensitivity)) / 2)
}

// Threshold is OpenThreshold under DefaultConfig.
func Threshold(blinkSensitivity int) float64 {
	return DefaultConfig().OpenThreshold(blinkSensitivity)
}

func (c Config) doubleBlinkWindowMs() uint64 {
	return uint64(c.DoubleBlinkWindow.Milliseconds())
}

func (c Config) minBlinkIntervalMs() uint64 {
	return uint64(c.MinBlinkInterval.Milliseconds())
}

// historyWindowMs is how long blink timestamps stay in the pattern history.
func (c Config) historyWindowMs() uint64 {
	return 2 * c.doubleBlinkWindowMs()
}
