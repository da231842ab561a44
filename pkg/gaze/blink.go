package gaze

// BlinkSource tells where a blink came from.
type BlinkSource int

const (
	// SourceTracker is a blink confirmed from per-frame openness ratios.
	SourceTracker BlinkSource = iota
	// SourceExternal is a blink signaled directly (tracker event, key press, API call).
	SourceExternal
)

func (s BlinkSource) String() string {
	switch s {
	case SourceTracker:
		return "tracker"
	case SourceExternal:
		return "external"
	default:
		return "unknown"
	}
}

// BlinkEvent is a single confirmed blink.
type BlinkEvent struct {
	TimestampMs uint64
	Source      BlinkSource
}

// BlinkClassifier turns per-frame openness ratios into discrete blinks.
//
// A blink is confirmed once the ratio stays below the sensitivity-scaled
// threshold for ConsecutiveFrames frames, and it is emitted only once per
// closure. Both the frame path and the external path share one debounce gate.
type BlinkClassifier struct {
	config Config

	consecutiveClosedFrames int
	isCurrentlyClosed       bool
	lastConfirmedBlinkMs    uint64
	hasConfirmed            bool
}

// NewBlinkClassifier creates a classifier with the given constants.
func NewBlinkClassifier(config Config) *BlinkClassifier {
	return &BlinkClassifier{config: config}
}

// OnFrame feeds one frame's averaged openness ratio.
// Returns the blink confirmed on this frame, if any.
func (b *BlinkClassifier) OnFrame(ratio float64, blinkSensitivity int, nowMs uint64) (BlinkEvent, bool) {
	// Frames inside the debounce window are dropped entirely so a closure
	// that straddles a confirmed blink cannot produce a second one.
	if b.debounced(nowMs) {
		return BlinkEvent{}, false
	}

	if !finite(ratio) {
		ratio = DefaultOpenness
	}

	if ratio >= b.config.OpenThreshold(blinkSensitivity) {
		b.consecutiveClosedFrames = 0
		b.isCurrentlyClosed = false
		return BlinkEvent{}, false
	}

	b.consecutiveClosedFrames++
	if b.consecutiveClosedFrames < b.config.ConsecutiveFrames || b.isCurrentlyClosed {
		return BlinkEvent{}, false
	}

	b.isCurrentlyClosed = true
	return b.confirm(nowMs, SourceTracker), true
}

// OnSignal handles an externally signaled blink. It skips frame
// confirmation but still honors the debounce window.
func (b *BlinkClassifier) OnSignal(nowMs uint64) (BlinkEvent, bool) {
	if b.debounced(nowMs) {
		return BlinkEvent{}, false
	}
	return b.confirm(nowMs, SourceExternal), true
}

// IsClosed reports whether the classifier is inside a confirmed closure.
func (b *BlinkClassifier) IsClosed() bool {
	return b.isCurrentlyClosed
}

// ClosedFrames returns the current run of below-threshold frames.
func (b *BlinkClassifier) ClosedFrames() int {
	return b.consecutiveClosedFrames
}

// Reset clears all state, including the debounce gate.
func (b *BlinkClassifier) Reset() {
	*b = BlinkClassifier{config: b.config}
}

func (b *BlinkClassifier) debounced(nowMs uint64) bool {
	if !b.hasConfirmed {
		return false
	}
	// Out-of-order timestamps are treated as inside the window.
	if nowMs < b.lastConfirmedBlinkMs {
		return true
	}
	return nowMs-b.lastConfirmedBlinkMs < b.config.minBlinkIntervalMs()
}

func (b *BlinkClassifier) confirm(nowMs uint64, source BlinkSource) BlinkEvent {
	b.lastConfirmedBlinkMs = nowMs
	b.hasConfirmed = true
	return BlinkEvent{TimestampMs: nowMs, Source: source}
}
