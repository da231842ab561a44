package gaze

import (
	"log/slog"
	"sync"
)

// StatKind identifies a statistics counter the host accumulates.
type StatKind int

const (
	StatBlink StatKind = iota
	StatScroll
)

func (k StatKind) String() string {
	if k == StatScroll {
		return "scroll"
	}
	return "blink"
}

// Callbacks receive the engine's outbound events. Nil fields are skipped.
// Callbacks run on the caller's goroutine after the engine lock is
// released, in emission order. They must not call Push*, Tick or
// UpdateSettings synchronously.
type Callbacks struct {
	OnAction         func(Action)
	OnScrollTick     func(ScrollTick)
	OnStatIncrement  func(StatKind)
	OnTrackingChange func(active bool)
}

// Viewport is the host's visible area in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the classifier constants.
func WithConfig(c Config) Option {
	return func(e *Engine) { e.config = c }
}

// WithSettings sets the initial settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s.Normalize() }
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(e *Engine) { e.viewport = v }
}

// WithCallbacks sets the outbound callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(e *Engine) { e.callbacks = cb }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine wires the four classifiers together behind the inbound and
// outbound interfaces the host uses. It is safe for concurrent use: sample
// delivery, settings updates and the scroll scheduler may run on different
// goroutines, and calls are applied in the order they acquire the lock.
type Engine struct {
	mu         sync.Mutex
	dispatchMu sync.Mutex

	config    Config
	settings  Settings
	viewport  Viewport
	callbacks Callbacks
	logger    *slog.Logger

	blinks  *BlinkClassifier
	pattern *PatternDetector
	scroll  *ScrollController

	trackingActive bool
}

// NewEngine creates an engine with default constants and settings.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		config:   DefaultConfig(),
		settings: DefaultSettings(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.blinks = NewBlinkClassifier(e.config)
	e.pattern = NewPatternDetector(e.config)
	e.scroll = NewScrollController(e.config)
	e.trackingActive = e.settings.AnyEnabled()
	return e
}

// event is a queued outbound notification.
type event struct {
	action   Action
	tick     *ScrollTick
	stat     *StatKind
	tracking *bool
}

// PushGazeSample feeds one gaze observation. A sample that starts a scroll
// loop emits the loop's first tick immediately.
func (e *Engine) PushGazeSample(s Sample) {
	e.mu.Lock()
	if !e.trackingActive {
		e.mu.Unlock()
		return
	}

	var events []event
	if e.scroll.OnGaze(s, e.settings, e.viewport.Height) {
		e.logger.Debug("scroll started",
			"direction", e.scroll.State().Direction,
			"y", s.Y,
			"threshold", e.config.EdgeThreshold(e.settings.GazeSensitivity))
		events = e.tickLocked(events)
	}
	e.dispatch(events)
}

// PushEyeFeatures feeds one frame of eye landmarks.
func (e *Engine) PushEyeFeatures(eyes EyeFeatureSet, nowMs uint64) {
	e.PushOpenness(AverageOpenness(eyes), nowMs)
}

// PushOpenness feeds one frame's averaged openness ratio, for trackers that
// compute the ratio themselves.
func (e *Engine) PushOpenness(ratio float64, nowMs uint64) {
	e.mu.Lock()
	if !e.trackingActive {
		e.mu.Unlock()
		return
	}

	var events []event
	if blink, ok := e.blinks.OnFrame(ratio, e.settings.BlinkSensitivity, nowMs); ok {
		events = e.blinkLocked(blink, events)
	}
	e.dispatch(events)
}

// PushExternalBlinkSignal feeds a blink reported directly by the tracker or
// a manual trigger. It bypasses frame confirmation but not the debounce.
func (e *Engine) PushExternalBlinkSignal(nowMs uint64) {
	e.mu.Lock()
	var events []event
	if blink, ok := e.blinks.OnSignal(nowMs); ok {
		events = e.blinkLocked(blink, events)
	}
	e.dispatch(events)
}

// Tick advances an active scroll loop by one step. The owner calls it every
// Config.TickInterval; it is a no-op while idle.
func (e *Engine) Tick() {
	e.mu.Lock()
	events := e.tickLocked(nil)
	e.dispatch(events)
}

// UpdateSettings replaces the settings. They take effect on the next
// sample, frame or tick.
func (e *Engine) UpdateSettings(s Settings) {
	e.mu.Lock()
	events := e.setSettingsLocked(s.Normalize(), nil)
	e.dispatch(events)
}

// ApplySettingsPatch merges a partial update and returns the result.
func (e *Engine) ApplySettingsPatch(p SettingsPatch) Settings {
	e.mu.Lock()
	next := p.Apply(e.settings)
	events := e.setSettingsLocked(next, nil)
	e.dispatch(events)
	return next
}

// SetViewport updates the viewport used for edge detection.
func (e *Engine) SetViewport(v Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = v
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// ScrollState returns a snapshot of the scroll controller.
func (e *Engine) ScrollState() ScrollState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scroll.State()
}

// ScrollPhase returns the scroll state machine phase.
func (e *Engine) ScrollPhase() ScrollPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scroll.Phase()
}

// BlinkHistory returns the pattern detector's retained blink timestamps.
func (e *Engine) BlinkHistory() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.History()
}

// TrackingActive reports whether any feature currently consumes tracker input.
func (e *Engine) TrackingActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trackingActive
}

// Config returns the engine constants.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) blinkLocked(blink BlinkEvent, events []event) []event {
	stat := StatBlink
	events = append(events, event{stat: &stat})

	action := e.pattern.OnBlink(blink, e.settings.DoubleBlinkEnabled, e.settings.SingleBlinkEnabled)
	e.logger.Debug("blink",
		"ts", blink.TimestampMs,
		"source", blink.Source,
		"action", action)
	if action != ActionNone {
		events = append(events, event{action: action})
	}
	return events
}

func (e *Engine) tickLocked(events []event) []event {
	tick, ok := e.scroll.Tick(e.settings, e.viewport.Height)
	if !ok {
		return events
	}
	stat := StatScroll
	return append(events, event{tick: &tick}, event{stat: &stat})
}

func (e *Engine) setSettingsLocked(next Settings, events []event) []event {
	e.settings = next

	active := next.AnyEnabled()
	if active == e.trackingActive {
		return events
	}
	e.trackingActive = active
	if !active {
		e.scroll.Stop()
		e.blinks.Reset()
		e.pattern.Reset()
	}
	e.logger.Debug("tracking changed", "active", active)
	return append(events, event{tracking: &active})
}

// dispatch releases the engine lock and delivers events in order. It must
// be called with e.mu held.
func (e *Engine) dispatch(events []event) {
	if len(events) == 0 {
		e.mu.Unlock()
		return
	}

	e.dispatchMu.Lock()
	cb := e.callbacks
	e.mu.Unlock()
	defer e.dispatchMu.Unlock()

	for _, ev := range events {
		switch {
		case ev.tick != nil:
			if cb.OnScrollTick != nil {
				cb.OnScrollTick(*ev.tick)
			}
		case ev.stat != nil:
			if cb.OnStatIncrement != nil {
				cb.OnStatIncrement(*ev.stat)
			}
		case ev.tracking != nil:
			if cb.OnTrackingChange != nil {
				cb.OnTrackingChange(*ev.tracking)
			}
		case ev.action != ActionNone:
			if cb.OnAction != nil {
				cb.OnAction(ev.action)
			}
		}
	}
}
