package gaze

// Sample is a single gaze observation in viewport pixels.
type Sample struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs uint64  `json:"ts"`
}

// Direction of a scroll.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// ScrollPhase is the state of the scroll state machine.
type ScrollPhase int

const (
	Idle ScrollPhase = iota
	ScrollingUp
	ScrollingDown
)

func (p ScrollPhase) String() string {
	switch p {
	case ScrollingUp:
		return "scrolling_up"
	case ScrollingDown:
		return "scrolling_down"
	default:
		return "idle"
	}
}

// ScrollTick is one scroll step to apply to the viewport.
type ScrollTick struct {
	Direction Direction
	Amount    float64
}

// DeltaY returns the signed vertical offset: negative scrolls up.
func (t ScrollTick) DeltaY() float64 {
	if t.Direction == DirectionUp {
		return -t.Amount
	}
	return t.Amount
}

// ScrollState is a snapshot of the controller.
type ScrollState struct {
	Active    bool
	Direction Direction
	LastGaze  Sample
}

// ScrollController is the edge-dwell scroll state machine.
//
// It never schedules anything itself: the owner calls Tick at a fixed
// cadence, and Tick reports whether a scroll step should be applied.
// At most one scroll loop is active per controller.
type ScrollController struct {
	config Config

	phase    ScrollPhase
	lastGaze Sample
}

// NewScrollController creates an idle controller.
func NewScrollController(config Config) *ScrollController {
	return &ScrollController{config: config}
}

// OnGaze records a gaze sample and starts scrolling if the gaze sits near an
// edge. Returns true only on an Idle to Scrolling transition; samples that
// arrive while a loop is already running just update the gaze position.
func (c *ScrollController) OnGaze(sample Sample, settings Settings, viewportHeight float64) bool {
	c.lastGaze = sample

	if c.phase != Idle || !settings.AutoScrollEnabled {
		return false
	}

	dir, ok := c.edge(sample, settings, viewportHeight)
	if !ok {
		return false
	}

	if dir == DirectionUp {
		c.phase = ScrollingUp
	} else {
		c.phase = ScrollingDown
	}
	return true
}

// Tick runs one step of an active scroll loop. Settings are read fresh on
// every call, so disabling auto-scroll stops the loop on the next tick.
// Returns false and returns to Idle once the dwell condition no longer holds.
func (c *ScrollController) Tick(settings Settings, viewportHeight float64) (ScrollTick, bool) {
	if c.phase == Idle {
		return ScrollTick{}, false
	}

	active := c.direction()
	dir, ok := c.edge(c.lastGaze, settings, viewportHeight)
	if !settings.AutoScrollEnabled || !ok || dir != active {
		c.phase = Idle
		return ScrollTick{}, false
	}

	return ScrollTick{
		Direction: active,
		Amount:    c.config.ScrollAmount(settings.GazeSensitivity),
	}, true
}

// Stop forces the controller back to Idle.
func (c *ScrollController) Stop() {
	c.phase = Idle
}

// Phase returns the current state machine phase.
func (c *ScrollController) Phase() ScrollPhase {
	return c.phase
}

// State returns a snapshot of the controller.
func (c *ScrollController) State() ScrollState {
	return ScrollState{
		Active:    c.phase != Idle,
		Direction: c.direction(),
		LastGaze:  c.lastGaze,
	}
}

func (c *ScrollController) direction() Direction {
	if c.phase == ScrollingDown {
		return DirectionDown
	}
	return DirectionUp
}

// edge evaluates which edge, if any, the gaze is dwelling on.
// A degenerate viewport or non-finite gaze never satisfies an edge.
func (c *ScrollController) edge(s Sample, settings Settings, viewportHeight float64) (Direction, bool) {
	if !finite(viewportHeight) || viewportHeight <= 0 || !finite(s.Y) {
		return DirectionUp, false
	}

	threshold := c.config.EdgeThreshold(settings.GazeSensitivity)
	switch {
	case s.Y < threshold:
		return DirectionUp, true
	case s.Y > viewportHeight-threshold:
		return DirectionDown, true
	default:
		return DirectionUp, false
	}
}
