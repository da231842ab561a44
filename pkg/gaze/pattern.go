package gaze

// Action is a discrete user action derived from blinks.
type Action int

const (
	ActionNone Action = iota
	ActionClick
	ActionNavigateBack
)

func (a Action) String() string {
	switch a {
	case ActionClick:
		return "click"
	case ActionNavigateBack:
		return "navigate_back"
	default:
		return "none"
	}
}

// PatternDetector classifies confirmed blinks as single or double blinks.
// Every blink is acted on immediately; a lone blink is never held back
// waiting for a possible partner.
type PatternDetector struct {
	config Config

	history     []uint64
	lastBlinkMs uint64
}

// NewPatternDetector creates a detector with the given constants.
func NewPatternDetector(config Config) *PatternDetector {
	return &PatternDetector{
		config:  config,
		history: make([]uint64, 0, 4),
	}
}

// OnBlink records a blink and returns the action it triggers.
//
// A double blink consumes both blinks and clears the history, so a third
// blink in quick succession starts a fresh cycle.
func (p *PatternDetector) OnBlink(event BlinkEvent, doubleBlinkEnabled, singleBlinkEnabled bool) Action {
	now := event.TimestampMs
	p.history = append(p.history, now)
	p.prune(now)
	p.lastBlinkMs = now

	if doubleBlinkEnabled && len(p.history) >= 2 {
		prev := p.history[len(p.history)-2]
		if now >= prev && now-prev <= p.config.doubleBlinkWindowMs() {
			p.history = p.history[:0]
			return ActionNavigateBack
		}
	}

	if singleBlinkEnabled {
		return ActionClick
	}
	return ActionNone
}

// History returns a copy of the retained blink timestamps, oldest first.
func (p *PatternDetector) History() []uint64 {
	out := make([]uint64, len(p.history))
	copy(out, p.history)
	return out
}

// LastBlinkMs returns the timestamp of the most recent blink seen.
func (p *PatternDetector) LastBlinkMs() uint64 {
	return p.lastBlinkMs
}

// Reset forgets all history.
func (p *PatternDetector) Reset() {
	p.history = p.history[:0]
	p.lastBlinkMs = 0
}

// prune drops timestamps that fell out of the rolling window ending at now.
func (p *PatternDetector) prune(now uint64) {
	window := p.config.historyWindowMs()
	kept := p.history[:0]
	for _, ts := range p.history {
		if ts > now || now-ts < window {
			kept = append(kept, ts)
		}
	}
	p.history = kept
}
