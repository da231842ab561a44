package gaze

import "testing"

func blinkAt(ms uint64) BlinkEvent {
	return BlinkEvent{TimestampMs: ms, Source: SourceTracker}
}

func TestPatternDetector_DoubleBlinkPrecedence(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	first := p.OnBlink(blinkAt(1000), true, true)
	second := p.OnBlink(blinkAt(1400), true, true)

	// The first blink is acted on immediately; the pair then yields one
	// NavigateBack and no second Click.
	if first != ActionClick {
		t.Errorf("First blink = %v, want click", first)
	}
	if second != ActionNavigateBack {
		t.Errorf("Second blink = %v, want navigate_back", second)
	}
	if len(p.History()) != 0 {
		t.Errorf("Expected history cleared after double blink, got %v", p.History())
	}
	if p.LastBlinkMs() != 1400 {
		t.Errorf("Expected lastBlinkMs=1400, got %d", p.LastBlinkMs())
	}
}

func TestPatternDetector_WindowBoundary(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())
	p.OnBlink(blinkAt(0), true, false)

	if got := p.OnBlink(blinkAt(500), true, false); got != ActionNavigateBack {
		t.Errorf("Gap of exactly 500ms = %v, want navigate_back", got)
	}

	p.OnBlink(blinkAt(2000), true, false)
	if got := p.OnBlink(blinkAt(2501), true, false); got != ActionNone {
		t.Errorf("Gap of 501ms with single disabled = %v, want none", got)
	}
}

func TestPatternDetector_SingleBlinkFallback(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	clicks := 0
	for _, ts := range []uint64{0, 1200, 2400} {
		if p.OnBlink(blinkAt(ts), true, true) == ActionClick {
			clicks++
		}
	}
	if clicks != 3 {
		t.Errorf("Expected 3 clicks for well-separated blinks, got %d", clicks)
	}
}

func TestPatternDetector_DoubleDisabled(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	a := p.OnBlink(blinkAt(0), false, true)
	b := p.OnBlink(blinkAt(300), false, true)
	if a != ActionClick || b != ActionClick {
		t.Errorf("Expected two clicks with double blink disabled, got %v, %v", a, b)
	}
}

func TestPatternDetector_NothingEnabled(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	if got := p.OnBlink(blinkAt(0), false, false); got != ActionNone {
		t.Errorf("Expected none, got %v", got)
	}
	if len(p.History()) != 1 {
		t.Errorf("Blink should still be recorded, history=%v", p.History())
	}
}

func TestPatternDetector_TripleBlinkStartsFreshCycle(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	got := []Action{
		p.OnBlink(blinkAt(0), true, true),
		p.OnBlink(blinkAt(250), true, true),
		p.OnBlink(blinkAt(500), true, true),
		p.OnBlink(blinkAt(750), true, true),
	}
	want := []Action{ActionClick, ActionNavigateBack, ActionClick, ActionNavigateBack}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Blink %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPatternDetector_PrunesHistory(t *testing.T) {
	p := NewPatternDetector(DefaultConfig())

	p.OnBlink(blinkAt(0), false, true)
	p.OnBlink(blinkAt(600), false, true)
	p.OnBlink(blinkAt(1000), false, true)

	// 0 is exactly 1000ms old and falls out of the window
	h := p.History()
	if len(h) != 2 || h[0] != 600 || h[1] != 1000 {
		t.Errorf("History = %v, want [600 1000]", h)
	}
}
