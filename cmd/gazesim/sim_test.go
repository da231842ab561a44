package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

func newTestSim(t *testing.T, settings gaze.Settings) (*Sim, *time.Time) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)

	clock := time.UnixMilli(1_000_000)
	sim := NewSim(screen, settings)
	sim.now = func() time.Time { return clock }
	return sim, &clock
}

func TestSettingsKeys(t *testing.T) {
	sim, _ := newTestSim(t, gaze.DefaultSettings())

	for _, r := range "123" {
		sim.handleRune(r)
	}
	sim.handleRune('+')
	sim.handleRune('[')

	got := sim.engine.Settings()
	want := gaze.Settings{
		AutoScrollEnabled:  true,
		SingleBlinkEnabled: true,
		DoubleBlinkEnabled: true,
		GazeSensitivity:    6,
		BlinkSensitivity:   4,
	}
	if got != want {
		t.Errorf("Settings = %+v, want %+v", got, want)
	}

	sim.drainEvents()
	if !sim.tracking {
		t.Error("tracking should resume once a feature is enabled")
	}
}

func TestSensitivityClamped(t *testing.T) {
	sim, _ := newTestSim(t, gaze.Settings{GazeSensitivity: gaze.MaxSensitivity, BlinkSensitivity: gaze.MinSensitivity})

	sim.handleRune('+')
	sim.handleRune('[')

	got := sim.engine.Settings()
	if got.GazeSensitivity != gaze.MaxSensitivity || got.BlinkSensitivity != gaze.MinSensitivity {
		t.Errorf("sensitivities should stay clamped: %+v", got)
	}
}

func TestSpaceClicks(t *testing.T) {
	sim, clock := newTestSim(t, gaze.Settings{SingleBlinkEnabled: true, GazeSensitivity: 5, BlinkSensitivity: 5})

	sim.handleInput(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	sim.drainEvents()

	if sim.blinks != 1 || sim.clicks != 1 {
		t.Errorf("blinks = %d clicks = %d, want 1 and 1", sim.blinks, sim.clicks)
	}

	// Inside the debounce window
	*clock = clock.Add(100 * time.Millisecond)
	sim.handleRune(' ')
	sim.drainEvents()
	if sim.blinks != 1 {
		t.Errorf("debounced blink counted: blinks = %d", sim.blinks)
	}
}

func TestDoubleBlinkKey(t *testing.T) {
	sim, _ := newTestSim(t, gaze.Settings{DoubleBlinkEnabled: true, GazeSensitivity: 5, BlinkSensitivity: 5})
	sim.now = time.Now

	sim.scrollPx = 320
	sim.handleRune('b')

	deadline := time.After(time.Second)
	for sim.navigation == 0 {
		select {
		case ev := <-sim.events:
			sim.apply(ev)
		case <-deadline:
			t.Fatal("double blink did not navigate back")
		}
	}
	if sim.scrollPx != 0 {
		t.Errorf("scrollPx = %v, want 0 after navigate back", sim.scrollPx)
	}
}

func TestMouseAtBottomScrolls(t *testing.T) {
	sim, _ := newTestSim(t, gaze.Settings{AutoScrollEnabled: true, GazeSensitivity: 5, BlinkSensitivity: 5})

	sim.handleInput(tcell.NewEventMouse(10, 24, tcell.ButtonNone, tcell.ModNone))
	sim.drainEvents()

	if sim.scrollPx != 5 {
		t.Errorf("scrollPx = %v, want 5 after first tick", sim.scrollPx)
	}

	sim.engine.Tick()
	sim.drainEvents()
	if sim.scrollPx != 10 || sim.scrolls != 2 {
		t.Errorf("scrollPx = %v scrolls = %d, want 10 and 2", sim.scrollPx, sim.scrolls)
	}

	// Moving to the middle stops on the next tick
	sim.handleInput(tcell.NewEventMouse(10, 12, tcell.ButtonNone, tcell.ModNone))
	sim.engine.Tick()
	sim.drainEvents()
	if sim.engine.ScrollPhase() != gaze.Idle {
		t.Errorf("phase = %s, want idle", sim.engine.ScrollPhase())
	}
}

func TestScrollClampsAtTop(t *testing.T) {
	sim, _ := newTestSim(t, gaze.Settings{AutoScrollEnabled: true, GazeSensitivity: 5, BlinkSensitivity: 5})

	sim.handleInput(tcell.NewEventMouse(10, 0, tcell.ButtonNone, tcell.ModNone))
	sim.drainEvents()

	if sim.scrollPx != 0 {
		t.Errorf("scrollPx = %v, want 0 at top of document", sim.scrollPx)
	}
}

func TestQuitKeys(t *testing.T) {
	sim, _ := newTestSim(t, gaze.DefaultSettings())

	if sim.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Escape should quit")
	}
	if sim.handleRune('q') {
		t.Error("q should quit")
	}
	if !sim.handleRune('x') {
		t.Error("unbound keys should not quit")
	}
}

func TestDrawDoesNotPanic(t *testing.T) {
	sim, _ := newTestSim(t, gaze.Settings{AutoScrollEnabled: true, GazeSensitivity: 5, BlinkSensitivity: 5})
	sim.setFlash("click at line 1")
	sim.draw()
}
