package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

const (
	// cellHeight is how many viewport pixels one terminal row stands for
	cellHeight = 16
	cellWidth  = 8

	// doubleBlinkGap separates the two signals sent by the double blink key
	doubleBlinkGap = 250 * time.Millisecond

	flashDuration = 600 * time.Millisecond
	documentLines = 400
)

// engineEvent is an engine callback queued for the UI loop.
type engineEvent struct {
	action   gaze.Action
	tick     *gaze.ScrollTick
	stat     *gaze.StatKind
	tracking *bool
}

// Sim drives a gaze engine from terminal input and renders a fake document.
type Sim struct {
	screen tcell.Screen
	engine *gaze.Engine
	events chan engineEvent
	now    func() time.Time

	width, height int

	scrollPx   float64
	mouseX     int
	mouseY     int
	blinks     uint64
	scrolls    uint64
	clicks     uint64
	navigation uint64
	tracking   bool

	flash      string
	flashUntil time.Time
}

// NewSim creates a simulator on an initialized screen.
func NewSim(screen tcell.Screen, settings gaze.Settings) *Sim {
	s := &Sim{
		screen: screen,
		events: make(chan engineEvent, 64),
		now:    time.Now,
	}
	s.engine = gaze.NewEngine(
		gaze.WithSettings(settings),
		gaze.WithCallbacks(gaze.Callbacks{
			OnAction: func(a gaze.Action) {
				s.queue(engineEvent{action: a})
			},
			OnScrollTick: func(t gaze.ScrollTick) {
				s.queue(engineEvent{tick: &t})
			},
			OnStatIncrement: func(k gaze.StatKind) {
				s.queue(engineEvent{stat: &k})
			},
			OnTrackingChange: func(active bool) {
				s.queue(engineEvent{tracking: &active})
			},
		}),
	)
	s.tracking = s.engine.TrackingActive()
	s.resize()
	return s
}

func (s *Sim) queue(ev engineEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Sim) nowMs() uint64 {
	return uint64(s.now().UnixMilli())
}

func (s *Sim) resize() {
	s.width, s.height = s.screen.Size()
	s.engine.SetViewport(gaze.Viewport{
		Width:  float64(s.width * cellWidth),
		Height: float64(s.height * cellHeight),
	})
}

// Run processes input until the user quits.
func (s *Sim) Run() {
	ticker := time.NewTicker(s.engine.Config().TickInterval)
	defer ticker.Stop()

	input := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			input <- ev
		}
	}()

	s.draw()
	for {
		select {
		case ev := <-input:
			if !s.handleInput(ev) {
				return
			}
		case ev := <-s.events:
			s.apply(ev)
		case <-ticker.C:
			s.engine.Tick()
		}
		s.drainEvents()
		s.draw()
	}
}

func (s *Sim) drainEvents() {
	for {
		select {
		case ev := <-s.events:
			s.apply(ev)
		default:
			return
		}
	}
}

// apply updates the document for one engine event.
func (s *Sim) apply(ev engineEvent) {
	switch {
	case ev.stat != nil:
		if *ev.stat == gaze.StatBlink {
			s.blinks++
		} else {
			s.scrolls++
		}
	case ev.tick != nil:
		s.scrollPx += ev.tick.DeltaY()
		maxPx := float64((documentLines - s.height) * cellHeight)
		s.scrollPx = min(max(s.scrollPx, 0), max(maxPx, 0))
	case ev.tracking != nil:
		s.tracking = *ev.tracking
	case ev.action == gaze.ActionClick:
		s.clicks++
		s.setFlash(fmt.Sprintf("click at line %d", s.lineAt(s.mouseY)+1))
	case ev.action == gaze.ActionNavigateBack:
		s.navigation++
		s.scrollPx = 0
		s.setFlash("navigate back")
	}
}

func (s *Sim) setFlash(msg string) {
	s.flash = msg
	s.flashUntil = s.now().Add(flashDuration)
}

func (s *Sim) lineAt(row int) int {
	return int(s.scrollPx)/cellHeight + row
}

// handleInput returns false when the simulator should exit.
func (s *Sim) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		return s.handleRune(ev.Rune())

	case *tcell.EventMouse:
		x, y := ev.Position()
		s.mouseX, s.mouseY = x, y
		s.engine.PushGazeSample(gaze.Sample{
			X:           float64(x*cellWidth + cellWidth/2),
			Y:           float64(y*cellHeight + cellHeight/2),
			TimestampMs: s.nowMs(),
		})
		if ev.Buttons()&tcell.Button1 != 0 {
			s.engine.PushExternalBlinkSignal(s.nowMs())
		}

	case *tcell.EventResize:
		s.screen.Sync()
		s.resize()
	}
	return true
}

func (s *Sim) handleRune(r rune) bool {
	settings := s.engine.Settings()

	switch r {
	case 'q':
		return false
	case ' ':
		s.engine.PushExternalBlinkSignal(s.nowMs())
	case 'b':
		s.engine.PushExternalBlinkSignal(s.nowMs())
		time.AfterFunc(doubleBlinkGap, func() {
			s.engine.PushExternalBlinkSignal(s.nowMs())
		})
	case '1':
		settings.AutoScrollEnabled = !settings.AutoScrollEnabled
	case '2':
		settings.SingleBlinkEnabled = !settings.SingleBlinkEnabled
	case '3':
		settings.DoubleBlinkEnabled = !settings.DoubleBlinkEnabled
	case '+', '=':
		settings.GazeSensitivity++
	case '-':
		settings.GazeSensitivity--
	case ']':
		settings.BlinkSensitivity++
	case '[':
		settings.BlinkSensitivity--
	default:
		return true
	}

	if settings != s.engine.Settings() {
		s.engine.UpdateSettings(settings)
	}
	return true
}

func (s *Sim) draw() {
	s.screen.Clear()

	textStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for row := 0; row < s.height-1; row++ {
		line := s.lineAt(row)
		if line >= documentLines {
			break
		}
		s.print(0, row, textStyle, fmt.Sprintf("%4d  %s", line+1, loremLine(line)))
	}

	s.drawEdges()

	if s.mouseY >= 0 && s.mouseY < s.height-1 {
		s.screen.SetContent(s.mouseX, s.mouseY, '◉', nil,
			tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}

	s.drawStatus()
	s.screen.Show()
}

// drawEdges shades the rows inside the scroll threshold.
func (s *Sim) drawEdges() {
	settings := s.engine.Settings()
	threshold := s.engine.Config().EdgeThreshold(settings.GazeSensitivity)
	rows := int(threshold) / cellHeight
	if !settings.AutoScrollEnabled || rows <= 0 {
		return
	}

	style := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	for row := 0; row < rows && row < s.height-1; row++ {
		s.shadeRow(row, style)
		s.shadeRow(s.height-2-row, style)
	}
}

func (s *Sim) shadeRow(row int, style tcell.Style) {
	if row < 0 {
		return
	}
	for x := 0; x < s.width; x++ {
		mainc, combc, _, _ := s.screen.GetContent(x, row)
		s.screen.SetContent(x, row, mainc, combc, style)
	}
}

func (s *Sim) drawStatus() {
	settings := s.engine.Settings()
	phase := s.engine.ScrollPhase().String()
	status := fmt.Sprintf(" [1]scroll:%s [2]click:%s [3]back:%s  gaze±:%d blink[]:%d  %s  blinks:%d scrolls:%d clicks:%d back:%d",
		onOff(settings.AutoScrollEnabled),
		onOff(settings.SingleBlinkEnabled),
		onOff(settings.DoubleBlinkEnabled),
		settings.GazeSensitivity,
		settings.BlinkSensitivity,
		phase,
		s.blinks, s.scrolls, s.clicks, s.navigation)
	if !s.tracking {
		status += "  (tracking paused)"
	}
	if s.flash != "" && s.now().Before(s.flashUntil) {
		status += "  » " + s.flash
	}

	style := tcell.StyleDefault.Reverse(true)
	s.print(0, s.height-1, style, status+strings.Repeat(" ", max(s.width-len(status), 0)))
}

func (s *Sim) print(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= s.width {
			return
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

var lorem = strings.Fields("lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor incididunt ut labore et dolore magna aliqua")

func loremLine(n int) string {
	words := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		words = append(words, lorem[(n*7+i*3)%len(lorem)])
	}
	return strings.Join(words, " ")
}
