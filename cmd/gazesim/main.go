// gazesim: terminal gaze simulator.
// The mouse stands in for the eye tracker: pointer position is the gaze,
// Space or a left click is a blink and b is a double blink. The scroll and
// blink classifiers run in-process against a fake document.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/teslashibe/go-eyectl/internal/log"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

func main() {
	logPath := flag.String("log", "", "Write logs to this file (default: discard)")
	logLevel := flag.String("log-level", "debug", "Log level: debug, info, warn, error")
	scroll := flag.Bool("scroll", true, "Start with auto-scroll enabled")
	click := flag.Bool("click", true, "Start with single-blink click enabled")
	back := flag.Bool("back", true, "Start with double-blink navigation enabled")
	sensitivity := flag.Int("sensitivity", gaze.DefaultSensitivity, "Initial gaze and blink sensitivity (1-10)")
	flag.Parse()

	// Log lines would corrupt the screen, so they go to a file or nowhere
	var w io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	log.InitWriter(*logLevel, w)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	sim := NewSim(screen, gaze.Settings{
		AutoScrollEnabled:  *scroll,
		SingleBlinkEnabled: *click,
		DoubleBlinkEnabled: *back,
		GazeSensitivity:    *sensitivity,
		BlinkSensitivity:   *sensitivity,
	})
	sim.Run()
}
