package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

// Timeline renders a recording as gaze height over time with blink markers.
func Timeline(frames []Frame, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d messages", len(frames)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "ms",
			Type: "value",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "gaze y (px)",
			Type: "value",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	gazeItems := make([]opts.LineData, 0)
	blinkItems := make([]opts.ScatterData, 0)
	lastY := 0.0

	for _, f := range frames {
		ms := f.Offset.Milliseconds()
		switch f.Msg.Type {
		case protocol.TypeGaze:
			d, err := f.Msg.GetGazeData()
			if err != nil {
				continue
			}
			lastY = d.Y
			gazeItems = append(gazeItems, opts.LineData{Value: []interface{}{ms, d.Y}})
		case protocol.TypeBlink:
			blinkItems = append(blinkItems, opts.ScatterData{Value: []interface{}{ms, lastY}})
		}
	}

	line.AddSeries("gaze", gazeItems).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))

	blinks := charts.NewScatter()
	blinks.AddSeries("blink", blinkItems)
	line.Overlap(blinks)

	return line
}

// WriteTimeline renders the timeline as a standalone HTML page.
func WriteTimeline(w io.Writer, frames []Frame, title string) error {
	return Timeline(frames, title).Render(w)
}
