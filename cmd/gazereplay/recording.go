package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

// Frame is one recorded tracker message and its offset from the first one.
type Frame struct {
	Offset time.Duration
	Msg    *protocol.Message
}

// ReadRecording parses a JSONL recording of tracker messages. Blank lines
// and lines starting with # are skipped. Messages without a timestamp
// inherit the previous one.
func ReadRecording(r io.Reader) ([]Frame, error) {
	var frames []Frame
	var first, last int64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		msg, err := protocol.ParseMessage(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if msg.Timestamp == 0 {
			msg.Timestamp = last
		}
		if len(frames) == 0 {
			first = msg.Timestamp
		}
		if msg.Timestamp < last {
			return nil, fmt.Errorf("line %d: timestamp %d goes backwards", line, msg.Timestamp)
		}
		last = msg.Timestamp

		frames = append(frames, Frame{
			Offset: time.Duration(msg.Timestamp-first) * time.Millisecond,
			Msg:    msg,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return frames, nil
}

// Restamp returns a copy of msg moved to ts, including the sample time
// carried inside gaze, eyes and blink payloads.
func Restamp(msg *protocol.Message, ts int64) (*protocol.Message, error) {
	switch msg.Type {
	case protocol.TypeGaze:
		d, err := msg.GetGazeData()
		if err != nil {
			return nil, err
		}
		d.TS = ts
		return protocol.NewMessageAt(msg.Type, ts, d)

	case protocol.TypeEyes:
		d, err := msg.GetEyesData()
		if err != nil {
			return nil, err
		}
		d.TS = ts
		return protocol.NewMessageAt(msg.Type, ts, d)

	case protocol.TypeBlink:
		return protocol.NewBlinkMessage(ts)

	default:
		out := *msg
		out.Timestamp = ts
		return &out, nil
	}
}
