package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

// Sender delivers one message to the server.
type Sender func(msg *protocol.Message) error

// Replayer streams a recording with its recorded pacing.
type Replayer struct {
	Frames []Frame
	Speed  float64
	Logger *slog.Logger

	// now and sleep are replaced in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReplayer creates a replayer at the given speed multiplier.
func NewReplayer(frames []Frame, speed float64, logger *slog.Logger) *Replayer {
	if speed <= 0 {
		speed = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{
		Frames: frames,
		Speed:  speed,
		Logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Run sends every frame once. Timestamps are rewritten relative to the
// start of the run so the server sees a live stream.
func (r *Replayer) Run(ctx context.Context, send Sender) (int, error) {
	start := r.now()
	sent := 0

	for _, f := range r.Frames {
		due := time.Duration(float64(f.Offset) / r.Speed)
		if wait := due - r.now().Sub(start); wait > 0 {
			if err := r.sleep(ctx, wait); err != nil {
				return sent, err
			}
		}

		msg, err := Restamp(f.Msg, start.Add(due).UnixMilli())
		if err != nil {
			r.Logger.Warn("skipping frame", "type", f.Msg.Type, "error", err)
			continue
		}
		if err := send(msg); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Duration returns how long one pass takes at the configured speed.
func (r *Replayer) Duration() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	return time.Duration(float64(r.Frames[len(r.Frames)-1].Offset) / r.Speed)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
