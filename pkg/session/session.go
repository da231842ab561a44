// Package session persists per-session settings and statistics.
// The gaze engine never persists anything; this is the collaborator that
// accumulates its stat increments and stores the settings it reads.
package session

import (
	"time"

	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

// Counter identifies a statistic.
type Counter int

const (
	CounterBlink Counter = iota
	CounterScroll
	CounterClick
	CounterNavigation
)

func (c Counter) String() string {
	switch c {
	case CounterBlink:
		return "blink"
	case CounterScroll:
		return "scroll"
	case CounterClick:
		return "click"
	case CounterNavigation:
		return "navigation"
	default:
		return "unknown"
	}
}

// Stats are the accumulated counters of a session.
type Stats struct {
	BlinkCount      uint64    `json:"blink_count"`
	ScrollCount     uint64    `json:"scroll_count"`
	ClickCount      uint64    `json:"click_count"`
	NavigationCount uint64    `json:"navigation_count"`
	SessionStart    time.Time `json:"session_start"`
}

// Session is one user's settings and stats.
type Session struct {
	ID        string        `json:"id"`
	Settings  gaze.Settings `json:"settings"`
	Stats     Stats         `json:"stats"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New creates a session with the given ID, default settings and zeroed stats.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:       id,
		Settings: gaze.DefaultSettings(),
		Stats: Stats{
			SessionStart: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Increment bumps one counter.
func (s *Stats) Increment(c Counter) {
	switch c {
	case CounterBlink:
		s.BlinkCount++
	case CounterScroll:
		s.ScrollCount++
	case CounterClick:
		s.ClickCount++
	case CounterNavigation:
		s.NavigationCount++
	}
}

// CounterForStat maps an engine stat kind to its counter.
func CounterForStat(k gaze.StatKind) Counter {
	if k == gaze.StatScroll {
		return CounterScroll
	}
	return CounterBlink
}

// CounterForAction maps an engine action to its counter.
func CounterForAction(a gaze.Action) (Counter, bool) {
	switch a {
	case gaze.ActionClick:
		return CounterClick, true
	case gaze.ActionNavigateBack:
		return CounterNavigation, true
	default:
		return 0, false
	}
}
