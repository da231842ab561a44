// Package control owns one gaze engine per session and connects it to the
// session store, the event hub and the tracker hub.
package control

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
	"github.com/teslashibe/go-eyectl/pkg/session"
)

// Publisher delivers outbound events to the host.
type Publisher interface {
	Publish(session string, msg *protocol.Message) error
}

// TrackerLink tells a session's tracker to pause or resume.
type TrackerLink interface {
	SendTracking(session string, active bool) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig overrides the engine constants.
func WithConfig(c gaze.Config) Option {
	return func(m *Manager) { m.config = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithTracker sets the tracker link used for tracking pause/resume.
func WithTracker(t TrackerLink) Option {
	return func(m *Manager) { m.tracker = t }
}

// Manager keeps a live engine for every session that has received input.
type Manager struct {
	store   session.Store
	events  Publisher
	tracker TrackerLink
	config  gaze.Config
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*controlled

	// settingsMu serializes read-modify-write settings updates
	settingsMu sync.Mutex
}

// controlled is one session's engine and its scroll loop.
type controlled struct {
	id     string
	engine *gaze.Engine
	wake   chan struct{}
	cancel context.CancelFunc

	mu       sync.Mutex
	lastGaze gaze.Sample
}

// NewManager creates a manager. Close stops every scroll loop.
func NewManager(store session.Store, events Publisher, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:    store,
		events:   events,
		config:   gaze.DefaultConfig(),
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*controlled),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close stops all scroll loops and waits for them to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// Engine returns the session's engine, creating it from the stored
// settings on first use.
func (m *Manager) Engine(id string) (*gaze.Engine, error) {
	c, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return c.engine, nil
}

func (m *Manager) get(id string) (*controlled, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[id]; ok {
		return c, nil
	}
	if m.ctx.Err() != nil {
		return nil, m.ctx.Err()
	}

	sess, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(m.ctx)
	c := &controlled{
		id:     id,
		wake:   make(chan struct{}, 1),
		cancel: cancel,
	}
	c.engine = gaze.NewEngine(
		gaze.WithConfig(m.config),
		gaze.WithSettings(sess.Settings),
		gaze.WithLogger(m.logger.With("session", id)),
		gaze.WithCallbacks(m.callbacks(c)),
	)
	m.sessions[id] = c

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.scrollLoop(ctx, c)
	}()

	m.logger.Debug("engine started", "session", id)
	return c, nil
}

// Gaze feeds a gaze sample.
func (m *Manager) Gaze(id string, s gaze.Sample) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.lastGaze = s
	c.mu.Unlock()

	c.engine.PushGazeSample(s)
	return nil
}

// Eyes feeds one frame of eye features. An explicit openness ratio takes
// precedence over landmarks.
func (m *Manager) Eyes(id string, d *protocol.EyesData) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	ts := protocol.Millis(d.TS)
	if d.Openness != nil {
		c.engine.PushOpenness(*d.Openness, ts)
		return nil
	}
	c.engine.PushEyeFeatures(d.EyeFeatures(), ts)
	return nil
}

// Blink feeds an externally signaled blink. A zero timestamp means now.
func (m *Manager) Blink(id string, ts uint64) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	if ts == 0 {
		ts = uint64(time.Now().UnixMilli())
	}
	c.engine.PushExternalBlinkSignal(ts)
	return nil
}

// Viewport updates the host viewport.
func (m *Manager) Viewport(id string, v gaze.Viewport) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	c.engine.SetViewport(v)
	return nil
}

// UpdateSettings persists and applies a full settings replacement.
func (m *Manager) UpdateSettings(id string, s gaze.Settings) (session.Session, error) {
	m.settingsMu.Lock()
	defer m.settingsMu.Unlock()
	return m.updateSettings(id, s)
}

func (m *Manager) updateSettings(id string, s gaze.Settings) (session.Session, error) {
	sess, err := m.store.UpdateSettings(id, s)
	if err != nil {
		return session.Session{}, err
	}
	if c := m.lookup(id); c != nil {
		c.engine.UpdateSettings(sess.Settings)
	}
	return sess, nil
}

// PatchSettings merges a partial update into the stored settings,
// persists it and applies it.
func (m *Manager) PatchSettings(id string, p gaze.SettingsPatch) (session.Session, error) {
	m.settingsMu.Lock()
	defer m.settingsMu.Unlock()

	current, err := m.store.Get(id)
	if err != nil {
		return session.Session{}, err
	}
	return m.updateSettings(id, p.Apply(current.Settings))
}

// State is a snapshot of a live engine.
type State struct {
	Active         bool          `json:"active"`
	TrackingActive bool          `json:"tracking_active"`
	Phase          string        `json:"phase"`
	Direction      string        `json:"direction,omitempty"`
	LastGaze       gaze.Sample   `json:"last_gaze"`
	Viewport       gaze.Viewport `json:"viewport"`
	BlinkHistory   []uint64      `json:"blink_history"`
}

// State returns the live engine snapshot, if the session has one.
func (m *Manager) State(id string) (State, bool) {
	c := m.lookup(id)
	if c == nil {
		return State{}, false
	}
	e := c.engine
	scroll := e.ScrollState()
	st := State{
		Active:         scroll.Active,
		TrackingActive: e.TrackingActive(),
		Phase:          e.ScrollPhase().String(),
		LastGaze:       scroll.LastGaze,
		Viewport:       e.Viewport(),
		BlinkHistory:   e.BlinkHistory(),
	}
	if scroll.Active {
		st.Direction = scroll.Direction.String()
	}
	return st, true
}

// SyncTracking sends the session's current tracking state to its tracker.
// Used when a tracker (re)connects.
func (m *Manager) SyncTracking(id string) {
	c, err := m.get(id)
	if err != nil {
		m.logger.Debug("tracking sync skipped", "session", id, "error", err)
		return
	}
	m.sendTracking(id, c.engine.TrackingActive())
}

// Remove stops and forgets the session's engine.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		c.cancel()
		m.logger.Debug("engine stopped", "session", id)
	}
}

// Count returns the number of live engines.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) *controlled {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// scrollLoop ticks the engine while a scroll is active and sleeps otherwise.
// The engine emits the first tick of a loop itself, which wakes this loop
// for the following ones.
func (m *Manager) scrollLoop(ctx context.Context, c *controlled) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}

		ticker := time.NewTicker(m.config.TickInterval)
		for c.engine.ScrollPhase() != gaze.Idle {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				c.engine.Tick()
			}
		}
		ticker.Stop()
	}
}

// callbacks routes one engine's events. They run after the engine lock is
// released but must not call back into the engine.
func (m *Manager) callbacks(c *controlled) gaze.Callbacks {
	id := c.id
	return gaze.Callbacks{
		OnAction: func(a gaze.Action) {
			c.mu.Lock()
			at := c.lastGaze
			c.mu.Unlock()

			m.publish(id, func() (*protocol.Message, error) {
				return protocol.NewActionMessage(a, at)
			})
			if counter, ok := session.CounterForAction(a); ok {
				m.increment(id, counter)
			}
		},
		OnScrollTick: func(t gaze.ScrollTick) {
			select {
			case c.wake <- struct{}{}:
			default:
			}
			m.publish(id, func() (*protocol.Message, error) {
				return protocol.NewScrollMessage(t)
			})
		},
		OnStatIncrement: func(k gaze.StatKind) {
			m.increment(id, session.CounterForStat(k))
		},
		OnTrackingChange: func(active bool) {
			m.sendTracking(id, active)
		},
	}
}

func (m *Manager) increment(id string, counter session.Counter) {
	stats, err := m.store.Increment(id, counter)
	if err != nil {
		m.logger.Warn("stat increment failed", "session", id, "counter", counter, "error", err)
		return
	}
	m.publish(id, func() (*protocol.Message, error) {
		return protocol.NewStatsMessage(StatsData(stats))
	})
}

func (m *Manager) publish(id string, build func() (*protocol.Message, error)) {
	if m.events == nil {
		return
	}
	msg, err := build()
	if err == nil {
		err = m.events.Publish(id, msg)
	}
	if err != nil {
		m.logger.Warn("publish failed", "session", id, "error", err)
	}
}

func (m *Manager) sendTracking(id string, active bool) {
	if m.tracker == nil {
		return
	}
	if err := m.tracker.SendTracking(id, active); err != nil {
		m.logger.Debug("tracking update not delivered", "session", id, "active", active, "error", err)
	}
}

// StatsData converts stored stats to their wire form.
func StatsData(s session.Stats) protocol.StatsData {
	return protocol.StatsData{
		BlinkCount:      s.BlinkCount,
		ScrollCount:     s.ScrollCount,
		ClickCount:      s.ClickCount,
		NavigationCount: s.NavigationCount,
		SessionStart:    s.SessionStart.UnixMilli(),
	}
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}
