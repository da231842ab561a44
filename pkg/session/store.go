package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session storage operations.
type Store interface {
	// Create starts a new session with the given settings
	Create(settings gaze.Settings) (Session, error)

	// Get retrieves a session by ID
	Get(id string) (Session, error)

	// List returns all sessions, newest first
	List() []Session

	// UpdateSettings replaces a session's settings
	UpdateSettings(id string, settings gaze.Settings) (Session, error)

	// Increment bumps a counter and returns the updated stats
	Increment(id string, c Counter) (Stats, error)

	// Delete removes a session
	Delete(id string) error
}

// JSONStore implements Store using a JSON file for persistence.
//
// Settings changes and deletes are written immediately. Counter increments
// arrive at scroll-tick rate, so they only mark the store dirty and are
// written by Flush.
type JSONStore struct {
	path     string
	sessions map[string]*Session
	dirty    bool
	mu       sync.RWMutex
	logger   *slog.Logger
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int        `json:"version"`
	UpdatedAt string     `json:"updated_at"`
	Sessions  []*Session `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &JSONStore{
		path:     path,
		sessions: make(map[string]*Session),
		logger:   logger,
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// load reads the store from disk.
func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.sessions = make(map[string]*Session, len(stored.Sessions))
	for _, sess := range stored.Sessions {
		sess.Settings = sess.Settings.Normalize()
		s.sessions[sess.ID] = sess
	}
	return nil
}

// save writes the store to disk. Caller must hold the write lock.
func (s *JSONStore) save() error {
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  sessions,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.dirty = false
	return nil
}

// Create starts a new session with a generated ID.
func (s *JSONStore) Create(settings gaze.Settings) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := New(uuid.New().String())
	sess.Settings = settings.Normalize()
	s.sessions[sess.ID] = sess

	if err := s.save(); err != nil {
		delete(s.sessions, sess.ID)
		return Session{}, err
	}
	return *sess, nil
}

// Get retrieves a session by ID.
func (s *JSONStore) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *sess, nil
}

// List returns all sessions, newest first.
func (s *JSONStore) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdateSettings replaces a session's settings and saves immediately.
func (s *JSONStore) UpdateSettings(id string, settings gaze.Settings) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	sess.Settings = settings.Normalize()
	sess.UpdatedAt = time.Now()
	if err := s.save(); err != nil {
		return Session{}, err
	}
	return *sess, nil
}

// Increment bumps a counter. The change is persisted on the next Flush.
func (s *JSONStore) Increment(id string, c Counter) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	sess.Stats.Increment(c)
	sess.UpdatedAt = time.Now()
	s.dirty = true
	return sess.Stats, nil
}

// Delete removes a session.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(s.sessions, id)
	return s.save()
}

// Flush writes pending counter changes to disk.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.save()
}

// Dirty reports whether there are unsaved changes.
func (s *JSONStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Run flushes pending changes every interval until ctx is done, then
// flushes one last time.
func (s *JSONStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(); err != nil {
				s.logger.Error("final flush failed", "path", s.path, "error", err)
			}
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Warn("flush failed", "path", s.path, "error", err)
			}
		}
	}
}

// Count returns the total number of sessions.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

// Ensure JSONStore implements Store
var _ Store = (*JSONStore)(nil)
