// Package session gives hosted callers multi-turn accumulation without
// shipping the profile back and forth: the server keeps the partial profile
// per session id. The pipeline itself stays stateless; this package is the
// caller-side system of record the pipeline contract expects.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wagebud/wagebud/internal/profile"
	"github.com/wagebud/wagebud/internal/storage"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// SessionStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type SessionStore interface {
	GetSession(id string) (storage.Session, error)
	SaveSession(sess storage.Session) error
	DeleteSession(id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// State is the per-session conversational state carried between turns.
type State struct {
	Profile  profile.Profile
	Language string
}

type cacheEntry struct {
	state    State
	cachedAt time.Time
}

// Manager provides cached access to session state stored in SQLite.
type Manager struct {
	store SessionStore
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store SessionStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock and TTL (tests).
func NewManagerWithClock(store SessionStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// Create starts a new empty session and returns its id.
func (m *Manager) Create() (string, error) {
	id := uuid.New().String()
	now := m.clock.Now()
	sess := storage.Session{
		ID:          id,
		ProfileJSON: "{}",
		Language:    "en",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.SaveSession(sess); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// Get returns the state for a session, from cache when fresh.
func (m *Manager) Get(id string) (State, error) {
	m.mu.RLock()
	if e, ok := m.cache[id]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		m.mu.RUnlock()
		return e.state, nil
	}
	m.mu.RUnlock()

	sess, err := m.store.GetSession(id)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("loading session %s: %w", id, err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(sess.ProfileJSON), &p); err != nil {
		return State{}, fmt.Errorf("parsing stored profile for session %s: %w", id, err)
	}

	st := State{Profile: p, Language: sess.Language}
	m.mu.Lock()
	m.cache[id] = cacheEntry{state: st, cachedAt: m.clock.Now()}
	m.mu.Unlock()
	return st, nil
}

// Advance persists the post-turn state for a session. Callers skip this on
// data-quality turns so the last known-good profile is retained.
func (m *Manager) Advance(id string, st State) error {
	data, err := json.Marshal(st.Profile)
	if err != nil {
		return fmt.Errorf("marshalling profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.GetSession(id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading session %s: %w", id, err)
	}

	sess.ProfileJSON = string(data)
	sess.Language = st.Language
	sess.UpdatedAt = m.clock.Now()
	if err := m.store.SaveSession(sess); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}

	m.cache[id] = cacheEntry{state: st, cachedAt: m.clock.Now()}
	return nil
}

// Reset deletes a session and drops it from the cache.
func (m *Manager) Reset(id string) error {
	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()

	err := m.store.DeleteSession(id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
