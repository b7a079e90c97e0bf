package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ryandumpert/flint/config"
	"github.com/ryandumpert/flint/pkg/metrics"
)

// SessionRegistry owns one DocumentStore per session key. It is created by
// the application and passed to whatever needs document state.
type SessionRegistry struct {
	sessions    map[string]*session
	mu          sync.Mutex
	maxSessions int // Maximum sessions to keep, 0 = unlimited
	metrics     *metrics.Metrics
	now         func() time.Time
}

type session struct {
	store    *DocumentStore
	lastSeen time.Time
}

// NewSessionRegistry creates a registry bounded by cfg.MaxSessions.
// m may be nil.
func NewSessionRegistry(cfg *config.StoreConfig, m *metrics.Metrics) *SessionRegistry {
	maxSessions := cfg.MaxSessions
	if maxSessions < 0 {
		maxSessions = 0
	}
	slog.Info("session registry initialized", "max_sessions", maxSessions)
	return &SessionRegistry{
		sessions:    make(map[string]*session),
		maxSessions: maxSessions,
		metrics:     m,
		now:         time.Now,
	}
}

// Get returns the store for key, creating it on first use
func (r *SessionRegistry) Get(key string) *DocumentStore {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		s.lastSeen = r.now()
		return s.store
	}

	s := &session{store: NewDocumentStore(), lastSeen: r.now()}
	r.sessions[key] = s
	r.cleanupIfNeeded()
	r.reportLocked()
	return s.store
}

// Lookup returns the store for key without creating one
func (r *SessionRegistry) Lookup(key string) (*DocumentStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.store, true
}

// Drop discards a session and everything it holds
func (r *SessionRegistry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		s.store.Clear()
		delete(r.sessions, key)
	}
	r.reportLocked()
}

// Count returns the number of sessions
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// cleanupIfNeeded evicts the least recently used sessions past maxSessions.
// Must be called with lock held
func (r *SessionRegistry) cleanupIfNeeded() {
	if r.maxSessions <= 0 || len(r.sessions) <= r.maxSessions {
		return
	}

	keys := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.sessions[keys[i]].lastSeen.Before(r.sessions[keys[j]].lastSeen)
	})

	removeCount := len(keys) - r.maxSessions
	for _, k := range keys[:removeCount] {
		slog.Info("evicting idle session",
			"session", k,
			"last_seen", r.sessions[k].lastSeen,
		)
		r.sessions[k].store.Clear()
		delete(r.sessions, k)
	}
}

func (r *SessionRegistry) reportLocked() {
	if r.metrics != nil {
		r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
}
