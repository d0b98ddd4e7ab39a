package autosave

import (
	"sync"
	"time"
)

// Manager owns one Scheduler per editor session, keyed by post slug.
type Manager struct {
	debounce   time.Duration
	background time.Duration
	newSave    func(slug string) SaveFunc

	mu       sync.Mutex
	sessions map[string]*Scheduler
}

func NewManager(debounce, background time.Duration, newSave func(slug string) SaveFunc) *Manager {
	return &Manager{
		debounce:   debounce,
		background: background,
		newSave:    newSave,
		sessions:   make(map[string]*Scheduler),
	}
}

// Session returns the scheduler for a slug, creating it on first use.
func (m *Manager) Session(slug string) *Scheduler {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[slug]; ok {
		return s
	}
	s := NewScheduler(m.debounce, m.background, m.newSave(slug))
	m.sessions[slug] = s
	return s
}

// Peek returns the scheduler for a slug without creating one.
func (m *Manager) Peek(slug string) *Scheduler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[slug]
}

// Drop flushes and closes the session for a slug, if any. Called when
// a post is deleted or renamed.
func (m *Manager) Drop(slug string) {
	m.mu.Lock()
	s, ok := m.sessions[slug]
	delete(m.sessions, slug)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll shuts down every session; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Scheduler, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Scheduler)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Flush()
		s.Close()
	}
}
