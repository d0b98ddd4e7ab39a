// Package autosave debounces edit submissions into saved snapshots.
// One Scheduler serves one editor session; saves are serialized and
// edits arriving mid-save coalesce into the next window.
package autosave

import (
	"reflect"
	"sync"
	"time"
)

const (
	// DefaultDebounce is the quiet period before a settled save.
	DefaultDebounce = 2 * time.Second
	// DefaultBackground forces a periodic settle even while the user
	// keeps typing. MinBackground is the floor.
	DefaultBackground = 30 * time.Second
	MinBackground     = 5 * time.Second
)

// Payload is an edit event: the full content plus its metadata.
type Payload struct {
	Content  string
	Metadata map[string]interface{}
}

// SaveFunc persists a settled payload.
type SaveFunc func(p Payload) error

// State is the observable scheduler state for the editor UI.
type State struct {
	LastSaved    *time.Time `json:"last_saved"`
	IsSubmitting bool       `json:"is_submitting"`
	Error        string     `json:"error,omitempty"`
}

// Scheduler debounces Submit calls and invokes the save function with
// the settled payload, skipping saves whose payload equals the last
// saved one.
type Scheduler struct {
	debounce   time.Duration
	background time.Duration
	save       SaveFunc

	mu          sync.Mutex
	pending     *Payload
	lastSaved   *Payload
	lastSavedAt *time.Time
	submitting  bool
	lastErr     error
	timer       *time.Timer
	closed      bool
	done        chan struct{}
}

func NewScheduler(debounce, background time.Duration, save SaveFunc) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if background <= 0 {
		background = DefaultBackground
	}
	if background < MinBackground {
		background = MinBackground
	}

	s := &Scheduler{
		debounce:   debounce,
		background: background,
		save:       save,
		done:       make(chan struct{}),
	}
	go s.backgroundLoop()
	return s
}

// Submit records an edit and re-arms the debounce timer.
func (s *Scheduler) Submit(content string, metadata map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = &Payload{Content: content, Metadata: metadata}
	s.rearmLocked()
}

// Flush forces an immediate settle, bypassing the debounce window.
// Blocks until the save (if any) completes.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.settle()
}

// Close stops the timers. Pending unsaved edits are dropped; call
// Flush first to keep them.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.done)
}

// State reports last-saved time, in-flight flag, and the last error.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		LastSaved:    s.lastSavedAt,
		IsSubmitting: s.submitting,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) backgroundLoop() {
	ticker := time.NewTicker(s.background)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.settle()
		}
	}
}

// rearmLocked resets the debounce timer. Caller holds the lock.
func (s *Scheduler) rearmLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.settle)
}

// settle saves the pending payload if it differs from the last saved
// one. At most one save runs at a time; edits made during a save are
// picked up by re-arming the timer when it finishes.
func (s *Scheduler) settle() {
	s.mu.Lock()
	if s.closed || s.submitting {
		s.mu.Unlock()
		return
	}
	p := s.pending
	if p == nil || (s.lastSaved != nil && equal(*p, *s.lastSaved)) {
		s.mu.Unlock()
		return
	}
	s.submitting = true
	payload := *p
	s.mu.Unlock()

	err := s.save(payload)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		// record and surface; the session keeps trying on later edits
		s.lastErr = err
	} else {
		s.lastErr = nil
		saved := payload
		s.lastSaved = &saved
		now := time.Now()
		s.lastSavedAt = &now
	}
	if !s.closed && s.pending != nil && !equal(*s.pending, payload) {
		s.rearmLocked()
	}
	s.mu.Unlock()
}

func equal(a, b Payload) bool {
	return a.Content == b.Content && reflect.DeepEqual(a.Metadata, b.Metadata)
}
