package autosave

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSave struct {
	mu    sync.Mutex
	calls []Payload
	err   error
	delay time.Duration
}

func (r *recordingSave) fn(p Payload) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	return r.err
}

func (r *recordingSave) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSave) last() Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func TestSettleSavesAfterQuietPeriod(t *testing.T) {
	rec := &recordingSave{}
	s := NewScheduler(20*time.Millisecond, time.Minute, rec.fn)
	defer s.Close()

	s.Submit("v1", map[string]interface{}{"title": "t"})

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "v1", rec.last().Content)

	st := s.State()
	assert.NotNil(t, st.LastSaved)
	assert.False(t, st.IsSubmitting)
	assert.Empty(t, st.Error)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	rec := &recordingSave{}
	s := NewScheduler(30*time.Millisecond, time.Minute, rec.fn)
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Submit("keystroke", nil)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestChangeDetectionSkipsIdenticalPayload(t *testing.T) {
	rec := &recordingSave{}
	s := NewScheduler(10*time.Millisecond, time.Minute, rec.fn)
	defer s.Close()

	meta := map[string]interface{}{"title": "same"}
	s.Submit("same content", meta)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	// identical payload again: no second save
	s.Submit("same content", map[string]interface{}{"title": "same"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	// changed payload saves again
	s.Submit("same content", map[string]interface{}{"title": "different"})
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFlushSavesImmediately(t *testing.T) {
	rec := &recordingSave{}
	s := NewScheduler(time.Hour, time.Minute, rec.fn)
	defer s.Close()

	s.Submit("unsettled", nil)
	assert.Equal(t, 0, rec.count())

	s.Flush()
	assert.Equal(t, 1, rec.count())
}

func TestSaveErrorIsRecordedAndRetriedOnNextEdit(t *testing.T) {
	rec := &recordingSave{err: errors.New("disk full")}
	s := NewScheduler(10*time.Millisecond, time.Minute, rec.fn)
	defer s.Close()

	s.Submit("v1", nil)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Contains(t, st.Error, "disk full")
	assert.Nil(t, st.LastSaved)

	// the session is not dead: the next edit tries again
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	s.Submit("v2", nil)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.State().Error)
}

func TestSavesAreSerialized(t *testing.T) {
	rec := &recordingSave{delay: 50 * time.Millisecond}
	s := NewScheduler(10*time.Millisecond, time.Minute, rec.fn)
	defer s.Close()

	s.Submit("v1", nil)
	time.Sleep(20 * time.Millisecond) // first save is now in flight

	// edits during the in-flight save coalesce into one follow-up
	s.Submit("v2", nil)
	s.Submit("v3", nil)

	require.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, "v3", rec.last().Content)
}

func TestCloseStopsSaving(t *testing.T) {
	rec := &recordingSave{}
	s := NewScheduler(10*time.Millisecond, time.Minute, rec.fn)

	s.Submit("v1", nil)
	s.Close()
	s.Submit("v2", nil)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestBackgroundFloor(t *testing.T) {
	s := NewScheduler(0, time.Millisecond, func(Payload) error { return nil })
	defer s.Close()
	assert.Equal(t, MinBackground, s.background)
	assert.Equal(t, DefaultDebounce, s.debounce)
}

func TestManagerSessionsAreKeyedBySlug(t *testing.T) {
	var mu sync.Mutex
	saves := map[string]int{}
	m := NewManager(10*time.Millisecond, time.Minute, func(slug string) SaveFunc {
		return func(p Payload) error {
			mu.Lock()
			defer mu.Unlock()
			saves[slug]++
			return nil
		}
	})
	defer m.CloseAll()

	a := m.Session("post-a")
	b := m.Session("post-b")
	require.NotSame(t, a, b)
	require.Same(t, a, m.Session("post-a"))

	a.Submit("content", nil)
	b.Submit("content", nil)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return saves["post-a"] == 1 && saves["post-b"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestManagerDrop(t *testing.T) {
	m := NewManager(time.Hour, time.Minute, func(string) SaveFunc {
		return func(Payload) error { return nil }
	})
	s := m.Session("gone")
	m.Drop("gone")
	assert.Nil(t, m.Peek("gone"))

	s.Submit("after close", nil)
	s.Flush()
	assert.False(t, s.State().IsSubmitting)
}
