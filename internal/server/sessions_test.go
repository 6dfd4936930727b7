package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionManagerGetOrCreate(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())

	a := sm.GetOrCreate(1)
	assert.Same(t, a, sm.GetOrCreate(1))
	assert.NotSame(t, a, sm.GetOrCreate(2))
	assert.Equal(t, 2, sm.Count())

	got, ok := sm.Get(1)
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = sm.Get(3)
	assert.False(t, ok)
}

func TestSessionManagerLockSkipsPrunedSession(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())

	orphan := sm.GetOrCreate(1)
	orphan.mu.Lock()

	done := make(chan *ChatSession, 1)
	go func() { done <- sm.lock(1) }()

	// Drop the session from the registry while the caller may already hold
	// a reference to it, the way Prune does.
	sm.mu.Lock()
	delete(sm.sessions, 1)
	sm.mu.Unlock()
	orphan.mu.Unlock()

	cs := <-done
	defer cs.mu.Unlock()
	assert.NotSame(t, orphan, cs)
	got, ok := sm.Get(1)
	assert.True(t, ok)
	assert.Same(t, cs, got, "the locked session is the registered one")
}

func TestSessionManagerPrune(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	old := sm.GetOrCreate(1)
	old.touched = now.Add(-2 * time.Hour)

	playing := sm.GetOrCreate(2)
	playing.touched = now.Add(-2 * time.Hour)
	playing.phase = PhasePlaying

	fresh := sm.GetOrCreate(3)
	fresh.touched = now

	assert.Equal(t, 1, sm.Prune(now.Add(-time.Hour)))
	ids := []int64{}
	for _, s := range sm.List() {
		ids = append(ids, s.ChatID)
	}
	assert.Equal(t, []int64{2, 3}, ids)
}

func TestChatSessionToggle(t *testing.T) {
	t.Parallel()
	cs := &ChatSession{}
	cs.toggle("a")
	cs.toggle("b")
	assert.Equal(t, []string{"a", "b"}, cs.selected)
	cs.toggle("a")
	assert.Equal(t, []string{"b"}, cs.selected)
	assert.False(t, cs.isSelected("a"))
	assert.True(t, cs.isSelected("b"))
}

func TestParsePlayerNames(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"Alice, Bob,Carol", []string{"Alice", "Bob", "Carol"}},
		{" Alice ,, ", []string{"Alice"}},
		{"", nil},
		{"Маша, Петя", []string{"Маша", "Петя"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePlayerNames(tt.in), tt.in)
	}
}
