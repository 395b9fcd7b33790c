package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/registry"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewManager(blueprint.NewParser(reg), opts...)
}

func TestCreate(t *testing.T) {
	m := newManager(t)

	tests := []struct {
		name      string
		opts      CreateOptions
		wantName  string
		wantNodes int
		wantErr   bool
	}{
		{name: "blank", opts: CreateOptions{}, wantName: blueprint.DefaultName},
		{name: "named", opts: CreateOptions{Name: "Mine"}, wantName: "Mine"},
		{name: "template", opts: CreateOptions{Template: "token-launch"}, wantName: "Token launch", wantNodes: 3},
		{
			name: "imported blueprint",
			opts: CreateOptions{Blueprint: &blueprint.Blueprint{
				Name:  "Imported",
				Nodes: []blueprint.Node{{Type: "auction"}},
			}},
			wantName:  "Imported",
			wantNodes: 1,
		},
		{name: "unknown template", opts: CreateOptions{Template: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := m.Create(tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, blueprint.ErrUnknownTemplate)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(s.ID, "sess_"))

			bp := s.Store.Blueprint()
			assert.Equal(t, tt.wantName, bp.Name)
			assert.Len(t, bp.Nodes, tt.wantNodes)
			assert.True(t, strings.HasPrefix(bp.ID, "bp_"))
		})
	}
	assert.Equal(t, 4, m.Count())
}

func TestGetAndDelete(t *testing.T) {
	m := newManager(t)
	s, err := m.Create(CreateOptions{})
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("sess_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ch, _ := s.Store.Subscribe(1)
	assert.True(t, m.Delete(s.ID))
	assert.False(t, m.Delete(s.ID))
	_, open := <-ch
	assert.False(t, open, "deleting a session closes its subscribers")
	assert.Zero(t, m.Count())
}

func TestListOrdersByActivity(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(t, WithClock(clock.Now))

	a, _ := m.Create(CreateOptions{Name: "A"})
	b, _ := m.Create(CreateOptions{Name: "B"})
	_, _ = m.Get(a.ID)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
	assert.Equal(t, "A", list[0].Name)
}

func TestEvictionKeepsCap(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(t, WithClock(clock.Now), WithMaxSessions(3))

	first, _ := m.Create(CreateOptions{})
	second, _ := m.Create(CreateOptions{})
	third, _ := m.Create(CreateOptions{})
	_, _ = m.Get(first.ID)
	fourth, _ := m.Create(CreateOptions{})

	assert.Equal(t, 3, m.Count())
	_, err := m.Get(second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "least recently active is evicted")
	for _, s := range []*Session{first, third, fourth} {
		_, err := m.Get(s.ID)
		assert.NoError(t, err)
	}
}

func TestEvictionSparesNewSession(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newManager(t, WithClock(func() time.Time { return fixed }), WithMaxSessions(1))

	for i := 0; i < 50; i++ {
		prev, err := m.Create(CreateOptions{})
		require.NoError(t, err)
		next, err := m.Create(CreateOptions{})
		require.NoError(t, err)

		_, err = m.Get(next.ID)
		require.NoError(t, err, "iteration %d", i)
		_, err = m.Get(prev.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Equal(t, 1, m.Count())
	}
}

func TestEvictionTieBreaksByCreationOrder(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newManager(t, WithClock(func() time.Time { return fixed }), WithMaxSessions(2))

	first, _ := m.Create(CreateOptions{})
	second, _ := m.Create(CreateOptions{})
	third, _ := m.Create(CreateOptions{})

	_, err := m.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	for _, s := range []*Session{second, third} {
		_, err := m.Get(s.ID)
		assert.NoError(t, err)
	}
}

func TestEvictionHoldsCapUnderConcurrency(t *testing.T) {
	m := newManager(t, WithMaxSessions(5))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Create(CreateOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, m.Count())
	assert.Len(t, m.List(), 5)
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := newManager(t, WithClock(clock), WithIdleTTL(time.Hour))

	old, _ := m.Create(CreateOptions{})
	mu.Lock()
	now = now.Add(50 * time.Minute)
	mu.Unlock()
	fresh, _ := m.Create(CreateOptions{})

	mu.Lock()
	now = now.Add(20 * time.Minute)
	mu.Unlock()
	assert.Equal(t, 1, m.Sweep())

	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestRunReportsSweeps(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(t, WithClock(clock.Now), WithIdleTTL(time.Nanosecond))
	_, err := m.Create(CreateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	removed := make(chan int, 16)
	go m.Run(ctx, 5*time.Millisecond, func(n int) { removed <- n })

	select {
	case n := <-removed:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no sweep reported")
	}
	assert.Zero(t, m.Count())
}

func TestStoreOptionsPropagate(t *testing.T) {
	var calls int
	m := newManager(t, WithStoreOptions(blueprint.WithObserver(func(string, blueprint.Effect) { calls++ })))

	s, err := m.Create(CreateOptions{})
	require.NoError(t, err)
	s.Store.Rename("x")
	assert.Equal(t, 1, calls)
}
