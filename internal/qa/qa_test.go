package qa

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/ghari/internal/notify"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T) (*Service, *notify.MemoryNotifier, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	n := notify.NewMemoryNotifier()
	return New(n, zerolog.Nop(), Options{Now: clk.Now}), n, clk
}

func TestSchedule(t *testing.T) {
	s, n, clk := newService(t)

	item := s.Schedule(context.Background(), 10*time.Second)
	require.NotNil(t, item)
	assert.Equal(t, Name, item.Name)
	assert.Equal(t, clk.Now().Add(10*time.Second), item.TriggerAt)

	pending := n.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, item.ID, pending[0].ID)
	assert.Equal(t, "Test Reminder", pending[0].Title)
}

func TestSchedule_DefaultDelay(t *testing.T) {
	s, _, clk := newService(t)

	item := s.Schedule(context.Background(), 0)
	require.NotNil(t, item)
	assert.Equal(t, clk.Now().Add(30*time.Second), item.TriggerAt)
}

func TestSchedule_PermissionDenied(t *testing.T) {
	s, n, _ := newService(t)
	n.SetPermission(false)

	assert.Nil(t, s.Schedule(context.Background(), time.Second))
	assert.Empty(t, s.List())
}

func TestCountdownMonotonic(t *testing.T) {
	s, _, clk := newService(t)

	item := s.Schedule(context.Background(), 5*time.Second)
	require.NotNil(t, item)

	prev := s.Countdown(item.ID)
	assert.Equal(t, 5, prev)
	assert.False(t, s.HasTriggered(item.ID))

	for i := 0; i < 20; i++ {
		clk.Advance(300 * time.Millisecond)

		got := s.Countdown(item.ID)
		assert.LessOrEqual(t, got, prev, "countdown must not increase")
		assert.Equal(t, got == 0, s.HasTriggered(item.ID), "countdown hits 0 when triggered")
		prev = got
	}
	assert.Equal(t, 0, prev)
}

func TestCountdown_ExactTrigger(t *testing.T) {
	s, _, clk := newService(t)

	item := s.Schedule(context.Background(), 3*time.Second)
	require.NotNil(t, item)

	clk.Advance(3*time.Second - time.Millisecond)
	assert.Equal(t, 1, s.Countdown(item.ID))
	assert.False(t, s.HasTriggered(item.ID))

	clk.Advance(time.Millisecond)
	assert.Equal(t, 0, s.Countdown(item.ID))
	assert.True(t, s.HasTriggered(item.ID))
}

func TestCountdown_Unknown(t *testing.T) {
	s, _, _ := newService(t)
	assert.Equal(t, 0, s.Countdown("missing"))
	assert.False(t, s.HasTriggered("missing"))
}

func TestCancel(t *testing.T) {
	s, n, _ := newService(t)
	ctx := context.Background()

	a := s.Schedule(ctx, time.Minute)
	b := s.Schedule(ctx, 2*time.Minute)
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.True(t, s.Cancel(ctx, a.ID))
	assert.False(t, s.Cancel(ctx, a.ID))
	assert.Len(t, s.List(), 1)
	assert.Len(t, n.Pending(), 1)

	s.Schedule(ctx, 3*time.Minute)
	assert.Equal(t, 2, s.CancelAll(ctx))
	assert.Empty(t, s.List())
	assert.Empty(t, n.Pending())
}

func TestList_OrderedByTrigger(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	late := s.Schedule(ctx, time.Hour)
	early := s.Schedule(ctx, time.Minute)

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, early.ID, items[0].ID)
	assert.Equal(t, late.ID, items[1].ID)
}

func TestNewConsole(t *testing.T) {
	s, n := NewConsole(zerolog.Nop())
	defer n.Close()

	item := s.Schedule(context.Background(), 20*time.Millisecond)
	require.NotNil(t, item)
	assert.Len(t, n.Pending(), 1)

	require.Eventually(t, func() bool { return s.HasTriggered(item.ID) }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(n.Pending()) == 0 }, time.Second, 5*time.Millisecond)
}
