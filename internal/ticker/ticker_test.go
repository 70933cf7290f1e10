package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_CallsImmediately(t *testing.T) {
	called := make(chan struct{}, 1)
	tk := Start(context.Background(), time.Hour, func(time.Time) {
		select {
		case called <- struct{}{}:
		default:
		}
	})
	defer tk.Stop()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("fn was not called on start")
	}
}

func TestStart_Ticks(t *testing.T) {
	var n atomic.Int32
	tk := Start(context.Background(), 5*time.Millisecond, func(time.Time) {
		n.Add(1)
	})

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	tk.Stop()
}

func TestStop_NoCallsAfterReturn(t *testing.T) {
	var n atomic.Int32
	tk := Start(context.Background(), time.Millisecond, func(time.Time) {
		n.Add(1)
	})
	time.Sleep(10 * time.Millisecond)

	tk.Stop()
	after := n.Load()
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, after, n.Load())
}

func TestStop_Idempotent(t *testing.T) {
	tk := Start(context.Background(), time.Millisecond, func(time.Time) {})
	tk.Stop()
	tk.Stop()

	select {
	case <-tk.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}
}

func TestStart_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tk := Start(ctx, time.Millisecond, func(time.Time) {})

	cancel()

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop on context cancel")
	}
}
