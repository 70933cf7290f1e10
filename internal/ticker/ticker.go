// Package ticker runs a function on a fixed interval until it is stopped.
//
// Display state that tracks the wall clock (the current period, reminder
// countdowns) is re-derived on every tick. Stop must be called on teardown;
// it blocks until the polling goroutine has exited so no tick can observe
// stale state afterwards.
package ticker

import (
	"context"
	"sync"
	"time"
)

// Ticker is a cancellable polling loop.
type Ticker struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start calls fn immediately and then every interval until ctx is cancelled
// or Stop is called. fn runs on a single goroutine, never concurrently with
// itself.
func Start(ctx context.Context, interval time.Duration, fn func(now time.Time)) *Ticker {
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticker{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		tk := time.NewTicker(interval)
		defer tk.Stop()

		fn(time.Now())
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tk.C:
				// A tick may race with cancellation; prefer stopping.
				if ctx.Err() != nil {
					return
				}
				fn(now)
			}
		}
	}()

	return t
}

// Stop cancels the loop and waits for it to exit. It is safe to call more
// than once.
func (t *Ticker) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
