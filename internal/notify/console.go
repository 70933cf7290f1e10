package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// ConsoleNotifier fires notifications in-process with timers and hands them
// to a Deliverer. Pending notifications are lost when the process exits.
type ConsoleNotifier struct {
	deliver Deliverer
	log     zerolog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]reminder.Instance
}

// NewConsoleNotifier returns a notifier that delivers through d. A nil d
// logs the notification.
func NewConsoleNotifier(d Deliverer, logger zerolog.Logger) *ConsoleNotifier {
	if d == nil {
		d = NewLogDeliverer(logger)
	}
	return &ConsoleNotifier{
		deliver: d,
		log:     logger.With().Str("component", "console-notifier").Logger(),
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]reminder.Instance),
	}
}

func (c *ConsoleNotifier) RequestPermission(_ context.Context) (bool, error) {
	return true, nil
}

func (c *ConsoleNotifier) Schedule(_ context.Context, inst reminder.Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[inst.ID]; ok {
		t.Stop()
	}
	c.pending[inst.ID] = inst
	c.timers[inst.ID] = time.AfterFunc(time.Until(inst.TriggerAt), func() {
		c.fire(inst.ID)
	})
	return nil
}

func (c *ConsoleNotifier) Cancel(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	delete(c.timers, id)
	delete(c.pending, id)
	return nil
}

// Pending returns notifications that have not fired yet.
func (c *ConsoleNotifier) Pending() []reminder.Instance {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]reminder.Instance, 0, len(c.pending))
	for _, inst := range c.pending {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

// Close stops every pending timer.
func (c *ConsoleNotifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
		delete(c.pending, id)
	}
}

func (c *ConsoleNotifier) fire(id string) {
	c.mu.Lock()
	inst, ok := c.pending[id]
	delete(c.pending, id)
	delete(c.timers, id)
	c.mu.Unlock()

	if !ok {
		return
	}
	if err := c.deliver.Deliver(context.Background(), inst); err != nil {
		c.log.Error().Err(err).Str("occurrence", id).Msg("delivery failed")
	}
}
