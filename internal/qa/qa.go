// Package qa schedules synthetic "test reminders" on short delays so
// notification delivery can be checked by hand.
package qa

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/notify"
	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

const (
	// Name is the title every test reminder carries.
	Name = "Test Reminder"
	// DefaultDelay applies when Schedule is given a non-positive delay.
	DefaultDelay = 30 * time.Second

	defaultChannel = "prayer-reminders-test"
)

// Item is one scheduled test reminder.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TriggerAt time.Time `json:"trigger_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configures a Service.
type Options struct {
	Channel string
	Now     func() time.Time
}

// Service tracks test reminders and arms them through a notifier.
type Service struct {
	notifier reminder.Notifier
	log      zerolog.Logger
	channel  string
	now      func() time.Time

	mu    sync.Mutex
	items map[string]Item
}

func New(n reminder.Notifier, logger zerolog.Logger, opts Options) *Service {
	if opts.Channel == "" {
		opts.Channel = defaultChannel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		notifier: n,
		log:      logger.With().Str("component", "qa").Logger(),
		channel:  opts.Channel,
		now:      opts.Now,
		items:    make(map[string]Item),
	}
}

// NewConsole returns a Service whose reminders fire in-process and are
// written to the log.
func NewConsole(logger zerolog.Logger) (*Service, *notify.ConsoleNotifier) {
	n := notify.NewConsoleNotifier(nil, logger)
	return New(n, logger, Options{}), n
}

// Schedule arms a test reminder delay from now. It returns nil when
// permission is denied or the notifier fails; the cause is logged.
func (s *Service) Schedule(ctx context.Context, delay time.Duration) *Item {
	if delay <= 0 {
		delay = DefaultDelay
	}

	ok, err := s.notifier.RequestPermission(ctx)
	if err != nil || !ok {
		s.log.Warn().Err(err).Msg("test reminder not scheduled: permission denied")
		return nil
	}

	now := s.now()
	item := Item{
		ID:        uuid.NewString(),
		Name:      Name,
		TriggerAt: now.Add(delay),
		CreatedAt: now,
	}

	inst := reminder.Instance{
		ID:         item.ID,
		ReminderID: item.ID,
		TriggerAt:  item.TriggerAt,
		Title:      item.Name,
		Body:       fmt.Sprintf("Test notification after %s", delay.Round(time.Second)),
		Repeat:     reminder.Never,
		Channel:    s.channel,
	}
	if err := s.notifier.Schedule(ctx, inst); err != nil {
		s.log.Error().Err(err).Msg("failed to schedule test reminder")
		return nil
	}

	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()

	s.log.Info().Str("id", item.ID).Time("trigger_at", item.TriggerAt).Msg("test reminder scheduled")
	return &item
}

// Cancel disarms one test reminder. It reports false when the reminder is
// unknown or the notifier fails.
func (s *Service) Cancel(ctx context.Context, id string) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	if err := s.notifier.Cancel(ctx, id); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to cancel test reminder")
		return false
	}

	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return true
}

// CancelAll disarms every test reminder and returns how many were removed.
func (s *Service) CancelAll(ctx context.Context) int {
	n := 0
	for _, item := range s.List() {
		if s.Cancel(ctx, item.ID) {
			n++
		}
	}
	return n
}

// Countdown returns the whole seconds left until the reminder triggers,
// rounded up, so it reaches 0 exactly when HasTriggered becomes true.
// Unknown IDs report 0.
func (s *Service) Countdown(id string) int {
	item, ok := s.get(id)
	if !ok {
		return 0
	}
	left := item.TriggerAt.Sub(s.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// HasTriggered reports whether the trigger instant has been reached.
func (s *Service) HasTriggered(id string) bool {
	item, ok := s.get(id)
	if !ok {
		return false
	}
	return !s.now().Before(item.TriggerAt)
}

// List returns test reminders ordered by trigger time.
func (s *Service) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

func (s *Service) get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}
