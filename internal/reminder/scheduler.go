package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/location"
)

// Store persists reminder specs keyed by ID.
type Store interface {
	List(ctx context.Context) ([]Spec, error)
	Save(ctx context.Context, spec Spec) error
	Delete(ctx context.Context, id string) error
}

// Notifier arms and disarms device-level notifications.
type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, inst Instance) error
	Cancel(ctx context.Context, id string) error
}

// VersionStore persists the last location version reminders were
// rescheduled for, so a version bumped by another process is still handled.
type VersionStore interface {
	HandledVersion() (uint64, bool)
	SaveHandledVersion(version uint64) error
}

// Alerter shows a confirmation to the user. The UI layer owns it.
type Alerter interface {
	Alert(title, message string)
}

const (
	defaultChannel = "prayer-reminders"
	defaultHorizon = 62
)

// Options configures a Scheduler.
type Options struct {
	// DebugMode makes rescheduling emit user-facing confirmation alerts.
	DebugMode bool
	// Channel is the notification channel attached to every instance.
	Channel string
	// Horizon is how many days ahead to search for an occurrence.
	Horizon int
	// Now overrides the wall clock.
	Now func() time.Time
	// Versions, when set, seeds and records the handled location version.
	Versions VersionStore
}

// Scheduler owns the mapping from specs to armed notifications. Operations
// are serialized; none of them panics on collaborator failure.
type Scheduler struct {
	store    Store
	notifier Notifier
	times    TimesProvider
	alerter  Alerter
	log      zerolog.Logger
	opts     Options
	validate *validator.Validate

	mu             sync.Mutex
	handledVersion uint64
	handledAny     bool
}

// New constructs a Scheduler. alerter may be nil.
func New(store Store, notifier Notifier, times TimesProvider, alerter Alerter, logger zerolog.Logger, opts Options) *Scheduler {
	if opts.Channel == "" {
		opts.Channel = defaultChannel
	}
	if opts.Horizon <= 0 {
		opts.Horizon = defaultHorizon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		times:    times,
		alerter:  alerter,
		log:      logger.With().Str("component", "reminder").Logger(),
		opts:     opts,
		validate: newValidator(),
	}
	if opts.Versions != nil {
		s.handledVersion, s.handledAny = opts.Versions.HandledVersion()
	}
	return s
}

// RequestPermission asks the platform for notification permission. A
// failure is logged and reported as false.
func (s *Scheduler) RequestPermission(ctx context.Context) bool {
	ok, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("notification permission request failed")
		return false
	}
	if !ok {
		s.log.Warn().Msg("notification permission denied")
	}
	return ok
}

// Create validates and persists a new spec and arms its next occurrence.
// A spec with the same Name and PrayerTime as an existing one is silently
// ignored: the result is (nil, nil). Arming failures are logged; check
// IsArmed on the result.
func (s *Scheduler) Create(ctx context.Context, spec Spec) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Repeat == "" {
		spec.Repeat = Daily
	}
	if err := validate(s.validate, spec); err != nil {
		return nil, err
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reminders")
	}
	for _, e := range existing {
		if e.Name == spec.Name && e.PrayerTime == spec.PrayerTime {
			s.log.Debug().Str("name", spec.Name).Str("prayer_time", string(spec.PrayerTime)).
				Msg("duplicate reminder ignored")
			return nil, nil
		}
	}

	now := s.opts.Now()
	spec.ID = uuid.NewString()
	spec.Enabled = true
	spec.CreatedAt = now
	spec.UpdatedAt = now
	spec.Armed = nil
	spec.LastFiredAt = nil

	if err := s.store.Save(ctx, spec); err != nil {
		return nil, errors.Wrap(err, "save reminder")
	}

	if s.arm(ctx, &spec) {
		if err := s.store.Save(ctx, spec); err != nil {
			s.log.Error().Err(err).Str("reminder_id", spec.ID).Msg("failed to persist armed state")
		}
	}

	s.log.Info().Str("reminder_id", spec.ID).Str("name", spec.Name).Bool("armed", spec.IsArmed()).
		Msg("reminder created")
	return &spec, nil
}

// Get returns the spec with the given ID.
func (s *Scheduler) Get(ctx context.Context, id string) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, id)
}

// List returns every persisted spec.
func (s *Scheduler) List(ctx context.Context) ([]Spec, error) {
	specs, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reminders")
	}
	return specs, nil
}

// Toggle flips the enabled state and arms or disarms accordingly.
func (s *Scheduler) Toggle(ctx context.Context, id string) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	spec.Enabled = !spec.Enabled
	spec.UpdatedAt = s.opts.Now()
	if spec.Enabled {
		s.arm(ctx, spec)
	} else {
		s.disarm(ctx, spec)
	}

	if err := s.store.Save(ctx, *spec); err != nil {
		return nil, errors.Wrap(err, "save reminder")
	}
	s.log.Info().Str("reminder_id", id).Bool("enabled", spec.Enabled).Msg("reminder toggled")
	return spec, nil
}

// Update applies p and re-arms when the prayer time, offset, repeat policy,
// weekdays or location changed.
func (s *Scheduler) Update(ctx context.Context, id string, p Patch) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasEnabled := spec.Enabled
	updated := *spec
	reschedule := p.apply(&updated)
	if err := validate(s.validate, updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.opts.Now()

	switch {
	case !updated.Enabled:
		s.disarm(ctx, &updated)
	case !wasEnabled || reschedule:
		if s.disarm(ctx, &updated) {
			s.arm(ctx, &updated)
		}
	}

	if err := s.store.Save(ctx, updated); err != nil {
		return nil, errors.Wrap(err, "save reminder")
	}
	s.log.Info().Str("reminder_id", id).Bool("rescheduled", reschedule).Msg("reminder updated")
	return &updated, nil
}

// Delete cancels the outstanding notification and removes the spec.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	s.disarm(ctx, spec)

	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete reminder")
	}
	s.log.Info().Str("reminder_id", id).Msg("reminder deleted")
	return nil
}

// RescheduleAll re-arms every enabled spec for a new device location. It
// acts once per location version: a version that is not newer than the last
// one handled is a no-op. A version only counts as handled once the specs
// could be listed. It returns the number of specs that ended up armed.
func (s *Scheduler) RescheduleAll(ctx context.Context, loc location.Snapshot, version uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handledAny && version <= s.handledVersion {
		s.log.Debug().Uint64("version", version).Msg("location version already handled")
		return 0
	}

	specs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reschedule: list reminders failed")
		return 0
	}
	s.handledVersion = version
	s.handledAny = true
	if s.opts.Versions != nil {
		if err := s.opts.Versions.SaveHandledVersion(version); err != nil {
			s.log.Error().Err(err).Uint64("version", version).Msg("reschedule: could not record handled version")
		}
	}

	armed := 0
	for i := range specs {
		spec := &specs[i]
		spec.Location = loc
		if spec.Enabled && s.disarm(ctx, spec) && s.arm(ctx, spec) {
			armed++
		}
		if err := s.store.Save(ctx, *spec); err != nil {
			s.log.Error().Err(err).Str("reminder_id", spec.ID).Msg("reschedule: save failed")
		}
	}

	s.log.Info().Uint64("version", version).Str("location", loc.String()).Int("armed", armed).
		Msg("reminders rescheduled")
	if s.opts.DebugMode && s.alerter != nil {
		s.alerter.Alert("Reminders rescheduled", fmt.Sprintf("%d reminders updated for %s", armed, loc))
	}
	return armed
}

// FollowLocation reschedules on every tracker update until ctx is done.
func (s *Scheduler) FollowLocation(ctx context.Context, updates <-chan location.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			s.RescheduleAll(ctx, u.Snapshot, u.Version)
		}
	}
}

// EnsureFutureSchedules keeps one future occurrence armed for every enabled
// recurring spec. A one-shot spec keeps its single occurrence until it fires
// and is inert afterwards. It returns the number of newly armed specs.
func (s *Scheduler) EnsureFutureSchedules(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	specs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("ensure: list reminders failed")
		return 0
	}

	now := s.opts.Now()
	armed := 0
	for i := range specs {
		spec := &specs[i]
		if !spec.Enabled {
			continue
		}
		if spec.Armed != nil && spec.Armed.TriggerAt.After(now) {
			continue
		}
		if spec.Armed != nil {
			fired := spec.Armed.TriggerAt
			spec.LastFiredAt = &fired
			spec.Armed = nil
		}
		if spec.Repeat.Recurring() && s.arm(ctx, spec) {
			armed++
		}
		if spec.Repeat == Never && spec.LastFiredAt == nil && s.arm(ctx, spec) {
			armed++
		}
		if err := s.store.Save(ctx, *spec); err != nil {
			s.log.Error().Err(err).Str("reminder_id", spec.ID).Msg("ensure: save failed")
		}
	}

	if armed > 0 {
		s.log.Info().Int("armed", armed).Msg("future reminders ensured")
	}
	return armed
}

// RestoreArmed re-arms every enabled spec against a notifier that has lost
// its pending notifications, such as an in-process notifier after a restart.
// Stored arming state is trusted only to detect occurrences that already
// fired. It returns the number of armed specs.
func (s *Scheduler) RestoreArmed(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	specs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("restore: list reminders failed")
		return 0
	}

	now := s.opts.Now()
	armed := 0
	for i := range specs {
		spec := &specs[i]
		if !spec.Enabled {
			continue
		}
		if spec.Armed != nil && !spec.Armed.TriggerAt.After(now) {
			fired := spec.Armed.TriggerAt
			spec.LastFiredAt = &fired
		}
		spec.Armed = nil
		if (spec.Repeat.Recurring() || spec.LastFiredAt == nil) && s.arm(ctx, spec) {
			armed++
		}
		if err := s.store.Save(ctx, *spec); err != nil {
			s.log.Error().Err(err).Str("reminder_id", spec.ID).Msg("restore: save failed")
		}
	}

	s.log.Debug().Int("armed", armed).Msg("armed reminders restored")
	return armed
}

func (s *Scheduler) get(ctx context.Context, id string) (*Spec, error) {
	specs, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reminders")
	}
	for i := range specs {
		if specs[i].ID == id {
			return &specs[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "id %s", id)
}

// arm schedules the spec's next occurrence, cancelling a different
// outstanding one first. Re-arming the identical occurrence is a no-op.
func (s *Scheduler) arm(ctx context.Context, spec *Spec) bool {
	inst, ok, err := NextOccurrence(ctx, s.times, spec, s.opts.Now(), s.opts.Horizon, s.opts.Channel)
	if err != nil {
		s.log.Error().Err(err).Str("reminder_id", spec.ID).Msg("cannot compute next occurrence")
		return false
	}
	if !ok {
		s.disarm(ctx, spec)
		return false
	}

	if spec.Armed != nil {
		if spec.Armed.ID == inst.ID && spec.Armed.TriggerAt.Equal(inst.TriggerAt) {
			return true
		}
		if !s.disarm(ctx, spec) {
			return false
		}
	}

	if err := s.notifier.Schedule(ctx, inst); err != nil {
		ev := s.log.Error()
		if errors.Is(err, ErrPermissionDenied) {
			ev = s.log.Warn()
		}
		ev.Err(err).Str("reminder_id", spec.ID).Msg("failed to schedule notification")
		return false
	}

	spec.Armed = &Armed{ID: inst.ID, TriggerAt: inst.TriggerAt}
	s.log.Debug().Str("reminder_id", spec.ID).Str("occurrence", inst.ID).
		Time("trigger_at", inst.TriggerAt).Msg("notification armed")
	return true
}

// disarm cancels the outstanding notification. It reports false only when a
// cancellation was attempted and failed, in which case Armed is kept.
func (s *Scheduler) disarm(ctx context.Context, spec *Spec) bool {
	if spec.Armed == nil {
		return true
	}
	if err := s.notifier.Cancel(ctx, spec.Armed.ID); err != nil {
		s.log.Error().Err(err).Str("reminder_id", spec.ID).Str("occurrence", spec.Armed.ID).
			Msg("failed to cancel notification")
		return false
	}
	spec.Armed = nil
	return true
}
