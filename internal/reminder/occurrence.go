package reminder

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// TimesProvider supplies the named prayer times for one location and date.
type TimesProvider interface {
	Times(ctx context.Context, loc location.Snapshot, date time.Time) (namaz.Snapshot, error)
}

// Instance is one concrete occurrence of a reminder.
type Instance struct {
	ID         string    `json:"id"`
	ReminderID string    `json:"reminder_id"`
	TriggerAt  time.Time `json:"trigger_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Repeat     Repeat    `json:"repeat"`
	Channel    string    `json:"channel"`
}

// OccurrenceID is the identity of a spec's occurrence on a calendar day.
func OccurrenceID(reminderID string, date time.Time) string {
	return reminderID + "@" + date.Format("2006-01-02")
}

// TriggerTime resolves label against date and applies the signed offset.
// "00:xx" values belong to the following day.
func TriggerTime(times namaz.Snapshot, label namaz.Label, date time.Time, offsetMinutes int) (time.Time, bool) {
	base, ok := namaz.At(times.Get(label), date)
	if !ok {
		return time.Time{}, false
	}
	return base.Add(time.Duration(offsetMinutes) * time.Minute), true
}

// matches reports whether the spec's repeat policy has an occurrence on date.
func (s *Spec) matches(date time.Time) bool {
	anchor := s.CreatedAt.In(date.Location())
	switch s.Repeat {
	case Weekly:
		if len(s.Weekdays) == 0 {
			return date.Weekday() == anchor.Weekday()
		}
		return slices.Contains(s.Weekdays, int(date.Weekday()))
	case Monthly:
		return date.Day() == anchor.Day()
	default:
		return true
	}
}

// NextOccurrence finds the first occurrence of spec that triggers strictly
// after the given instant, looking at most horizon days ahead. ok is false
// when none exists (a consumed one-shot reminder, or no matching day with a
// usable prayer time).
func NextOccurrence(ctx context.Context, times TimesProvider, spec *Spec, after time.Time, horizon int, channel string) (inst Instance, ok bool, err error) {
	if spec.Repeat == Never && spec.LastFiredAt != nil {
		return Instance{}, false, nil
	}

	zone := spec.Location.Zone()
	local := after.In(zone)
	day0 := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)

	// Start one day back so a "00:xx" time listed under yesterday, which
	// falls after midnight today, is still considered.
	for d := -1; d <= horizon; d++ {
		date := day0.AddDate(0, 0, d)
		if !spec.matches(date) {
			continue
		}

		snap, err := times.Times(ctx, spec.Location, date)
		if err != nil {
			return Instance{}, false, errors.Wrapf(err, "prayer times for %s", date.Format("2006-01-02"))
		}

		trigger, ok := TriggerTime(snap, spec.PrayerTime, date, spec.OffsetMinutes)
		if !ok || !trigger.After(after) {
			continue
		}

		return Instance{
			ID:         OccurrenceID(spec.ID, date),
			ReminderID: spec.ID,
			TriggerAt:  trigger,
			Title:      spec.Name,
			Body:       describe(spec, snap.Get(spec.PrayerTime)),
			Repeat:     spec.Repeat,
			Channel:    channel,
		}, true, nil
	}

	return Instance{}, false, nil
}

// describe builds the notification body, e.g. "15 minutes before Fajr (05:30)".
func describe(spec *Spec, clock string) string {
	name := spec.PrayerTime.DisplayName()
	switch {
	case spec.OffsetMinutes < 0:
		return fmt.Sprintf("%s before %s (%s)", minutes(-spec.OffsetMinutes), name, clock)
	case spec.OffsetMinutes > 0:
		return fmt.Sprintf("%s after %s (%s)", minutes(spec.OffsetMinutes), name, clock)
	default:
		return fmt.Sprintf("%s at %s", name, clock)
	}
}

func minutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
