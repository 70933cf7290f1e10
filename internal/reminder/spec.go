// Package reminder turns user reminder specs bound to named prayer times into
// concrete, deduplicated device notifications, and keeps them armed as prayer
// times or the device location change.
package reminder

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// Repeat is a reminder's recurrence policy.
type Repeat string

const (
	Daily   Repeat = "daily"
	Weekly  Repeat = "weekly"
	Monthly Repeat = "monthly"
	Never   Repeat = "never"
)

// Recurring reports whether the policy produces more than one occurrence.
func (r Repeat) Recurring() bool {
	return r == Daily || r == Weekly || r == Monthly
}

// Spec is a user-defined reminder.
type Spec struct {
	ID            string            `json:"id"`
	Name          string            `json:"name" validate:"required,max=120"`
	PrayerTime    namaz.Label       `json:"prayer_time" validate:"required,namaz_label"`
	OffsetMinutes int               `json:"offset_minutes" validate:"min=-1440,max=1440"`
	Repeat        Repeat            `json:"repeat" validate:"required,oneof=daily weekly monthly never"`
	Weekdays      []int             `json:"weekdays,omitempty" validate:"dive,min=0,max=6"`
	Enabled       bool              `json:"enabled"`
	Location      location.Snapshot `json:"location"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Armed is the outstanding device notification, if any.
	Armed *Armed `json:"armed,omitempty"`
	// LastFiredAt is the trigger instant of the most recent occurrence that
	// was observed to have passed while armed.
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
}

// Armed identifies the notification currently scheduled for a spec.
type Armed struct {
	ID        string    `json:"id"`
	TriggerAt time.Time `json:"trigger_at"`
}

// IsArmed reports whether a device notification is outstanding.
func (s *Spec) IsArmed() bool {
	return s != nil && s.Armed != nil
}

// Patch holds optional field updates. Nil fields are left unchanged.
type Patch struct {
	Name          *string
	PrayerTime    *namaz.Label
	OffsetMinutes *int
	Repeat        *Repeat
	Weekdays      *[]int
	Enabled       *bool
	Location      *location.Snapshot
}

// apply mutates s and reports whether any field that affects the trigger
// time changed.
func (p Patch) apply(s *Spec) (reschedule bool) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.PrayerTime != nil && *p.PrayerTime != s.PrayerTime {
		s.PrayerTime = *p.PrayerTime
		reschedule = true
	}
	if p.OffsetMinutes != nil && *p.OffsetMinutes != s.OffsetMinutes {
		s.OffsetMinutes = *p.OffsetMinutes
		reschedule = true
	}
	if p.Repeat != nil && *p.Repeat != s.Repeat {
		s.Repeat = *p.Repeat
		reschedule = true
	}
	if p.Weekdays != nil && !slices.Equal(*p.Weekdays, s.Weekdays) {
		s.Weekdays = slices.Clone(*p.Weekdays)
		reschedule = true
	}
	if p.Location != nil && *p.Location != s.Location {
		s.Location = *p.Location
		reschedule = true
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	return reschedule
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("namaz_label", func(fl validator.FieldLevel) bool {
		return namaz.Label(fl.Field().String()).IsValid()
	})
	return v
}

func validate(v *validator.Validate, s Spec) error {
	if err := v.Struct(s); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}
