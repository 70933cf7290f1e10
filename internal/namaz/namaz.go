// Package namaz resolves the current liturgical period ("Ghari") and the next
// upcoming prayer time from a single day's named prayer times.
//
// Every function in this package is pure: the caller supplies the day's
// Snapshot and the instant to evaluate against. Missing or malformed entries
// never produce an error; they degrade to empty labels and strings.
package namaz

import (
	"fmt"
	"strings"
	"time"
)

// Label identifies a prayer-related instant within a day.
type Label string

// Named times. The first seven are the primary labels, the rest are the
// auxiliary window boundaries.
const (
	Fajr          Label = "fajr"
	Zawaal        Label = "zawaal"
	Zohar         Label = "zohar"
	Asar          Label = "asar"
	Sihori        Label = "sihori"
	MaghribSafe   Label = "maghrib_safe"
	NisfulLayl    Label = "nisful_layl"
	SunriseSafe   Label = "sunrise_safe"
	ZohrEnd       Label = "zohr_end"
	AsrEnd        Label = "asr_end"
	MaghribEnd    Label = "maghrib_end"
	NisfulLaylEnd Label = "nisful_layl_end"
)

// allLabels is in chronological order for a typical day.
var allLabels = []Label{
	Sihori, Fajr, SunriseSafe, Zawaal, Zohar, ZohrEnd, Asar, AsrEnd,
	MaghribSafe, MaghribEnd, NisfulLayl, NisfulLaylEnd,
}

var displayNames = map[Label]string{
	Fajr:          "Fajr",
	Zawaal:        "Zawaal",
	Zohar:         "Zohar",
	Asar:          "Asar",
	Sihori:        "Sihori",
	MaghribSafe:   "Maghrib",
	NisfulLayl:    "Nisful Layl",
	SunriseSafe:   "Sunrise",
	ZohrEnd:       "Zohr End",
	AsrEnd:        "Asr End",
	MaghribEnd:    "Maghrib End",
	NisfulLaylEnd: "Nisful Layl End",
}

// Labels returns every known label in chronological order.
func Labels() []Label {
	out := make([]Label, len(allLabels))
	copy(out, allLabels)
	return out
}

// LabelStrings returns every known label as a plain string.
func LabelStrings() []string {
	out := make([]string, len(allLabels))
	for i, l := range allLabels {
		out[i] = string(l)
	}
	return out
}

// IsValid reports whether l is one of the fixed labels. Matching is case-sensitive.
func (l Label) IsValid() bool {
	_, ok := displayNames[l]
	return ok
}

// DisplayName returns a human-readable name, or the raw label if unknown.
func (l Label) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// Snapshot maps labels to "HH:mm" strings for exactly one calendar day.
// A Snapshot is replaced wholesale when the location or date changes.
type Snapshot map[Label]string

// Get returns the raw time string for l, or "" when absent.
func (s Snapshot) Get(l Label) string {
	if s == nil {
		return ""
	}
	return s[l]
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ParseClock parses "HH:mm" (optionally followed by a suffix such as " (BST)")
// into a time on date's calendar day in date's location.
func ParseClock(raw string, date time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, date.Location()), nil
}

// At resolves a raw clock value against date, treating "00:xx" as belonging
// to the following day. This is the normalization used for window bounds,
// countdowns and reminder trigger times.
func At(raw string, date time.Time) (time.Time, bool) {
	t, err := ParseClock(raw, date)
	if err != nil {
		return time.Time{}, false
	}
	if t.Hour() == 0 {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// FormatClock reformats a raw "HH:mm" value with a Go time layout.
// Unparseable input is returned unchanged.
func FormatClock(raw, layout string) string {
	t, err := ParseClock(raw, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return raw
	}
	return t.Format(layout)
}
