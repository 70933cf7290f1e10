package namaz

import (
	"fmt"
	"time"
)

// Group tags a period with the part of the day it belongs to.
type Group string

const (
	Morning Group = "morning"
	Noon    Group = "noon"
	Evening Group = "evening"
)

// Period is the derived "Ghari" that is active at a given instant.
type Period struct {
	Key         Label  `json:"key"`
	Name        string `json:"name"`
	IsNext      bool   `json:"is_next,omitempty"`
	Time        string `json:"time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Description string `json:"description,omitempty"`
	Group       Group  `json:"group,omitempty"`
	NextInList  Label  `json:"next_in_list,omitempty"`
}

// homeLabels is the priority order used by ResolveNextLabel.
var homeLabels = []Label{Sihori, Fajr, Zawaal, MaghribSafe, NisfulLayl}

// ResolveNextLabel returns the first label in the home priority list whose
// time is strictly after now, or "" when none qualifies.
//
// A "00:xx" value is pushed two days ahead here, unlike At which pushes one.
// Both rules are kept as observed; see DESIGN.md.
func ResolveNextLabel(times Snapshot, now time.Time) Label {
	if len(times) == 0 {
		return ""
	}
	for _, l := range homeLabels {
		t, ok := homeInstant(times[l], now)
		if ok && t.After(now) {
			return l
		}
	}
	return ""
}

func homeInstant(raw string, now time.Time) (time.Time, bool) {
	t, err := ParseClock(raw, now)
	if err != nil {
		return time.Time{}, false
	}
	if t.Hour() == 0 {
		t = t.AddDate(0, 0, 2)
	}
	return t, true
}

type periodFunc func(times Snapshot, now time.Time) Period

// periods maps each next-label to the function describing the period that
// precedes it. Labels without an entry fall through to a pass-through period.
var periods = map[Label]periodFunc{
	NisfulLayl:  beforeNisfulLayl,
	Sihori:      beforeSihori,
	Fajr:        beforeFajr,
	Zawaal:      beforeZawaal,
	MaghribSafe: beforeMaghrib,
}

// ResolveCurrentPeriod describes the period active at now, given the label
// ResolveNextLabel picked.
func ResolveCurrentPeriod(times Snapshot, next Label, now time.Time) Period {
	if fn, ok := periods[next]; ok {
		return fn(times, now)
	}
	return Period{Key: next, Name: string(next)}
}

func beforeNisfulLayl(times Snapshot, now time.Time) Period {
	if within(times, MaghribSafe, MaghribEnd, now) {
		return Period{
			Key:     MaghribSafe,
			Name:    "Maghrib",
			Time:    times.Get(MaghribSafe),
			EndTime: times.Get(MaghribEnd),
			Group:   Evening,
		}
	}
	return Period{
		Key:         MaghribEnd,
		Name:        "Maghrib/Isha",
		Time:        times.Get(MaghribEnd),
		EndTime:     times.Get(NisfulLayl),
		Description: DescribeRemainingTime(times.Get(NisfulLayl), now).Text,
		Group:       Evening,
		NextInList:  NisfulLayl,
	}
}

func beforeSihori(times Snapshot, now time.Time) Period {
	if within(times, NisfulLayl, NisfulLaylEnd, now) {
		return Period{
			Key:     NisfulLayl,
			Name:    "Nisful-Layl",
			Time:    times.Get(NisfulLayl),
			EndTime: times.Get(NisfulLaylEnd),
			Group:   Evening,
		}
	}
	return sihoriEnds(times, now)
}

func beforeFajr(times Snapshot, now time.Time) Period {
	return sihoriEnds(times, now)
}

func sihoriEnds(times Snapshot, now time.Time) Period {
	return Period{
		Key:         Sihori,
		Name:        "Sihori Ends",
		Time:        times.Get(Sihori),
		Description: DescribeRemainingTime(times.Get(Sihori), now).Text,
		Group:       Morning,
	}
}

func beforeZawaal(times Snapshot, now time.Time) Period {
	if within(times, Fajr, SunriseSafe, now) {
		return Period{
			Key:     Fajr,
			Name:    "Fajr",
			Time:    times.Get(Fajr),
			EndTime: times.Get(SunriseSafe),
			Group:   Morning,
		}
	}
	return Period{
		Key:    Zawaal,
		Name:   "Zawal",
		IsNext: true,
		Time:   times.Get(Zawaal),
		Group:  Noon,
	}
}

func beforeMaghrib(times Snapshot, now time.Time) Period {
	switch {
	case within(times, Zawaal, ZohrEnd, now):
		return Period{
			Key:        Zohar,
			Name:       "Zohr/Asr",
			Time:       times.Get(Zawaal),
			EndTime:    times.Get(ZohrEnd),
			Group:      Noon,
			NextInList: ZohrEnd,
		}
	case within(times, ZohrEnd, AsrEnd, now):
		return Period{
			Key:        Asar,
			Name:       fmt.Sprintf("Asar until %s", times.Get(AsrEnd)),
			Time:       times.Get(ZohrEnd),
			EndTime:    times.Get(AsrEnd),
			Group:      Noon,
			NextInList: AsrEnd,
		}
	default:
		return Period{
			Key:        MaghribSafe,
			Name:       "Maghrib",
			IsNext:     true,
			Time:       times.Get(MaghribSafe),
			Group:      Evening,
			NextInList: MaghribSafe,
		}
	}
}

// within reports whether now falls in [start, end). A missing or malformed
// bound means "not inside".
func within(times Snapshot, start, end Label, now time.Time) bool {
	from, ok := At(times.Get(start), now)
	if !ok {
		return false
	}
	to, ok := At(times.Get(end), now)
	if !ok {
		return false
	}
	return !now.Before(from) && now.Before(to)
}

// Status bundles everything a display needs for one tick.
type Status struct {
	Next      Label     `json:"next"`
	NextTime  string    `json:"next_time,omitempty"`
	Period    Period    `json:"period"`
	Remaining Remaining `json:"remaining"`
}

// Resolve computes the full Status for now.
func Resolve(times Snapshot, now time.Time) Status {
	next := ResolveNextLabel(times, now)
	st := Status{
		Next:   next,
		Period: ResolveCurrentPeriod(times, next, now),
	}
	if next != "" {
		st.NextTime = times.Get(next)
		st.Remaining = DescribeRemainingTime(st.NextTime, now)
	}
	return st
}
