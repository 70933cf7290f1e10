package namaz

import (
	"fmt"
	"time"
)

// Remaining is a countdown split into whole hours and minutes.
type Remaining struct {
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Text    string `json:"text"`
}

// DescribeRemainingTime measures the time from now to the next occurrence of
// target ("HH:mm"). Unparseable targets yield the zero Remaining.
func DescribeRemainingTime(target string, now time.Time) Remaining {
	t, ok := At(target, now)
	if !ok {
		return Remaining{}
	}
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}

	total := int(t.Sub(now) / time.Minute)
	r := Remaining{Hours: total / 60, Minutes: total % 60}
	r.Text = formatRemaining(r.Hours, r.Minutes)
	return r
}

func formatRemaining(hours, minutes int) string {
	if hours == 0 {
		return plural(minutes, "minute")
	}
	return plural(hours, "hour") + " " + plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDuration renders d compactly as "Xh Ym" or "Ym".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
