package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/cache"
	"github.com/smokyabdulrahman/ghari/internal/display"
	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// dayView is everything the status commands render for one instant.
type dayView struct {
	loc    location.Snapshot
	day    *cache.DayEntry
	now    time.Time
	status namaz.Status
}

func (a *app) loadDay(ctx context.Context) (*dayView, error) {
	loc, err := a.resolveLocation(ctx)
	if err != nil {
		return nil, err
	}
	// Re-anchor "now" to the location's timezone.
	now := a.nowIn(loc.Zone())
	day, err := a.provider.Day(ctx, loc, now)
	if err != nil {
		return nil, err
	}
	return &dayView{
		loc:    loc,
		day:    day,
		now:    now,
		status: namaz.Resolve(day.Times, now),
	}, nil
}

func (a *app) newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's prayer times and the current period",
		Args:  cobra.NoArgs,
		RunE:  a.runToday,
	}
}

func (a *app) runToday(cmd *cobra.Command, args []string) error {
	v, err := a.loadDay(cmd.Context())
	if err != nil {
		return err
	}
	layout := clockLayout(a.cfg.TimeFormat)
	if a.flags.json {
		return printTodayJSON(cmd.OutOrStdout(), v, a.visibleLabels(v.day.Times), layout)
	}
	printTodayRich(cmd.OutOrStdout(), v, a.visibleLabels(v.day.Times), layout)
	return nil
}

// visibleLabels returns the configured labels, or every label the day has,
// in chronological order.
func (a *app) visibleLabels(times namaz.Snapshot) []namaz.Label {
	wanted := a.cfg.PrayerLabels()
	if len(wanted) == 0 {
		wanted = namaz.Labels()
	}
	var out []namaz.Label
	for _, l := range wanted {
		if times.Get(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// printTodayRich renders the colored terminal output for today's schedule.
func printTodayRich(w io.Writer, v *dayView, labels []namaz.Label, layout string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n\n", display.Bold("Prayer Times"))
	fmt.Fprintf(w, "  %s\n", v.loc.String())
	fmt.Fprintf(w, "  %s\n", v.loc.Timezone)
	fmt.Fprintf(w, "  %s\n", formatGregorianDate(v.now, v.day))
	if v.day.Hijri != "" {
		fmt.Fprintf(w, "  %s\n", v.day.Hijri)
	}
	fmt.Fprintln(w)

	tbl := display.NewTable([]string{"Prayer", "Time"})
	for _, l := range labels {
		raw := v.day.Times.Get(l)
		if l == v.status.Next {
			tbl.SetHighlightRow(tbl.Len())
		} else if at, ok := namaz.At(raw, v.now); ok && !at.After(v.now) {
			tbl.DimRow(tbl.Len())
		}
		tbl.AddRow([]string{l.DisplayName(), namaz.FormatClock(raw, layout)})
	}
	tbl.WriteTo(w)
	fmt.Fprintln(w)

	p := v.status.Period
	if p.Name != "" {
		fmt.Fprintf(w, "  Now   %s", display.Group(p.Group, p.Name))
		if p.Description != "" {
			fmt.Fprintf(w, "  %s", display.Dim(p.Description))
		}
		fmt.Fprintln(w)
	}
	if v.status.Next != "" {
		fmt.Fprintf(w, "  Next  %s %s  %s\n",
			display.Accent(v.status.Next.DisplayName()),
			namaz.FormatClock(v.status.NextTime, layout),
			display.Dim("in "+v.status.Remaining.Text))
	}
	fmt.Fprintln(w)
}

// formatGregorianDate prefers the API's readable date and falls back to now.
func formatGregorianDate(now time.Time, day *cache.DayEntry) string {
	if day != nil && day.Gregorian != "" {
		return day.Gregorian
	}
	return now.Format("02 Jan 2006")
}

// todayJSON is the JSON output structure for the today command.
type todayJSON struct {
	Location location.Snapshot `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Timings  map[string]string `json:"timings"`
	Period   namaz.Period      `json:"period"`
	Next     *todayJSONNext    `json:"next"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri,omitempty"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

func printTodayJSON(w io.Writer, v *dayView, labels []namaz.Label, layout string) error {
	timings := make(map[string]string, len(labels))
	for _, l := range labels {
		timings[string(l)] = namaz.FormatClock(v.day.Times.Get(l), layout)
	}

	out := todayJSON{
		Location: v.loc,
		Date: todayJSONDate{
			Gregorian: formatGregorianDate(v.now, v.day),
			Hijri:     v.day.Hijri,
		},
		Timings: timings,
		Period:  v.status.Period,
	}
	if v.status.Next != "" {
		out.Next = &todayJSONNext{
			Prayer:    string(v.status.Next),
			Time:      namaz.FormatClock(v.status.NextTime, layout),
			Remaining: v.status.Remaining.Text,
		}
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (a *app) newNowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the current period and the next prayer on one line",
		Long: "Print a one-line status suitable for shell prompts and status bars.\n\n" +
			"Formats: " + strings.Join(statusFormats, ", ") + ", or a Go template such as\n" +
			"'{{.Period}} | {{.Next}} in {{.Remaining}}'. Template fields: .Period, .Group,\n" +
			".Description, .Next, .NextTime, .Remaining, .Hours, .Minutes",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.loadDay(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.json {
				return writeJSON(cmd.OutOrStdout(), v.status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), namaz.FormatStatus(v.status, format, clockLayout(a.cfg.TimeFormat)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", namaz.FormatPeriodAndNext, "Status format or Go template")
	return cmd
}

var statusFormats = []string{
	namaz.FormatPeriod,
	namaz.FormatNext,
	namaz.FormatNextAndRemaining,
	namaz.FormatPeriodAndNext,
	namaz.FormatFull,
}
