package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/display"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

func (a *app) newRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"reminder", "r"},
		Short:   "Manage reminders bound to prayer times",
		Long: "Create and manage reminders that fire relative to a named prayer time.\n\n" +
			"Prayer labels: " + strings.Join(namaz.LabelStrings(), ", "),
		RunE: a.runRemindersList,
	}

	cmd.AddCommand(a.newRemindersAddCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List reminders and their next trigger",
		Args:  cobra.NoArgs,
		RunE:  a.runRemindersList,
	})
	cmd.AddCommand(a.newRemindersUpdateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a reminder",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runRemindersToggle,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a reminder and cancel its notification",
		Args:    cobra.ExactArgs(1),
		RunE:    a.runRemindersDelete,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reschedule",
		Short: "Re-arm every enabled reminder for the current location",
		Args:  cobra.NoArgs,
		RunE:  a.runRemindersReschedule,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Arm the next occurrence of reminders whose notification has passed",
		Args:  cobra.NoArgs,
		RunE:  a.runRemindersEnsure,
	})

	return cmd
}

func (a *app) newRemindersAddCmd() *cobra.Command {
	var (
		name     string
		prayer   string
		offset   int
		repeat   string
		weekdays string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reminder",
		Long: "Create a reminder that fires --offset minutes from a prayer time.\n\n" +
			"Examples:\n" +
			"  ghari reminders add --name \"Wake for Fajr\" --prayer fajr --offset -15\n" +
			"  ghari reminders add --name Jumuah --prayer zawaal --repeat weekly --weekdays fri",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseWeekdays(weekdays)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sched, err := a.openScheduler(cmd)
			if err != nil {
				return err
			}
			sched.RequestPermission(ctx)
			loc, err := a.followLocation(ctx, sched)
			if err != nil {
				return err
			}

			created, err := sched.Create(ctx, reminder.Spec{
				Name:          name,
				PrayerTime:    namaz.Label(strings.ToLower(prayer)),
				OffsetMinutes: offset,
				Repeat:        reminder.Repeat(strings.ToLower(repeat)),
				Weekdays:      days,
				Location:      loc,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if created == nil {
				fmt.Fprintf(out, "A reminder named %q for %s already exists.\n", name, namaz.Label(prayer).DisplayName())
				return nil
			}
			if a.flags.json {
				return writeJSON(out, created)
			}
			fmt.Fprintf(out, "Created reminder %s (%s)\n", shortID(created.ID), created.Name)
			a.printArmed(out, created)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Reminder name (required)")
	f.StringVar(&prayer, "prayer", "", "Prayer label, e.g. fajr or maghrib_safe (required)")
	f.IntVar(&offset, "offset", 0, "Minutes relative to the prayer time; negative fires before")
	f.StringVar(&repeat, "repeat", string(reminder.Daily), "daily, weekly, monthly or never")
	f.StringVar(&weekdays, "weekdays", "", "Comma-separated weekdays for weekly reminders, e.g. mon,fri")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("prayer")
	return cmd
}

func (a *app) newRemindersUpdateCmd() *cobra.Command {
	var (
		name     string
		prayer   string
		offset   int
		repeat   string
		weekdays string
		enabled  bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a reminder; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sched, err := a.openScheduler(cmd)
			if err != nil {
				return err
			}
			id, err := resolveID(ctx, sched, args[0])
			if err != nil {
				return err
			}

			var p reminder.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &name
			}
			if flags.Changed("prayer") {
				l := namaz.Label(strings.ToLower(prayer))
				p.PrayerTime = &l
			}
			if flags.Changed("offset") {
				p.OffsetMinutes = &offset
			}
			if flags.Changed("repeat") {
				r := reminder.Repeat(strings.ToLower(repeat))
				p.Repeat = &r
			}
			if flags.Changed("weekdays") {
				days, err := parseWeekdays(weekdays)
				if err != nil {
					return err
				}
				p.Weekdays = &days
			}
			if flags.Changed("enabled") {
				p.Enabled = &enabled
			}

			updated, err := sched.Update(ctx, id, p)
			if err != nil {
				return err
			}
			if a.flags.json {
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated reminder %s (%s)\n", shortID(updated.ID), updated.Name)
			a.printArmed(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "New name")
	f.StringVar(&prayer, "prayer", "", "New prayer label")
	f.IntVar(&offset, "offset", 0, "New offset in minutes")
	f.StringVar(&repeat, "repeat", "", "New repeat policy")
	f.StringVar(&weekdays, "weekdays", "", "New weekdays for weekly reminders")
	f.BoolVar(&enabled, "enabled", true, "Enable or disable")
	return cmd
}

func (a *app) runRemindersList(cmd *cobra.Command, args []string) error {
	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	specs, err := sched.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.flags.json {
		return writeJSON(out, specs)
	}
	if len(specs) == 0 {
		fmt.Fprintln(out, "No reminders. Create one with: ghari reminders add --name <name> --prayer <label>")
		return nil
	}

	layout := clockLayout(a.cfg.TimeFormat)
	tbl := display.NewTable([]string{"ID", "Name", "Prayer", "Offset", "Repeat", "State", "Next"})
	for i := range specs {
		s := &specs[i]
		next := "-"
		if s.Armed != nil {
			next = s.Armed.TriggerAt.In(s.Location.Zone()).Format("Mon 02 Jan " + layout)
		}
		tbl.AddRow([]string{
			shortID(s.ID),
			s.Name,
			s.PrayerTime.DisplayName(),
			formatOffset(s.OffsetMinutes),
			formatRepeat(s),
			display.Toggle(s.Enabled),
			next,
		})
		if !s.Enabled {
			tbl.DimRow(i)
		}
	}
	fmt.Fprintln(out)
	tbl.WriteTo(out)
	fmt.Fprintln(out)
	if a.consoleDelivery() {
		fmt.Fprintln(out, display.Dim("  Console delivery: reminders fire while `ghari watch` is running."))
	}
	return nil
}

func (a *app) runRemindersToggle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(ctx, sched, args[0])
	if err != nil {
		return err
	}
	spec, err := sched.Toggle(ctx, id)
	if err != nil {
		return err
	}
	state := "disabled"
	if spec.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder %s %s\n", shortID(spec.ID), state)
	a.printArmed(cmd.OutOrStdout(), spec)
	return nil
}

func (a *app) runRemindersDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(ctx, sched, args[0])
	if err != nil {
		return err
	}
	if err := sched.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %s\n", shortID(id))
	return nil
}

func (a *app) runRemindersReschedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ctx)
	if err != nil {
		return err
	}
	version, _ := a.setLocation(loc)
	n := sched.RescheduleAll(ctx, loc, version)
	fmt.Fprintf(cmd.OutOrStdout(), "Rescheduled %d reminders for %s\n", n, loc.String())
	return nil
}

func (a *app) runRemindersEnsure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	if _, err := a.followLocation(ctx, sched); err != nil {
		return err
	}
	n := sched.EnsureFutureSchedules(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Armed %d reminders\n", n)
	return nil
}

func (a *app) printArmed(w io.Writer, s *reminder.Spec) {
	if s.Armed == nil {
		if s.Enabled {
			fmt.Fprintln(w, display.Dim("  Not armed; run `ghari reminders ensure` to retry."))
		}
		return
	}
	at := s.Armed.TriggerAt.In(s.Location.Zone())
	fmt.Fprintf(w, "  Next: %s\n", at.Format("Mon 02 Jan "+clockLayout(a.cfg.TimeFormat)))
}

// resolveID expands a unique ID prefix to the full reminder ID.
func resolveID(ctx context.Context, sched *reminder.Scheduler, prefix string) (string, error) {
	specs, err := sched.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, s := range specs {
		if s.ID == prefix {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no reminder matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d reminders; use more characters", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatOffset(minutes int) string {
	switch {
	case minutes == 0:
		return "at time"
	case minutes < 0:
		return fmt.Sprintf("%dm before", -minutes)
	default:
		return fmt.Sprintf("%dm after", minutes)
	}
}

func formatRepeat(s *reminder.Spec) string {
	if s.Repeat != reminder.Weekly || len(s.Weekdays) == 0 {
		return string(s.Repeat)
	}
	names := make([]string, len(s.Weekdays))
	for i, d := range s.Weekdays {
		names[i] = time.Weekday(d).String()[:3]
	}
	return "weekly " + strings.Join(names, ",")
}

// parseWeekdays accepts weekday names ("fri", "Friday") or numbers (0=Sunday).
func parseWeekdays(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if n, err := strconv.Atoi(part); err == nil {
			if n < 0 || n > 6 {
				return nil, fmt.Errorf("weekday %d out of range 0-6", n)
			}
			out = append(out, n)
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			name := strings.ToLower(d.String())
			if len(part) >= 3 && strings.HasPrefix(name, part) {
				out = append(out, int(d))
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return out, nil
}
