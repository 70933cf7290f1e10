package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
	"github.com/smokyabdulrahman/ghari/internal/reminder"
	"github.com/smokyabdulrahman/ghari/internal/ticker"
)

func (a *app) newWatchCmd() *cobra.Command {
	var (
		format   string
		relocate time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a live status line and fire reminders in this terminal",
		Long: "Refresh the current period and countdown every second. Reminders are\n" +
			"rescheduled when the detected location changes. With console delivery they\n" +
			"also fire in this process while it runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd, format, relocate)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", namaz.FormatFull, "Status format or Go template")
	cmd.Flags().DurationVar(&relocate, "relocate", 15*time.Minute, "How often to re-check the location (0 disables)")
	return cmd
}

func (a *app) runWatch(ctx context.Context, cmd *cobra.Command, format string, relocate time.Duration) error {
	loc, err := a.resolveLocation(ctx)
	if err != nil {
		return err
	}

	w := &watcher{
		app:      a,
		ctx:      ctx,
		out:      cmd.OutOrStdout(),
		format:   format,
		layout:   clockLayout(a.cfg.TimeFormat),
		relocate: relocate,
		loc:      loc,
	}

	sched, err := a.openScheduler(cmd)
	if err != nil {
		return err
	}
	if a.consoleDelivery() {
		// Timers from an earlier process are gone; re-arm in this one.
		sched.RestoreArmed(ctx)
		w.sched = sched
	}
	version, _ := a.setLocation(loc)
	sched.RescheduleAll(ctx, loc, version)

	updates, unsubscribe := a.tracker.Subscribe()
	defer unsubscribe()
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		sched.FollowLocation(ctx, updates)
	}()

	t := ticker.Start(ctx, time.Second, w.tick)
	<-ctx.Done()
	t.Stop()
	<-followed
	fmt.Fprintln(w.out)
	return nil
}

// watcher holds the state re-derived on every tick.
type watcher struct {
	app      *app
	ctx      context.Context
	out      io.Writer
	format   string
	layout   string
	relocate time.Duration
	sched    *reminder.Scheduler

	loc        location.Snapshot
	times      namaz.Snapshot
	day        string // YYYY-MM-DD the times belong to
	lastMinute time.Time
	lastLocate time.Time
}

func (w *watcher) tick(now time.Time) {
	if w.relocate > 0 && !w.lastLocate.IsZero() && now.Sub(w.lastLocate) >= w.relocate {
		w.checkLocation(now)
	}
	if w.lastLocate.IsZero() {
		w.lastLocate = now
	}

	local := now.In(w.loc.Zone())
	if date := local.Format("2006-01-02"); date != w.day || w.times == nil {
		times, err := w.app.provider.Times(w.ctx, w.loc, local)
		if err != nil {
			w.app.log.Error().Err(err).Msg("could not load prayer times")
			return
		}
		w.times, w.day = times, date
	}

	st := namaz.Resolve(w.times, local)
	fmt.Fprintf(w.out, "\r\033[K%s", namaz.FormatStatus(st, w.format, w.layout))

	if minute := now.Truncate(time.Minute); w.sched != nil && minute.After(w.lastMinute) {
		w.lastMinute = minute
		w.sched.EnsureFutureSchedules(w.ctx)
	}
}

// checkLocation re-resolves the location. A change bumps the tracker
// version, which FollowLocation turns into a reschedule, and forces a
// times reload.
func (w *watcher) checkLocation(now time.Time) {
	w.lastLocate = now
	loc, err := w.app.locate(w.ctx, true)
	if err != nil {
		w.app.log.Warn().Err(err).Msg("location check failed")
		return
	}
	if _, changed := w.app.setLocation(loc); changed {
		w.loc = loc
		w.times = nil
	}
}
